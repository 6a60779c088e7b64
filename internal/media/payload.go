package media

import "errors"

// Raster payload format: a one-byte header followed by a fragment of the
// encoded frame. The RTP marker bit is set on the last fragment.
//
//	+-+-+-+-+-+-+-+-+
//	|S|  reserved   |
//	+-+-+-+-+-+-+-+-+
const (
	rasterHeaderSize = 1
	rasterStartBit   = 0x80
)

var errEmptyRasterPayload = errors.New("empty raster payload")

// RasterPayloader splits an encoded frame into MTU-sized fragments.
// It implements rtp.Payloader.
type RasterPayloader struct{}

// Payload implements rtp.Payloader.
func (RasterPayloader) Payload(mtu uint16, payload []byte) [][]byte {
	if len(payload) == 0 || int(mtu) <= rasterHeaderSize {
		return nil
	}

	size := int(mtu) - rasterHeaderSize
	out := make([][]byte, 0, (len(payload)+size-1)/size)

	for offset := 0; offset < len(payload); offset += size {
		end := min(offset+size, len(payload))

		frag := make([]byte, rasterHeaderSize+end-offset)
		if offset == 0 {
			frag[0] = rasterStartBit
		}
		copy(frag[rasterHeaderSize:], payload[offset:end])
		out = append(out, frag)
	}

	return out
}

// RasterPacket strips the raster payload header. It implements
// rtp.Depacketizer.
type RasterPacket struct{}

// Unmarshal implements rtp.Depacketizer.
func (RasterPacket) Unmarshal(packet []byte) ([]byte, error) {
	if len(packet) < rasterHeaderSize {
		return nil, errEmptyRasterPayload
	}
	return packet[rasterHeaderSize:], nil
}

// IsPartitionHead implements rtp.Depacketizer.
func (RasterPacket) IsPartitionHead(payload []byte) bool {
	return len(payload) >= rasterHeaderSize && payload[0]&rasterStartBit != 0
}

// IsPartitionTail implements rtp.Depacketizer.
func (RasterPacket) IsPartitionTail(marker bool, _ []byte) bool {
	return marker
}
