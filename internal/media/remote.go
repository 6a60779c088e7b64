package media

import (
	"errors"
	"io"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"

	"github.com/1ureka/bouncetrack/internal/util"
)

// maxLate is how many packets the sample builder holds before giving up on
// a missing one.
const maxLate = 256

// RTPReader yields inbound RTP packets, e.g. *webrtc.TrackRemote.
type RTPReader interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// RemoteTrack is the consumer's video track: it reassembles RTP packets
// into frames.
type RemoteTrack struct {
	r       RTPReader
	sb      *samplebuilder.SampleBuilder
	seq     uint64
	firstTS uint32
	started bool
	ended   bool
}

// NewRemoteTrack creates a track reading from r.
func NewRemoteTrack(r RTPReader) *RemoteTrack {
	return &RemoteTrack{
		r:  r,
		sb: samplebuilder.New(maxLate, RasterPacket{}, ClockRate),
	}
}

// Next blocks until the next complete frame is available. It returns
// io.EOF once the underlying track has ended and every buffered frame has
// been delivered. Frames that fail to decode are skipped.
func (t *RemoteTrack) Next() (*Frame, error) {
	for {
		if s := t.sb.Pop(); s != nil {
			if f := t.frame(s); f != nil {
				return f, nil
			}
			continue
		}

		if t.ended {
			return nil, io.EOF
		}

		pkt, _, err := t.r.ReadRTP()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				util.LogWarning("video track read failed: %v", err)
			}
			t.ended = true
			t.sb.Flush()
			continue
		}

		t.sb.Push(pkt)
	}
}

func (t *RemoteTrack) frame(s *pionmedia.Sample) *Frame {
	img, err := DecodeRaster(s.Data)
	if err != nil {
		util.LogWarning("dropping undecodable frame: %v", err)
		return nil
	}

	if !t.started {
		t.firstTS = s.PacketTimestamp
		t.started = true
	}

	f := &Frame{
		Raster:    img,
		Timestamp: time.Duration(s.PacketTimestamp-t.firstTS) * time.Second / ClockRate,
		Seq:       t.seq,
	}
	t.seq++
	util.Stats.AddRecv()
	return f
}
