package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/pion/webrtc/v4"
)

// RTP parameters of the raster codec.
const (
	MimeTypeRaster = "video/x-raster-png"
	ClockRate      = 90000
	PayloadType    = 96
	MTU            = 1200
)

// RasterCodec returns the codec capability both peers register.
func RasterCodec() webrtc.RTPCodecCapability {
	return webrtc.RTPCodecCapability{
		MimeType:  MimeTypeRaster,
		ClockRate: ClockRate,
		RTCPFeedback: []webrtc.RTCPFeedback{
			{Type: "nack"},
		},
	}
}

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodeRaster compresses a frame raster for transmission.
func EncodeRaster(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRaster restores a raster produced by EncodeRaster.
func DecodeRaster(data []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Rect, img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
