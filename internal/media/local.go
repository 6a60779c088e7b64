package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/pion/rtp"

	"github.com/1ureka/bouncetrack/internal/scene"
	"github.com/1ureka/bouncetrack/internal/util"
)

// Source produces the next raster and the ground-truth position drawn in it.
type Source interface {
	Advance() (*image.RGBA, scene.Position)
}

// RTPWriter accepts outbound RTP packets, e.g. *webrtc.TrackLocalStaticRTP.
type RTPWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// LocalTrack is the producer's video track: each poll advances the source
// by one tick and stamps the frame at a fixed nominal rate.
type LocalTrack struct {
	src        Source
	fps        int
	interval   time.Duration
	seq        uint64
	packetizer rtp.Packetizer
}

// NewLocalTrack creates a track pulling from src at fps frames per second.
func NewLocalTrack(src Source, fps int) (*LocalTrack, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", fps)
	}
	return &LocalTrack{
		src:      src,
		fps:      fps,
		interval: time.Second / time.Duration(fps),
		packetizer: rtp.NewPacketizer(
			MTU,
			PayloadType,
			0, // the track binding rewrites SSRC and payload type
			RasterPayloader{},
			rtp.NewRandomSequencer(),
			ClockRate,
		),
	}, nil
}

// Poll advances the source and returns the stamped frame.
func (t *LocalTrack) Poll() *Frame {
	img, _ := t.src.Advance()
	f := &Frame{
		Raster:    img,
		Timestamp: time.Duration(t.seq) * time.Second / time.Duration(t.fps),
		Seq:       t.seq,
	}
	t.seq++
	return f
}

// Packetize encodes a frame into RTP packets. Consecutive calls advance the
// RTP timestamp by one frame interval.
func (t *LocalTrack) Packetize(f *Frame) ([]*rtp.Packet, error) {
	data, err := EncodeRaster(f.Raster)
	if err != nil {
		return nil, err
	}
	return t.packetizer.Packetize(data, uint32(ClockRate/t.fps)), nil
}

// Run polls, packetizes and writes one frame per tick until ctx is cancelled
// or the writer is closed.
func (t *LocalTrack) Run(ctx context.Context, w RTPWriter) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}

		f := t.Poll()
		pkts, err := t.Packetize(f)
		if err != nil {
			return err
		}

		for _, pkt := range pkts {
			if err := w.WriteRTP(pkt); err != nil {
				if errors.Is(err, io.ErrClosedPipe) {
					return nil
				}
				return fmt.Errorf("write frame %d: %w", f.Seq, err)
			}
		}

		util.Stats.AddSent()
		util.LogDebug("frame %d sent (%d packets)", f.Seq, len(pkts))
	}
}
