package analysis

import (
	"context"
	"errors"
	"io"

	"github.com/1ureka/bouncetrack/internal/media"
	"github.com/1ureka/bouncetrack/internal/scene"
)

// FrameReader yields inbound frames; io.EOF marks the end of the stream.
type FrameReader interface {
	Next() (*media.Frame, error)
}

// Reporter dispatches a position to the peer without blocking.
type Reporter interface {
	Report(p scene.Position)
}

// Feeder drives the consumer side of the pipeline: pull a frame, show it,
// queue it, then report the current slot value.
type Feeder struct {
	pipeline *Pipeline
	sink     Sink
	reporter Reporter
	frames   int
}

// NewFeeder creates a feeder. A nil sink discards frames.
func NewFeeder(p *Pipeline, sink Sink, reporter Reporter) *Feeder {
	if sink == nil {
		sink = NopSink{}
	}
	return &Feeder{pipeline: p, sink: sink, reporter: reporter}
}

// Consume runs at most cycles pull-display-feedback cycles. When the reader
// reports end of stream the pipeline is stopped and io.EOF is returned.
// The reported position may lag the frame just queued.
func (fd *Feeder) Consume(ctx context.Context, r FrameReader, cycles int) error {
	for i := 0; i < cycles; i++ {
		f, err := r.Next()
		if err != nil {
			fd.pipeline.Stop()
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}

		fd.sink.Show(f)

		if err := fd.pipeline.Feed(ctx, f); err != nil {
			return err
		}
		fd.frames++

		if fd.reporter != nil {
			fd.reporter.Report(fd.pipeline.Position())
		}
	}
	return nil
}

// Frames reports how many frames have been queued so far.
func (fd *Feeder) Frames() int {
	return fd.frames
}
