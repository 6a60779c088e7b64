// Package feedback carries reported positions from the consumer back to the
// producer and scores them against the ground truth.
package feedback

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/1ureka/bouncetrack/internal/protocol"
	"github.com/1ureka/bouncetrack/internal/scene"
	"github.com/1ureka/bouncetrack/internal/util"
)

const (
	highWaterMark     = 256 * 1024 // pause sending when bufferedAmount exceeds this
	lowWaterMark      = 64 * 1024  // resume sending when bufferedAmount drops below this
	DefaultBufferSize = 64         // pending reports before new ones are dropped
)

// Channel is the outbound half of a data channel, e.g. *webrtc.DataChannel.
type Channel interface {
	Send(data []byte) error
	BufferedAmount() uint64
	SetBufferedAmountLowThreshold(th uint64)
	OnBufferedAmountLow(f func())
	OnOpen(f func())
}

// Sender is the single writer of a feedback channel. Report never blocks:
// positions that do not fit in the buffer are dropped, and send failures
// are logged without interrupting the caller.
type Sender struct {
	inbox       chan scene.Position
	drainSignal chan struct{}
	openSignal  chan struct{}
	done        chan struct{}
}

// NewSender wires the open gate and backpressure callbacks on ch and starts
// the writer loop. The loop exits when ctx is cancelled or the channel is
// closed.
func NewSender(ctx context.Context, ch Channel, bufferSize int) *Sender {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	s := &Sender{
		inbox:       make(chan scene.Position, bufferSize),
		drainSignal: make(chan struct{}, 1),
		openSignal:  make(chan struct{}),
		done:        make(chan struct{}),
	}

	var openOnce sync.Once
	ch.OnOpen(func() {
		openOnce.Do(func() { close(s.openSignal) })
	})

	ch.SetBufferedAmountLowThreshold(uint64(lowWaterMark))
	ch.OnBufferedAmountLow(func() {
		select {
		case s.drainSignal <- struct{}{}:
		default:
		}
	})

	go s.loop(ctx, ch)

	return s
}

func (s *Sender) loop(ctx context.Context, ch Channel) {
	defer close(s.done)

	select {
	case <-s.openSignal:
	case <-ctx.Done():
		return
	}

	for {
		select {
		case pos := <-s.inbox:
			if ch.BufferedAmount() > uint64(highWaterMark) {
				select {
				case <-s.drainSignal:
				case <-ctx.Done():
					return
				}
			}

			data, err := protocol.EncodePosition(pos)
			if err != nil {
				util.LogWarning("feedback: %v", err)
				util.Stats.AddFeedbackDrop()
				continue
			}

			if err := ch.Send(data); err != nil {
				util.Stats.AddFeedbackDrop()
				if errors.Is(err, io.ErrClosedPipe) {
					util.LogDebug("feedback channel closed, sender stopping")
					return
				}
				util.LogWarning("failed to send feedback %s: %v", pos, err)
				continue
			}

			util.Stats.AddFeedbackSent()
		case <-ctx.Done():
			return
		}
	}
}

// Report queues p for delivery.
func (s *Sender) Report(p scene.Position) {
	select {
	case s.inbox <- p:
	default:
		util.Stats.AddFeedbackDrop()
		util.LogDebug("feedback buffer full, dropping %s", p)
	}
}

// Done is closed once the writer loop has exited.
func (s *Sender) Done() <-chan struct{} {
	return s.done
}
