// Package analysis decouples frame arrival from object location.
//
// A Feeder pushes received frames onto a bounded Queue; a single worker pops
// them, runs a locate.Locator and publishes the result into a Slot. Closing
// the queue is the end-of-stream sentinel: the worker drains what is left
// and exits.
package analysis

import (
	"context"
	"errors"
	"sync"

	"github.com/1ureka/bouncetrack/internal/media"
)

// DefaultQueueSize is the queue capacity used when none is configured.
const DefaultQueueSize = 64

// ErrQueueClosed is returned by Push once the sentinel has been queued.
var ErrQueueClosed = errors.New("analysis: frame queue closed")

// Queue is a bounded FIFO of frames with a single end-of-stream sentinel.
// Push blocks while the queue is full.
type Queue struct {
	mu     sync.RWMutex
	ch     chan *media.Frame
	closed bool
}

// NewQueue creates a queue holding at most size frames.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan *media.Frame, size)}
}

// Push enqueues f, waiting for room or for ctx to be done.
func (q *Queue) Push(ctx context.Context, f *media.Frame) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close queues the sentinel. Only the first call has an effect; it waits for
// in-flight pushes to finish so the sentinel is always the last item.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Pop blocks for the next frame. ok is false once the sentinel is reached.
func (q *Queue) Pop() (f *media.Frame, ok bool) {
	f, ok = <-q.ch
	return f, ok
}

// Len reports the number of frames waiting.
func (q *Queue) Len() int {
	return len(q.ch)
}
