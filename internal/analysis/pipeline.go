package analysis

import (
	"context"
	"sync"

	"github.com/1ureka/bouncetrack/internal/locate"
	"github.com/1ureka/bouncetrack/internal/media"
	"github.com/1ureka/bouncetrack/internal/scene"
)

// Pipeline owns one queue, one slot and the worker between them.
type Pipeline struct {
	queue   *Queue
	slot    *Slot
	locator locate.Locator

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	started   bool
	stats     WorkerStats
}

// NewPipeline creates a stopped pipeline with a queue of queueSize frames.
func NewPipeline(loc locate.Locator, queueSize int) *Pipeline {
	return &Pipeline{
		queue:   NewQueue(queueSize),
		slot:    &Slot{},
		locator: loc,
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Calls after the first are no-ops.
func (p *Pipeline) Start() {
	p.startOnce.Do(func() {
		p.started = true
		go func() {
			defer close(p.done)
			p.stats = RunWorker(p.queue, p.slot, p.locator)
		}()
	})
}

// Feed hands f over to the worker.
func (p *Pipeline) Feed(ctx context.Context, f *media.Frame) error {
	return p.queue.Push(ctx, f)
}

// Position returns the last position the worker located.
func (p *Pipeline) Position() scene.Position {
	return p.slot.Read()
}

// Stop queues the sentinel and waits for the worker to exit. It is safe to
// call more than once and from any goroutine.
func (p *Pipeline) Stop() WorkerStats {
	p.stopOnce.Do(func() {
		// Start after Stop must not launch a worker on a closed queue.
		p.startOnce.Do(func() {})
		p.queue.Close()
		if p.started {
			<-p.done
		}
	})
	return p.stats
}

// Stats returns the worker counters. They are final once Stop returns.
func (p *Pipeline) Stats() WorkerStats {
	select {
	case <-p.done:
		return p.stats
	default:
		return WorkerStats{}
	}
}

// Pending reports frames queued but not yet analyzed.
func (p *Pipeline) Pending() int {
	return p.queue.Len()
}
