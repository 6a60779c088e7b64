// Package session runs one producer or consumer session end to end:
// signaling, negotiation, media and feedback.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/bouncetrack/internal/analysis"
	"github.com/1ureka/bouncetrack/internal/feedback"
	"github.com/1ureka/bouncetrack/internal/locate"
	"github.com/1ureka/bouncetrack/internal/scene"
	"github.com/1ureka/bouncetrack/internal/signaling"
	"github.com/1ureka/bouncetrack/internal/transport"
	"github.com/1ureka/bouncetrack/internal/util"
)

// Options tunes a session. Zero values fall back to defaults.
type Options struct {
	Scene scene.Config
	FPS   int

	// Consumer side.
	Cycles         int // pull-display-feedback cycles per consumption round
	MaxFrames      int // hang up after this many frames; 0 means never
	QueueSize      int
	FeedbackBuffer int
	SnapshotDir    string
	SnapshotEvery  int
	Locator        locate.Locator

	// Producer side.
	OnReport func(feedback.Report)

	StatsInterval time.Duration
}

const (
	DefaultFPS    = 30
	DefaultCycles = 30
)

func (o Options) withDefaults() Options {
	if o.Scene.Width == 0 {
		o.Scene = scene.DefaultConfig()
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Cycles <= 0 {
		o.Cycles = DefaultCycles
	}
	if o.QueueSize <= 0 {
		o.QueueSize = analysis.DefaultQueueSize
	}
	if o.FeedbackBuffer <= 0 {
		o.FeedbackBuffer = feedback.DefaultBufferSize
	}
	if o.Locator == nil {
		o.Locator = locate.NewBlueLocator()
	}
	return o
}

// errTransportFailed is returned when ICE or DTLS gives up.
var errTransportFailed = errors.New("peer connection failed")

func newSessionID() string {
	return uuid.NewString()
}

// negotiation is a negotiator running in the background.
type negotiation struct {
	done chan struct{}
	err  error
}

// Done is closed when the negotiator has returned.
func (n *negotiation) Done() <-chan struct{} { return n.done }

// Err is the negotiator's result. Valid once Done is closed.
func (n *negotiation) Err() error { return n.err }

// negotiate connects the signaling channel and starts the negotiator.
func negotiate(ctx context.Context, tr *transport.Transport, ch signaling.Channel, role signaling.Role) (*negotiation, error) {
	if err := ch.Connect(ctx); err != nil {
		return nil, fmt.Errorf("signaling: %w", err)
	}
	util.LogInfo("signaling connected as %s", role)

	n := &negotiation{done: make(chan struct{})}
	neg := signaling.NewNegotiator(tr, ch, role)
	go func() {
		defer close(n.done)
		n.err = neg.Run(ctx)
	}()
	return n, nil
}

// awaitReady blocks until the peer connection is up. A nil error with
// ok=false means the session ended cleanly before connecting.
func awaitReady(ctx context.Context, tr *transport.Transport, neg *negotiation) (ok bool, err error) {
	select {
	case <-tr.Ready():
		util.LogSuccess("peer connection established")
		return true, nil
	case <-neg.Done():
		return false, negotiationResult(ctx, neg.Err())
	case <-tr.Done():
		return false, transportResult(tr)
	case <-ctx.Done():
		return false, nil
	}
}

// negotiationResult maps the negotiator's return value to the driver's.
// Cancellation and remote hang-up are clean shutdowns.
func negotiationResult(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("negotiation: %w", err)
}

func transportResult(tr *transport.Transport) error {
	if tr.ConnectionState() == webrtc.PeerConnectionStateFailed {
		return errTransportFailed
	}
	return nil
}

// release closes signaling and transport. Errors are logged only.
func release(ch signaling.Channel, tr *transport.Transport) {
	if err := ch.Close(); err != nil {
		util.LogDebug("closing signaling: %v", err)
	}
	if err := tr.Close(); err != nil {
		util.LogDebug("closing transport: %v", err)
	}
}
