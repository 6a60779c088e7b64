package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/bouncetrack/internal/feedback"
	"github.com/1ureka/bouncetrack/internal/media"
	"github.com/1ureka/bouncetrack/internal/scene"
	"github.com/1ureka/bouncetrack/internal/signaling"
	"github.com/1ureka/bouncetrack/internal/transport"
	"github.com/1ureka/bouncetrack/internal/util"
)

// RunProducer streams the bouncing ball to the peer and scores the positions
// it reports back. It returns nil when the peer hangs up or ctx is cancelled
// and the first fatal error otherwise. ch and tr are closed on return.
func RunProducer(ctx context.Context, tr *transport.Transport, ch signaling.Channel, opts Options) error {
	opts = opts.withDefaults()
	id := newSessionID()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer release(ch, tr)

	ball, err := scene.NewBall(opts.Scene)
	if err != nil {
		return fmt.Errorf("frame source: %w", err)
	}

	track, err := tr.AddVideoTrack(id)
	if err != nil {
		return fmt.Errorf("add video track: %w", err)
	}
	dc, err := tr.CreateFeedbackChannel()
	if err != nil {
		return fmt.Errorf("create feedback channel: %w", err)
	}

	eval := feedback.NewEvaluator(ball)
	if opts.OnReport != nil {
		eval.OnReport(opts.OnReport)
	}
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		eval.HandleMessage(msg.Data)
	})

	util.LogInfo("producer session %s", id)

	neg, err := negotiate(ctx, tr, ch, signaling.Initiator)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		cancel()
		<-neg.Done()
	}()

	if ok, err := awaitReady(ctx, tr, neg); !ok {
		return err
	}

	local, err := media.NewLocalTrack(ball, opts.FPS)
	if err != nil {
		return err
	}
	pumpDone := make(chan error, 1)
	go func() { pumpDone <- local.Run(ctx, track) }()

	util.StartStatsReporter(ctx, opts.StatsInterval)

	select {
	case <-neg.Done():
		err = negotiationResult(ctx, neg.Err())
	case err = <-pumpDone:
		pumpDone = nil
	case <-tr.Done():
		err = transportResult(tr)
	case <-ctx.Done():
	}

	cancel()
	if pumpDone != nil {
		<-pumpDone
	}

	s := eval.Summary()
	util.LogSuccess("producer session %s done", id)
	util.PrintSummary("Tracking error", [][]string{
		{"reports", strconv.Itoa(s.Count)},
		{"malformed", strconv.Itoa(s.Malformed)},
		{"mean error (px)", strconv.FormatFloat(s.Mean, 'f', 2, 64)},
		{"max error (px)", strconv.FormatFloat(s.Max, 'f', 2, 64)},
	})
	return err
}
