package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/bouncetrack/internal/analysis"
	"github.com/1ureka/bouncetrack/internal/feedback"
	"github.com/1ureka/bouncetrack/internal/media"
	"github.com/1ureka/bouncetrack/internal/signaling"
	"github.com/1ureka/bouncetrack/internal/transport"
	"github.com/1ureka/bouncetrack/internal/util"
)

// RunConsumer receives the video stream, locates the ball in every frame and
// reports positions back to the producer. It returns nil on end of stream,
// remote hang-up, frame budget or cancellation, and the first fatal error
// otherwise. The analysis worker is always joined and ch and tr are closed
// before it returns.
func RunConsumer(ctx context.Context, tr *transport.Transport, ch signaling.Channel, opts Options) error {
	opts = opts.withDefaults()
	id := newSessionID()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer release(ch, tr)

	var sink analysis.Sink = analysis.NopSink{}
	if opts.SnapshotDir != "" {
		s, err := analysis.NewSnapshotSink(opts.SnapshotDir, opts.SnapshotEvery)
		if err != nil {
			return err
		}
		sink = s
	}

	util.LogInfo("consumer session %s", id)

	neg, err := negotiate(ctx, tr, ch, signaling.Responder)
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

	track, dc, err := acceptStreams(ctx, tr, neg)
	if track == nil {
		return err
	}
	util.LogInfo("receiving %s on stream %s", track.Codec().MimeType, track.StreamID())

	pipeline := analysis.NewPipeline(opts.Locator, opts.QueueSize)
	pipeline.Start()

	sender := feedback.NewSender(ctx, dc, opts.FeedbackBuffer)
	feeder := analysis.NewFeeder(pipeline, sink, sender)
	defer func() {
		st := pipeline.Stop()
		util.LogSuccess("consumer session %s done", id)
		util.PrintSummary("Analysis", [][]string{
			{"frames received", strconv.Itoa(feeder.Frames())},
			{"analyzed", strconv.Itoa(st.Analyzed)},
			{"skipped", strconv.Itoa(st.Skipped)},
			{"last position", pipeline.Position().String()},
		})
	}()
	remote := media.NewRemoteTrack(track)

	util.StartStatsReporter(ctx, opts.StatsInterval)

	consumeDone := make(chan error, 1)
	go func() { consumeDone <- consume(ctx, feeder, remote, opts) }()

	select {
	case err = <-consumeDone:
		consumeDone = nil
		if errors.Is(err, io.EOF) {
			util.LogInfo("video stream ended")
			err = nil
		}
	case <-neg.Done():
		err = negotiationResult(ctx, neg.Err())
	case <-tr.Done():
		err = transportResult(tr)
	case <-ctx.Done():
	}

	// Closing the transport unblocks a pending track read.
	cancel()
	release(ch, tr)
	if consumeDone != nil {
		<-consumeDone
	}
	<-sender.Done()
	return err
}

// consume runs consumption rounds until the stream ends, the frame budget is
// spent or ctx is done.
func consume(ctx context.Context, feeder *analysis.Feeder, r analysis.FrameReader, opts Options) error {
	for ctx.Err() == nil {
		n := opts.Cycles
		if opts.MaxFrames > 0 {
			left := opts.MaxFrames - feeder.Frames()
			if left <= 0 {
				util.LogInfo("frame budget of %d reached, hanging up", opts.MaxFrames)
				return nil
			}
			n = min(n, left)
		}

		if err := feeder.Consume(ctx, r, n); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}

type streams struct {
	track *webrtc.TrackRemote
	dc    *webrtc.DataChannel
	err   error
}

// acceptStreams waits for the remote feedback channel and video track. A nil
// track with a nil error means the session ended before media arrived.
func acceptStreams(ctx context.Context, tr *transport.Transport, neg *negotiation) (*webrtc.TrackRemote, *webrtc.DataChannel, error) {
	acceptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	got := make(chan streams, 1)
	go func() {
		dc, err := tr.AcceptDataChannel(acceptCtx)
		if err != nil {
			got <- streams{err: err}
			return
		}
		track, err := tr.AcceptTrack(acceptCtx)
		got <- streams{track: track, dc: dc, err: err}
	}()

	select {
	case s := <-got:
		if s.err != nil {
			if ctx.Err() != nil || errors.Is(s.err, transport.ErrClosed) {
				return nil, nil, transportResult(tr)
			}
			return nil, nil, fmt.Errorf("accept streams: %w", s.err)
		}
		return s.track, s.dc, nil
	case <-neg.Done():
		return nil, nil, negotiationResult(ctx, neg.Err())
	case <-ctx.Done():
		return nil, nil, nil
	}
}
