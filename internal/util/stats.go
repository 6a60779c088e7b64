package util

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide session counter set.
var Stats = &stats{}

type stats struct {
	FramesSent      atomic.Int64 // frames written to the outbound video track
	FramesRecv      atomic.Int64 // frames reassembled from the inbound video track
	FramesAnalyzed  atomic.Int64 // frames the worker located the object in
	FramesSkipped   atomic.Int64 // frames the worker could not locate the object in
	FeedbackSent    atomic.Int64 // position reports written to the feedback channel
	FeedbackDropped atomic.Int64 // position reports dropped (buffer full or send failure)
	Reports         atomic.Int64 // position reports scored by the evaluator
	errorMilli      atomic.Int64 // cumulative tracking error, in thousandths of a pixel
}

func (s *stats) AddSent()         { s.FramesSent.Add(1) }
func (s *stats) AddRecv()         { s.FramesRecv.Add(1) }
func (s *stats) AddAnalyzed()     { s.FramesAnalyzed.Add(1) }
func (s *stats) AddSkipped()      { s.FramesSkipped.Add(1) }
func (s *stats) AddFeedbackSent() { s.FeedbackSent.Add(1) }
func (s *stats) AddFeedbackDrop() { s.FeedbackDropped.Add(1) }
func (s *stats) AddReport(err float64) {
	s.Reports.Add(1)
	if !math.IsNaN(err) && !math.IsInf(err, 0) {
		s.errorMilli.Add(int64(math.Round(err * 1000)))
	}
}

// MeanError returns the average scored tracking error so far.
func (s *stats) MeanError() float64 {
	n := s.Reports.Load()
	if n == 0 {
		return 0
	}
	return float64(s.errorMilli.Load()) / 1000 / float64(n)
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs session statistics
// every interval. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var prevSent, prevRecv, prevFeedback, prevReports int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.FramesSent.Load()
				recv := Stats.FramesRecv.Load()
				feedback := Stats.FeedbackSent.Load()
				reports := Stats.Reports.Load()

				if sent != prevSent || recv != prevRecv || feedback != prevFeedback || reports != prevReports {
					secs := interval.Seconds()
					pterm.DefaultLogger.Info(formatStats(
						float64(sent-prevSent)/secs,
						float64(recv-prevRecv)/secs,
						feedback-prevFeedback,
						reports-prevReports,
						Stats.MeanError(),
					))
				}

				prevSent = sent
				prevRecv = recv
				prevFeedback = feedback
				prevReports = reports

			case <-ctx.Done():
				return
			}
		}
	}()
}

// formatStats returns a formatted string of the current stats for display in the logger.
func formatStats(outFPS, inFPS float64, feedback, reports int64, meanErr float64) string {
	return fmt.Sprintf("Out: %5.1f fps | In: %5.1f fps | Feedback: %3d↑ | Reports: %3d↓ | Mean error: %6.2f px",
		outFPS,
		inFPS,
		feedback,
		reports,
		meanErr,
	)
}
