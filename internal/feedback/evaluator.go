package feedback

import (
	"math"
	"sync"
	"time"

	"github.com/1ureka/bouncetrack/internal/protocol"
	"github.com/1ureka/bouncetrack/internal/scene"
	"github.com/1ureka/bouncetrack/internal/util"
)

// Truth exposes the producer's current ground-truth position.
type Truth interface {
	Position() scene.Position
}

// Report is the score of one received position.
type Report struct {
	Received scene.Position
	Truth    scene.Position
	Error    float64
	At       time.Time
}

// Summary aggregates every report seen so far.
type Summary struct {
	Count     int
	Malformed int
	Mean      float64
	Max       float64
}

// Evaluator scores reported positions against the ground truth as it is when
// the report arrives, not when the analyzed frame was rendered. The result
// is observational and never feeds back into the simulation.
type Evaluator struct {
	truth Truth

	mu        sync.Mutex
	count     int
	malformed int
	sum       float64
	max       float64
	onReport  func(Report)
}

func NewEvaluator(truth Truth) *Evaluator {
	return &Evaluator{truth: truth}
}

// OnReport registers fn to be called with every report.
func (e *Evaluator) OnReport(fn func(Report)) {
	e.mu.Lock()
	e.onReport = fn
	e.mu.Unlock()
}

// Observe scores p.
func (e *Evaluator) Observe(p scene.Position) Report {
	truth := e.truth.Position()
	r := Report{
		Received: p,
		Truth:    truth,
		Error:    p.Distance(truth),
		At:       time.Now(),
	}

	e.mu.Lock()
	e.count++
	e.sum += r.Error
	e.max = math.Max(e.max, r.Error)
	fn := e.onReport
	e.mu.Unlock()

	util.Stats.AddReport(r.Error)
	util.LogInfo("received %s, truth %s, error %.2f", r.Received, r.Truth, r.Error)

	if fn != nil {
		fn(r)
	}
	return r
}

// HandleMessage decodes one feedback message and scores it. Malformed
// payloads are logged and dropped.
func (e *Evaluator) HandleMessage(data []byte) {
	p, err := protocol.DecodePosition(data)
	if err != nil {
		e.mu.Lock()
		e.malformed++
		e.mu.Unlock()
		util.LogWarning("dropping feedback message: %v", err)
		return
	}
	e.Observe(p)
}

func (e *Evaluator) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Summary{Count: e.count, Malformed: e.malformed, Max: e.max}
	if e.count > 0 {
		s.Mean = e.sum / float64(e.count)
	}
	return s
}
