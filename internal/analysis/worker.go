package analysis

import (
	"errors"

	"github.com/1ureka/bouncetrack/internal/locate"
	"github.com/1ureka/bouncetrack/internal/util"
)

// WorkerStats counts what a worker did with the frames it popped.
type WorkerStats struct {
	Analyzed int
	Skipped  int
}

// RunWorker pops frames until the sentinel, writing every located position
// into slot. Frames the locator rejects leave slot untouched.
func RunWorker(q *Queue, slot *Slot, loc locate.Locator) WorkerStats {
	var st WorkerStats

	for {
		f, ok := q.Pop()
		if !ok {
			util.LogDebug("analysis worker: end of stream after %d frames", st.Analyzed+st.Skipped)
			return st
		}

		pos, err := loc.Locate(f.Raster)
		if err != nil {
			if !errors.Is(err, locate.ErrNotFound) {
				util.LogWarning("analysis worker: frame %d: %v", f.Seq, err)
			}
			st.Skipped++
			util.Stats.AddSkipped()
			continue
		}

		slot.Write(pos)
		st.Analyzed++
		util.Stats.AddAnalyzed()
	}
}
