package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/1ureka/bouncetrack/internal/media"
	"github.com/1ureka/bouncetrack/internal/util"
)

// Sink is the presentation boundary for received frames. Show must not keep
// the frame after it returns.
type Sink interface {
	Show(f *media.Frame)
}

// NopSink discards frames.
type NopSink struct{}

func (NopSink) Show(*media.Frame) {}

// SnapshotSink writes every n-th frame as a PNG file.
type SnapshotSink struct {
	dir   string
	every uint64
}

// NewSnapshotSink creates dir if needed. every below 1 is treated as 1.
func NewSnapshotSink(dir string, every int) (*SnapshotSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	if every < 1 {
		every = 1
	}
	return &SnapshotSink{dir: dir, every: uint64(every)}, nil
}

// Path returns the file a frame with the given sequence index is written to.
func (s *SnapshotSink) Path(seq uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame-%06d.png", seq))
}

func (s *SnapshotSink) Show(f *media.Frame) {
	if f.Seq%s.every != 0 {
		return
	}

	data, err := media.EncodeRaster(f.Raster)
	if err != nil {
		util.LogWarning("snapshot %d: %v", f.Seq, err)
		return
	}
	if err := os.WriteFile(s.Path(f.Seq), data, 0o644); err != nil {
		util.LogWarning("snapshot %d: %v", f.Seq, err)
	}
}
