package analysis

import (
	"sync"

	"github.com/1ureka/bouncetrack/internal/scene"
)

// Slot holds the latest reported position. Reads and writes are atomic with
// respect to each other; the lock is never held across I/O.
type Slot struct {
	mu  sync.Mutex
	pos scene.Position
}

func (s *Slot) Read() scene.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *Slot) Write(p scene.Position) {
	s.mu.Lock()
	s.pos = p
	s.mu.Unlock()
}
