package scene

import (
	"bytes"
	"testing"
)

func TestAdvanceFromCenter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Start = Position{X: 200, Y: 150}
	cfg.Velocity = Position{X: 10, Y: 5}

	b, err := NewBall(cfg)
	if err != nil {
		t.Fatalf("NewBall: %v", err)
	}

	_, pos := b.Advance()
	if pos != (Position{X: 210, Y: 155}) {
		t.Fatalf("Advance() position = %v, want (210, 155)", pos)
	}
	if got := b.Position(); got != pos {
		t.Errorf("Position() = %v, want %v", got, pos)
	}
}

func TestAdvanceIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()

	a, _ := NewBall(cfg)
	b, _ := NewBall(cfg)

	for i := 0; i < 500; i++ {
		imgA, posA := a.Advance()
		imgB, posB := b.Advance()
		if posA != posB {
			t.Fatalf("tick %d: positions diverged: %v vs %v", i, posA, posB)
		}
		if !bytes.Equal(imgA.Pix, imgB.Pix) {
			t.Fatalf("tick %d: rasters diverged", i)
		}
	}
}

func TestBoundaryReflection(t *testing.T) {
	testCases := []struct {
		name     string
		start    Position
		velocity Position
		wantPos  Position
		wantVel  Position
	}{
		{
			name:     "right edge flips x only",
			start:    Position{X: 370, Y: 150},
			velocity: Position{X: 15, Y: 5},
			wantPos:  Position{X: 385, Y: 155},
			wantVel:  Position{X: -15, Y: 5},
		},
		{
			name:     "left edge flips x only",
			start:    Position{X: 30, Y: 150},
			velocity: Position{X: -10, Y: -5},
			wantPos:  Position{X: 20, Y: 145},
			wantVel:  Position{X: 10, Y: -5},
		},
		{
			name:     "bottom edge flips y only",
			start:    Position{X: 200, Y: 270},
			velocity: Position{X: 5, Y: 12},
			wantPos:  Position{X: 205, Y: 282},
			wantVel:  Position{X: 5, Y: -12},
		},
		{
			name:     "corner flips both",
			start:    Position{X: 25, Y: 25},
			velocity: Position{X: -10, Y: -10},
			wantPos:  Position{X: 15, Y: 15},
			wantVel:  Position{X: 10, Y: 10},
		},
		{
			name:     "interior keeps velocity",
			start:    Position{X: 100, Y: 100},
			velocity: Position{X: 20, Y: 12},
			wantPos:  Position{X: 120, Y: 112},
			wantVel:  Position{X: 20, Y: 12},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Start = tc.start
			cfg.Velocity = tc.velocity

			b, err := NewBall(cfg)
			if err != nil {
				t.Fatalf("NewBall: %v", err)
			}

			_, pos := b.Advance()
			if pos != tc.wantPos {
				t.Errorf("position = %v, want %v", pos, tc.wantPos)
			}
			if vel := b.Velocity(); vel != tc.wantVel {
				t.Errorf("velocity = %v, want %v", vel, tc.wantVel)
			}
		})
	}
}

// A ball that is still outside the boundary after a flip must not flip
// back on the same tick: one flip per axis per call.
func TestReflectionFlipsOncePerTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Start = Position{X: 380, Y: 150}
	cfg.Velocity = Position{X: 5, Y: 0}

	b, err := NewBall(cfg)
	if err != nil {
		t.Fatalf("NewBall: %v", err)
	}

	b.Advance()
	if vel := b.Velocity(); vel.X != -5 {
		t.Fatalf("after first tick velocity.X = %v, want -5", vel.X)
	}

	// Still overlapping the edge: flips again, once.
	b.Advance()
	if vel := b.Velocity(); vel.X != 5 {
		t.Fatalf("after second tick velocity.X = %v, want 5", vel.X)
	}
}

func TestRenderClearsPreviousFrame(t *testing.T) {
	cfg := DefaultConfig()
	b, _ := NewBall(cfg)

	first, p1 := b.Advance()
	second, _ := b.Advance()

	// The center of the first disk is background in the second frame.
	x, y := int(p1.X), int(p1.Y)
	if got := first.RGBAAt(x, y); got != cfg.Color {
		t.Fatalf("first frame center = %v, want ball color", got)
	}
	if got := second.RGBAAt(x, y); got != cfg.Background {
		t.Errorf("second frame at previous center = %v, want background", got)
	}
}

func TestRenderedDiskIsCenteredOnPosition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Start = Position{X: 40, Y: 50}
	cfg.Velocity = Position{X: 10, Y: 10}

	b, _ := NewBall(cfg)
	img, pos := b.Advance()

	var sumX, sumY, n float64
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			if img.RGBAAt(x, y) == cfg.Color {
				sumX += float64(x) + 0.5
				sumY += float64(y) + 0.5
				n++
			}
		}
	}
	if n == 0 {
		t.Fatal("no ball pixels rendered")
	}
	if cx, cy := sumX/n, sumY/n; cx != pos.X || cy != pos.Y {
		t.Errorf("disk centroid = (%v, %v), want %v", cx, cy, pos)
	}
}

func TestNewBallRejectsBadCanvas(t *testing.T) {
	testCases := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"negative height", func(c *Config) { c.Height = -1 }},
		{"zero radius", func(c *Config) { c.Radius = 0 }},
		{"ball larger than canvas", func(c *Config) { c.Radius = 200 }},
		{"start at origin", func(c *Config) { c.Start = Position{} }},
		{"start past right edge", func(c *Config) { c.Start = Position{X: 390, Y: 150} }},
		{"start below canvas", func(c *Config) { c.Start = Position{X: 200, Y: 290} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mut(&cfg)
			if _, err := NewBall(cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestDistance(t *testing.T) {
	p := Position{X: 3, Y: 0}
	q := Position{X: 0, Y: 4}
	if got := p.Distance(q); got != 5 {
		t.Errorf("Distance() = %v, want 5", got)
	}
}
