package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// Config describes the canvas and the ball's initial state.
type Config struct {
	Width      int
	Height     int
	Radius     float64
	Start      Position
	Velocity   Position
	Color      color.RGBA
	Background color.RGBA
}

// DefaultConfig returns a 400x300 canvas with a blue ball of radius 20
// starting at the center and moving by (20, 12) per tick.
func DefaultConfig() Config {
	return Config{
		Width:      400,
		Height:     300,
		Radius:     20,
		Start:      Position{X: 200, Y: 150},
		Velocity:   Position{X: 20, Y: 12},
		Color:      color.RGBA{R: 0, G: 0, B: 255, A: 255},
		Background: color.RGBA{A: 255},
	}
}

// Validate reports whether the canvas can hold the ball at its start.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas %dx%d", c.Width, c.Height)
	}
	if c.Radius <= 0 {
		return errors.New("ball radius must be positive")
	}
	if 2*c.Radius >= float64(c.Width) || 2*c.Radius >= float64(c.Height) {
		return fmt.Errorf("ball of radius %g does not fit a %dx%d canvas", c.Radius, c.Width, c.Height)
	}
	if c.Start.X-c.Radius < 0 || c.Start.X+c.Radius > float64(c.Width) ||
		c.Start.Y-c.Radius < 0 || c.Start.Y+c.Radius > float64(c.Height) {
		return fmt.Errorf("ball at %s with radius %g leaves the %dx%d canvas", c.Start, c.Radius, c.Width, c.Height)
	}
	return nil
}

// Ball is the producer's frame source. Its position is the session's ground
// truth: Advance is the only mutator, Position may be read from any goroutine.
type Ball struct {
	cfg    Config
	canvas *image.RGBA

	mu  sync.Mutex
	pos Position
	vel Position
}

// NewBall creates a ball in its initial state. A canvas that cannot hold the
// ball is a configuration error.
func NewBall(cfg Config) (*Ball, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ball{
		cfg:    cfg,
		canvas: image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		pos:    cfg.Start,
		vel:    cfg.Velocity,
	}, nil
}

// Advance moves the ball one tick, reflects it off the canvas edges and
// renders the new frame. The returned raster is owned by the caller.
func (b *Ball) Advance() (*image.RGBA, Position) {
	b.mu.Lock()
	b.pos.X += b.vel.X
	b.pos.Y += b.vel.Y

	if b.pos.X-b.cfg.Radius <= 0 || b.pos.X+b.cfg.Radius >= float64(b.cfg.Width) {
		b.vel.X = -b.vel.X
	}
	if b.pos.Y-b.cfg.Radius <= 0 || b.pos.Y+b.cfg.Radius >= float64(b.cfg.Height) {
		b.vel.Y = -b.vel.Y
	}
	pos := b.pos
	b.mu.Unlock()

	b.render(pos)

	out := image.NewRGBA(b.canvas.Rect)
	copy(out.Pix, b.canvas.Pix)
	return out, pos
}

// Position returns the current ground-truth position.
func (b *Ball) Position() Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// Velocity returns the current velocity.
func (b *Ball) Velocity() Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vel
}

// render clears the canvas and draws a filled disk centered at pos. A pixel
// belongs to the disk when its center lies within the radius.
func (b *Ball) render(pos Position) {
	draw.Draw(b.canvas, b.canvas.Rect, image.NewUniform(b.cfg.Background), image.Point{}, draw.Src)

	r := b.cfg.Radius
	r2 := r * r
	bounds := image.Rect(int(pos.X-r)-1, int(pos.Y-r)-1, int(pos.X+r)+2, int(pos.Y+r)+2).Intersect(b.canvas.Rect)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		dy := float64(y) + 0.5 - pos.Y
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := float64(x) + 0.5 - pos.X
			if dx*dx+dy*dy <= r2 {
				b.canvas.SetRGBA(x, y, b.cfg.Color)
			}
		}
	}
}
