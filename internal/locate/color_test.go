package locate

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/1ureka/bouncetrack/internal/scene"
)

func renderBall(t *testing.T, at scene.Position, radius float64) *image.RGBA {
	t.Helper()

	cfg := scene.DefaultConfig()
	cfg.Radius = radius
	cfg.Start = at
	cfg.Velocity = scene.Position{}

	b, err := scene.NewBall(cfg)
	if err != nil {
		t.Fatalf("NewBall: %v", err)
	}
	img, _ := b.Advance()
	return img
}

func TestLocateBall(t *testing.T) {
	for _, at := range []scene.Position{
		{X: 50, Y: 60},
		{X: 200, Y: 150},
		{X: 321, Y: 77},
	} {
		img := renderBall(t, at, 20)

		got, err := NewBlueLocator().Locate(img)
		if err != nil {
			t.Fatalf("Locate(%v): %v", at, err)
		}
		if got.Distance(at) > 1e-6 {
			t.Errorf("Locate() = %v, want %v", got, at)
		}
	}
}

func TestLocateEmptyFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))

	if _, err := NewBlueLocator().Locate(img); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Locate() error = %v, want ErrNotFound", err)
	}
}

func TestLocateIgnoresOtherColors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	if _, err := NewBlueLocator().Locate(img); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Locate() on a red square error = %v, want ErrNotFound", err)
	}
}

// The largest blue region wins over smaller specks.
func TestLocatePicksLargestRegion(t *testing.T) {
	img := renderBall(t, scene.Position{X: 100, Y: 100}, 20)
	blue := color.RGBA{B: 255, A: 255}
	img.SetRGBA(5, 5, blue)
	img.SetRGBA(390, 290, blue)

	got, err := NewBlueLocator().Locate(img)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got.Distance(scene.Position{X: 100, Y: 100}) > 1e-6 {
		t.Errorf("Locate() = %v, want (100, 100)", got)
	}
}

func TestLocateMinPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	img.SetRGBA(3, 3, color.RGBA{B: 255, A: 255})

	l := NewBlueLocator()
	l.MinPixels = 4
	if _, err := l.Locate(img); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Locate() error = %v, want ErrNotFound", err)
	}
}

func TestLocateFuncAdapter(t *testing.T) {
	want := scene.Position{X: 1, Y: 2}
	var l Locator = Func(func(*image.RGBA) (scene.Position, error) { return want, nil })

	got, err := l.Locate(nil)
	if err != nil || got != want {
		t.Fatalf("Func.Locate() = %v, %v", got, err)
	}
}

func TestRGBToHSV(t *testing.T) {
	testCases := []struct {
		r, g, b uint8
		h, s, v float64
	}{
		{0, 0, 255, 240, 1, 1},
		{255, 0, 0, 0, 1, 1},
		{0, 255, 0, 120, 1, 1},
		{0, 0, 0, 0, 0, 0},
		{255, 255, 255, 0, 0, 1},
		{255, 0, 255, 300, 1, 1},
	}

	for _, tc := range testCases {
		h, s, v := rgbToHSV(tc.r, tc.g, tc.b)
		if math.Abs(h-tc.h) > 1e-9 || math.Abs(s-tc.s) > 1e-9 || math.Abs(v-tc.v) > 1e-9 {
			t.Errorf("rgbToHSV(%d,%d,%d) = (%v,%v,%v), want (%v,%v,%v)",
				tc.r, tc.g, tc.b, h, s, v, tc.h, tc.s, tc.v)
		}
	}
}
