package locate

import (
	"image"
	"math"

	"github.com/1ureka/bouncetrack/internal/scene"
)

// HSVRange selects pixels by hue (degrees, 0-360), saturation and value
// (both 0-1). Bounds are inclusive.
type HSVRange struct {
	HueMin, HueMax float64
	SatMin, SatMax float64
	ValMin, ValMax float64
}

// Contains reports whether the HSV triple lies within the range.
func (r HSVRange) Contains(h, s, v float64) bool {
	return h >= r.HueMin && h <= r.HueMax &&
		s >= r.SatMin && s <= r.SatMax &&
		v >= r.ValMin && v <= r.ValMax
}

// BlueRange matches saturated blues.
var BlueRange = HSVRange{
	HueMin: 200, HueMax: 260,
	SatMin: 50.0 / 255, SatMax: 1,
	ValMin: 50.0 / 255, ValMax: 1,
}

// ColorLocator segments pixels within an HSV range and reports the centroid
// of the largest 4-connected region.
type ColorLocator struct {
	Range HSVRange

	// MinPixels is the smallest region accepted as the object.
	MinPixels int
}

// NewBlueLocator returns a ColorLocator tuned for the producer's blue ball.
func NewBlueLocator() *ColorLocator {
	return &ColorLocator{Range: BlueRange, MinPixels: 1}
}

// Locate implements Locator.
func (l *ColorLocator) Locate(img *image.RGBA) (scene.Position, error) {
	b := img.Rect
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return scene.Position{}, ErrNotFound
	}

	mask := make([]bool, w*h)
	found := false
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			hh, s, v := rgbToHSV(c.R, c.G, c.B)
			if l.Range.Contains(hh, s, v) {
				mask[y*w+x] = true
				found = true
			}
		}
	}
	if !found {
		return scene.Position{}, ErrNotFound
	}

	best := region{}
	seen := make([]bool, w*h)
	stack := make([]int, 0, 256)

	for i, on := range mask {
		if !on || seen[i] {
			continue
		}

		var r region
		seen[i] = true
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			px, py := p%w, p/w
			r.add(px, py)

			for _, n := range [4][2]int{{px - 1, py}, {px + 1, py}, {px, py - 1}, {px, py + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if mask[j] && !seen[j] {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}

		if r.n > best.n {
			best = r
		}
	}

	if best.n < max(l.MinPixels, 1) {
		return scene.Position{}, ErrNotFound
	}

	return scene.Position{
		X: float64(b.Min.X) + best.sumX/float64(best.n),
		Y: float64(b.Min.Y) + best.sumY/float64(best.n),
	}, nil
}

// region accumulates pixel centers of one connected component.
type region struct {
	n          int
	sumX, sumY float64
}

func (r *region) add(x, y int) {
	r.n++
	r.sumX += float64(x) + 0.5
	r.sumY += float64(y) + 0.5
}

// rgbToHSV converts 8-bit RGB to hue in degrees and saturation/value in 0-1.
func rgbToHSV(r8, g8, b8 uint8) (h, s, v float64) {
	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	d := mx - mn

	v = mx
	if mx > 0 {
		s = d / mx
	}
	if d == 0 {
		return 0, s, v
	}

	switch mx {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
