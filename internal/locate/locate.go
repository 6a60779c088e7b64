// Package locate finds the tracked object in a raster frame.
package locate

import (
	"errors"
	"image"

	"github.com/1ureka/bouncetrack/internal/scene"
)

// ErrNotFound is returned when a frame holds no pixels qualifying as the object.
var ErrNotFound = errors.New("object not found in frame")

// Locator extracts the object's center from a frame. Implementations must be
// free of side effects so they can run on the analysis worker.
type Locator interface {
	Locate(img *image.RGBA) (scene.Position, error)
}

// Func adapts a plain function to the Locator interface.
type Func func(img *image.RGBA) (scene.Position, error)

// Locate calls f(img).
func (f Func) Locate(img *image.RGBA) (scene.Position, error) { return f(img) }
