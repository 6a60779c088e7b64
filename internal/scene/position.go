// Package scene holds the synthetic scene the producer streams: a single
// ball bouncing inside a fixed canvas.
package scene

import (
	"fmt"
	"math"
)

// Position is a point on the canvas in pixel coordinates.
type Position struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
