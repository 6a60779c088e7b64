// Package media turns rendered frames into an RTP video stream and back.
//
// Frames travel as PNG rasters on a custom RTP payload format (see
// RasterPayloader). Every frame is self-contained, so losing one never
// affects the next.
package media

import (
	"image"
	"time"
)

// Frame is one picture of a video track. Whoever holds a Frame owns it;
// stages hand it over rather than share it.
type Frame struct {
	Raster    *image.RGBA
	Timestamp time.Duration // presentation time since the start of the track
	Seq       uint64        // strictly increasing within one track
}
