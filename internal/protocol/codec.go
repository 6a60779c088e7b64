package protocol

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/1ureka/bouncetrack/internal/scene"
)

// EncodePosition serializes a position for data channel transmission.
func EncodePosition(p scene.Position) ([]byte, error) {
	if !finite(p.X) || !finite(p.Y) {
		return nil, fmt.Errorf("%w: non-finite coordinate %v", ErrMalformed, p)
	}
	return msgpack.Marshal(&wirePosition{X: &p.X, Y: &p.Y})
}

// DecodePosition deserializes a position record. Missing or unknown fields,
// trailing bytes and non-finite values are rejected.
func DecodePosition(data []byte) (scene.Position, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)

	c, err := dec.PeekCode()
	if err != nil {
		return scene.Position{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !msgpcode.IsFixedMap(c) && c != msgpcode.Map16 && c != msgpcode.Map32 {
		return scene.Position{}, fmt.Errorf("%w: not a map (code 0x%02x)", ErrMalformed, c)
	}

	var w wirePosition
	if err := dec.Decode(&w); err != nil {
		return scene.Position{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Len() != 0 {
		return scene.Position{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.Len())
	}
	if w.X == nil || w.Y == nil {
		return scene.Position{}, fmt.Errorf("%w: missing coordinate", ErrMalformed)
	}
	if !finite(*w.X) || !finite(*w.Y) {
		return scene.Position{}, fmt.Errorf("%w: non-finite coordinate", ErrMalformed)
	}
	return scene.Position{X: *w.X, Y: *w.Y}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
