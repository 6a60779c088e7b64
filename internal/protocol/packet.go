// Package protocol defines the feedback record exchanged over the data
// channel: the consumer's estimate of the object position.
package protocol

import "errors"

// ErrMalformed is returned for feedback payloads that are not exactly one
// well-formed position record.
var ErrMalformed = errors.New("malformed position record")

// wirePosition is the on-the-wire form: a msgpack map with exactly the keys
// "x" and "y", both finite numbers.
type wirePosition struct {
	X *float64 `msgpack:"x"`
	Y *float64 `msgpack:"y"`
}
