package signaling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/1ureka/bouncetrack/internal/util"
)

// Channel is an ordered, reliable, point-to-point signaling link.
//
// Receive returns (nil, nil) once the remote side has said goodbye, the
// stream has ended, or the channel was closed locally.
type Channel interface {
	Connect(ctx context.Context) error
	Send(msg *Message) error
	Receive() (*Message, error)
	Close() error
}

var errNotConnected = errors.New("signaling channel not connected")

const byeTimeout = time.Second

// wire is one connected JSON message stream.
type wire interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// channel implements Channel on top of a wire obtained by dial.
type channel struct {
	dial    func(ctx context.Context) (wire, error)
	release func() error // frees resources held before Connect, may be nil
	isEOF   func(err error) bool

	mu     sync.Mutex // guards w and closed
	w      wire
	closed bool

	writeMu sync.Mutex
}

func (c *channel) Connect(ctx context.Context) error {
	w, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		w.Close()
		return errors.New("signaling channel closed")
	}
	c.w = w
	return nil
}

func (c *channel) conn() wire {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w
}

func (c *channel) Send(msg *Message) error {
	w := c.conn()
	if w == nil {
		return errNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := w.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

func (c *channel) Receive() (*Message, error) {
	w := c.conn()
	if w == nil {
		return nil, errNotConnected
	}

	var msg Message
	if err := w.ReadJSON(&msg); err != nil {
		if c.isClosed() || c.isEOF(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("receive: %w", err)
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if msg.Type == MsgTypeBye {
		return nil, nil
	}
	return &msg, nil
}

func (c *channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close says goodbye to the peer and releases the link. Only the first call
// has an effect.
func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	w := c.w
	c.mu.Unlock()

	var errs []error
	if w != nil {
		_ = w.SetWriteDeadline(time.Now().Add(byeTimeout))
		if err := c.Send(&Message{Type: MsgTypeBye}); err != nil {
			util.LogDebug("signaling: bye not delivered: %v", err)
		}
		errs = append(errs, w.Close())
	}
	if c.release != nil {
		errs = append(errs, c.release())
	}
	return errors.Join(errs...)
}
