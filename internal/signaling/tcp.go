package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
)

// jsonConn carries newline-delimited JSON messages over a stream socket.
type jsonConn struct {
	net.Conn
	enc *json.Encoder
	dec *json.Decoder
}

func newJSONConn(c net.Conn) *jsonConn {
	return &jsonConn{Conn: c, enc: json.NewEncoder(c), dec: json.NewDecoder(c)}
}

func (j *jsonConn) WriteJSON(v any) error { return j.enc.Encode(v) }
func (j *jsonConn) ReadJSON(v any) error  { return j.dec.Decode(v) }

// TCPChannel is a signaling channel over a plain TCP socket.
type TCPChannel struct {
	channel
	ln net.Listener
}

// NewTCPListener binds addr immediately; Connect accepts exactly one peer.
func NewTCPListener(addr string) (*TCPChannel, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start signaling listener: %w", err)
	}

	t := &TCPChannel{ln: ln}
	t.channel = channel{
		dial:    t.accept,
		release: t.closeListener,
		isEOF:   isStreamEOF,
	}
	return t, nil
}

// NewTCPDialer returns a channel that dials addr on Connect.
func NewTCPDialer(addr string) *TCPChannel {
	var d net.Dialer
	return &TCPChannel{channel: channel{
		dial: func(ctx context.Context) (wire, error) {
			conn, err := d.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to signaling peer: %w", err)
			}
			return newJSONConn(conn), nil
		},
		isEOF: isStreamEOF,
	}}
}

// Addr returns the bound address of a listening channel, or nil.
func (t *TCPChannel) Addr() net.Addr {
	if t.ln == nil {
		return nil
	}
	return t.ln.Addr()
}

func (t *TCPChannel) accept(ctx context.Context) (wire, error) {
	stop := context.AfterFunc(ctx, func() { t.ln.Close() })
	defer stop()

	conn, err := t.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to accept signaling peer: %w", err)
	}

	// One peer per session.
	_ = t.closeListener()
	return newJSONConn(conn), nil
}

func (t *TCPChannel) closeListener() error {
	if err := t.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func isStreamEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
