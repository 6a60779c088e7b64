package signaling

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn sends a close frame before dropping the connection.
type wsConn struct {
	*websocket.Conn
}

func (c wsConn) Close() error {
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(byeTimeout))
	return c.Conn.Close()
}

// WSChannel is a signaling channel over a WebSocket.
type WSChannel struct {
	channel
	ln       net.Listener
	srv      *http.Server
	connCh   chan *websocket.Conn
	accepted atomic.Bool
}

// NewWSServer binds addr immediately and serves path; Connect waits for the
// first client. Later clients are turned away.
func NewWSServer(addr, path string) (*WSChannel, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start WS server: %w", err)
	}

	s := &WSChannel{
		ln:     ln,
		connCh: make(chan *websocket.Conn, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleWS)
	s.srv = &http.Server{Handler: mux}

	go func() {
		_ = s.srv.Serve(ln)
	}()

	s.channel = channel{
		dial:    s.waitForClient,
		release: s.shutdown,
		isEOF:   isWSEOF,
	}
	return s, nil
}

// NewWSDialer returns a channel that dials url on Connect.
func NewWSDialer(url string) *WSChannel {
	return &WSChannel{channel: channel{
		dial: func(ctx context.Context) (wire, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to WS server: %w", err)
			}
			return wsConn{conn}, nil
		},
		isEOF: isWSEOF,
	}}
}

// Addr returns the bound address of a server channel, or nil.
func (s *WSChannel) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *WSChannel) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// Only accept the first client.
	if s.accepted.CompareAndSwap(false, true) {
		s.connCh <- conn
	} else {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"))
		conn.Close()
	}
}

func (s *WSChannel) waitForClient(ctx context.Context) (wire, error) {
	select {
	case conn := <-s.connCh:
		return wsConn{conn}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// shutdown stops the server and drops a client nobody picked up.
func (s *WSChannel) shutdown() error {
	err := s.srv.Close()
	select {
	case conn := <-s.connCh:
		conn.Close()
	default:
	}
	return err
}

func isWSEOF(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
