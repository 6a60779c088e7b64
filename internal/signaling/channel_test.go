package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/transport/v4/test"
	"github.com/pion/webrtc/v4"
)

func connectPair(t *testing.T, server, client Channel) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Connect(ctx) }()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("server Connect: %v", err)
	}
}

func exerciseChannels(t *testing.T, server, client Channel) {
	t.Helper()

	mid, idx := "0", uint16(0)
	msgs := []*Message{
		{Type: MsgTypeOffer, SDP: "v=0\r\n"},
		{Type: MsgTypeCandidate, Candidate: "candidate:1 1 udp 1 127.0.0.1 5000 typ host", SDPMid: &mid, SDPMLine: &idx},
	}
	for _, m := range msgs {
		if err := server.Send(m); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	for i, want := range msgs {
		got, err := client.Receive()
		if err != nil {
			t.Fatalf("Receive #%d: %v", i, err)
		}
		if got.Type != want.Type || got.SDP != want.SDP || got.Candidate != want.Candidate {
			t.Fatalf("Receive #%d = %+v, want %+v", i, got, want)
		}
	}

	if err := client.Send(&Message{Type: MsgTypeAnswer, SDP: "v=0\r\n"}); err != nil {
		t.Fatalf("Send answer: %v", err)
	}
	if got, err := server.Receive(); err != nil || got.Type != MsgTypeAnswer {
		t.Fatalf("Receive answer = %+v, %v", got, err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	got, err := server.Receive()
	if got != nil || err != nil {
		t.Fatalf("Receive after bye = %+v, %v, want terminator", got, err)
	}
	if got, err := client.Receive(); got != nil || err != nil {
		t.Fatalf("Receive on closed channel = %+v, %v, want terminator", got, err)
	}
	server.Close()
}

func TestTCPChannelRoundTrip(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	server, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener: %v", err)
	}
	client := NewTCPDialer(server.Addr().String())

	connectPair(t, server, client)
	exerciseChannels(t, server, client)
}

func TestWSChannelRoundTrip(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	server, err := NewWSServer("127.0.0.1:0", "/ws")
	if err != nil {
		t.Fatalf("NewWSServer: %v", err)
	}
	client := NewWSDialer("ws://" + server.Addr().String() + "/ws")

	connectPair(t, server, client)
	exerciseChannels(t, server, client)
}

func TestWSServerRejectsSecondClient(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	server, err := NewWSServer("127.0.0.1:0", "/ws")
	if err != nil {
		t.Fatalf("NewWSServer: %v", err)
	}
	defer server.Close()
	url := "ws://" + server.Addr().String() + "/ws"

	client := NewWSDialer(url)
	connectPair(t, server, client)
	defer client.Close()

	extra, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer extra.Close()

	_, _, err = extra.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("ReadMessage = %v, want policy violation close", err)
	}
}

func TestTCPChannelEOFIsTerminator(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	server, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener: %v", err)
	}
	defer server.Close()

	go func() {
		conn, err := net.Dial("tcp", server.Addr().String())
		if err == nil {
			conn.Close()
		}
	}()

	if err := server.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got, err := server.Receive(); got != nil || err != nil {
		t.Fatalf("Receive = %+v, %v, want terminator", got, err)
	}
}

func TestTCPChannelMalformedMessage(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	server, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener: %v", err)
	}
	defer server.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := net.Dial("tcp", server.Addr().String())
		if err != nil {
			return
		}
		defer conn.Close()
		_ = json.NewEncoder(conn).Encode(map[string]string{"type": "hello"})
		<-time.After(100 * time.Millisecond)
	}()

	if err := server.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := server.Receive(); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("Receive = %v, want ErrMalformedMessage", err)
	}
	<-done
}

func TestTCPListenerConnectCancelled(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	server, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener: %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := server.Connect(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Connect = %v, want deadline exceeded", err)
	}
}

func TestSendBeforeConnect(t *testing.T) {
	c := NewTCPDialer("127.0.0.1:1")
	if err := c.Send(&Message{Type: MsgTypeBye}); !errors.Is(err, errNotConnected) {
		t.Fatalf("Send = %v, want errNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMessageWireFormat(t *testing.T) {
	mid, idx := "0", uint16(0)
	data, err := json.Marshal(CandidateMessage(webrtc.ICECandidateInit{
		Candidate:     "candidate:1",
		SDPMid:        &mid,
		SDPMLineIndex: &idx,
	}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"type":"candidate","candidate":"candidate:1","id":"0","label":0}`
	if string(data) != want {
		t.Fatalf("wire = %s, want %s", data, want)
	}

	var m Message
	if err := json.Unmarshal([]byte(`{"type":"bye"}`), &m); err != nil || m.Validate() != nil {
		t.Fatalf("bye rejected: %v %v", err, m.Validate())
	}
}
