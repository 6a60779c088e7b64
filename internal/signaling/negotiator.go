package signaling

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/bouncetrack/internal/util"
)

// Peer is the part of a peer connection the negotiator drives.
type Peer interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error
	AddICECandidate(c webrtc.ICECandidateInit) error
	OnICECandidate(f func(*webrtc.ICECandidate))
}

// Negotiator drives one peer connection through the offer/answer exchange
// over a connected Channel. Both roles share one state machine:
//
//	initiator: Idle -> AwaitingRemoteDescription -> Connected -> Closed
//	responder: Idle -> AwaitingRemoteDescription -> AwaitingLocalAck -> Connected -> Closed
//
// Candidates are handed to the peer as they arrive, in any state but Closed.
type Negotiator struct {
	peer Peer
	ch   Channel
	role Role

	sendMu sync.Mutex // serializes outbound messages

	mu            sync.Mutex
	state         State
	onStateChange func(State)
	connected     chan struct{}
	connectedOnce sync.Once
}

// NewNegotiator binds peer and a connected ch for the given role.
func NewNegotiator(peer Peer, ch Channel, role Role) *Negotiator {
	return &Negotiator{
		peer:      peer,
		ch:        ch,
		role:      role,
		state:     StateIdle,
		connected: make(chan struct{}),
	}
}

// Run negotiates and then keeps serving the signaling channel until the
// remote side hangs up, a fatal error occurs or ctx is done. The channel is
// closed on return. A remote hang-up returns nil.
func (n *Negotiator) Run(ctx context.Context) error {
	defer n.ch.Close()
	defer n.setState(StateClosed)

	stop := context.AfterFunc(ctx, func() { n.ch.Close() })
	defer stop()

	n.peer.OnICECandidate(n.sendCandidate)

	if n.role == Initiator {
		if err := n.sendOffer(); err != nil {
			return fmt.Errorf("send offer: %w", err)
		}
	}
	n.setState(StateAwaitingRemoteDescription)

	for {
		msg, err := n.ch.Receive()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		if msg == nil {
			util.LogInfo("signaling: remote peer hung up")
			return nil
		}

		if err := n.handle(msg); err != nil {
			return err
		}
	}
}

// State returns the current negotiation state.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Connected is closed once descriptions have been exchanged.
func (n *Negotiator) Connected() <-chan struct{} {
	return n.connected
}

// OnStateChange registers fn to be called on every transition.
func (n *Negotiator) OnStateChange(fn func(State)) {
	n.mu.Lock()
	n.onStateChange = fn
	n.mu.Unlock()
}

func (n *Negotiator) setState(s State) {
	n.mu.Lock()
	if n.state == s || n.state == StateClosed {
		n.mu.Unlock()
		return
	}
	n.state = s
	fn := n.onStateChange
	n.mu.Unlock()

	util.LogDebug("signaling (%s): %s", n.role, s)
	if s == StateConnected {
		n.connectedOnce.Do(func() { close(n.connected) })
	}
	if fn != nil {
		fn(s)
	}
}
