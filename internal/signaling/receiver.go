package signaling

import (
	"errors"
	"fmt"

	"github.com/1ureka/bouncetrack/internal/util"
)

// ErrUnexpectedDescription is returned when a description arrives that the
// current role and state cannot accept.
var ErrUnexpectedDescription = errors.New("unexpected session description")

// handle applies one inbound message. Any returned error is fatal.
func (n *Negotiator) handle(msg *Message) error {
	switch msg.Type {
	case MsgTypeOffer:
		st := n.State()
		if n.role != Responder || (st != StateAwaitingRemoteDescription && st != StateConnected) {
			return fmt.Errorf("%w: offer as %s in state %s", ErrUnexpectedDescription, n.role, st)
		}
		if st == StateConnected {
			util.LogDebug("signaling: renegotiation offer")
		}

		if err := n.peer.SetRemoteDescription(msg.Description()); err != nil {
			return fmt.Errorf("set remote offer: %w", err)
		}
		n.setState(StateAwaitingLocalAck)

		if err := n.sendAnswer(); err != nil {
			return err
		}
		n.setState(StateConnected)

	case MsgTypeAnswer:
		st := n.State()
		if n.role != Initiator || st != StateAwaitingRemoteDescription {
			return fmt.Errorf("%w: answer as %s in state %s", ErrUnexpectedDescription, n.role, st)
		}

		if err := n.peer.SetRemoteDescription(msg.Description()); err != nil {
			return fmt.Errorf("set remote answer: %w", err)
		}
		n.setState(StateConnected)

	case MsgTypeCandidate:
		if err := n.peer.AddICECandidate(msg.CandidateInit()); err != nil {
			return fmt.Errorf("add ICE candidate: %w", err)
		}
	}
	return nil
}
