package signaling

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/bouncetrack/internal/util"
)

// sendOffer creates an offer, sets it as local description and sends it.
// The sender lock is held throughout so no local candidate can overtake the
// description on the wire.
func (n *Negotiator) sendOffer() error {
	n.sendMu.Lock()
	defer n.sendMu.Unlock()

	offer, err := n.peer.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	return n.sendLocal(offer)
}

// sendAnswer creates an answer, sets it as local description and sends it.
func (n *Negotiator) sendAnswer() error {
	n.sendMu.Lock()
	defer n.sendMu.Unlock()

	answer, err := n.peer.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return n.sendLocal(answer)
}

func (n *Negotiator) sendLocal(desc webrtc.SessionDescription) error {
	if err := n.peer.SetLocalDescription(desc); err != nil {
		return fmt.Errorf("set local %s: %w", desc.Type, err)
	}
	return n.ch.Send(DescriptionMessage(desc))
}

// sendCandidate trickles a local ICE candidate. Failures are logged only.
func (n *Negotiator) sendCandidate(c *webrtc.ICECandidate) {
	if c == nil || n.State() == StateClosed {
		return
	}

	n.sendMu.Lock()
	defer n.sendMu.Unlock()

	if err := n.ch.Send(CandidateMessage(c.ToJSON())); err != nil {
		util.LogWarning("signaling: failed to send candidate: %v", err)
	}
}
