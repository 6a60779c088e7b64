// Package signaling exchanges session descriptions and ICE candidates
// between the two peers and drives a peer connection through negotiation.
//
// Messages are JSON objects. Over TCP they are newline-delimited; over
// WebSocket each message is one text frame.
package signaling

import (
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// MessageType identifies the kind of signaling message.
type MessageType string

const (
	MsgTypeOffer     MessageType = "offer"
	MsgTypeAnswer    MessageType = "answer"
	MsgTypeCandidate MessageType = "candidate"
	MsgTypeBye       MessageType = "bye"
)

// ErrMalformedMessage is returned for messages that cannot be interpreted.
var ErrMalformedMessage = errors.New("malformed signaling message")

// Message is the JSON structure exchanged during signaling.
type Message struct {
	Type      MessageType `json:"type"`
	SDP       string      `json:"sdp,omitempty"`
	Candidate string      `json:"candidate,omitempty"`
	SDPMid    *string     `json:"id,omitempty"`
	SDPMLine  *uint16     `json:"label,omitempty"`
}

// DescriptionMessage wraps a local session description.
func DescriptionMessage(desc webrtc.SessionDescription) *Message {
	return &Message{Type: MessageType(desc.Type.String()), SDP: desc.SDP}
}

// CandidateMessage wraps a local ICE candidate.
func CandidateMessage(c webrtc.ICECandidateInit) *Message {
	return &Message{
		Type:      MsgTypeCandidate,
		Candidate: c.Candidate,
		SDPMid:    c.SDPMid,
		SDPMLine:  c.SDPMLineIndex,
	}
}

// Validate reports whether m is well-formed.
func (m *Message) Validate() error {
	switch m.Type {
	case MsgTypeOffer, MsgTypeAnswer:
		if m.SDP == "" {
			return fmt.Errorf("%w: %s without sdp", ErrMalformedMessage, m.Type)
		}
	case MsgTypeCandidate:
		if m.Candidate == "" {
			return fmt.Errorf("%w: candidate without value", ErrMalformedMessage)
		}
	case MsgTypeBye:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, m.Type)
	}
	return nil
}

// Description returns the session description carried by an offer or answer.
func (m *Message) Description() webrtc.SessionDescription {
	desc := webrtc.SessionDescription{SDP: m.SDP}
	if m.Type == MsgTypeOffer {
		desc.Type = webrtc.SDPTypeOffer
	} else {
		desc.Type = webrtc.SDPTypeAnswer
	}
	return desc
}

// CandidateInit returns the ICE candidate carried by a candidate message.
func (m *Message) CandidateInit() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:     m.Candidate,
		SDPMid:        m.SDPMid,
		SDPMLineIndex: m.SDPMLine,
	}
}
