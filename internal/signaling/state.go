package signaling

// Role decides which peer sends the offer.
type Role int

const (
	Initiator Role = iota
	Responder
)

func (r Role) String() string {
	if r == Initiator {
		return "initiator"
	}
	return "responder"
}

// State is the negotiation state of one session.
type State int

const (
	StateIdle State = iota
	StateAwaitingRemoteDescription
	StateAwaitingLocalAck
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingRemoteDescription:
		return "awaiting-remote-description"
	case StateAwaitingLocalAck:
		return "awaiting-local-ack"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
