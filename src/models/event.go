package models

// -----------------------------------------------------------------------------
// Transport events delivered to the session dispatcher
// -----------------------------------------------------------------------------

type MEventKind int

const (
	EventOpen MEventKind = iota
	EventMessage
	EventError
	EventConnectionLost
	EventSubscribeAck
	EventUnsubscribeAck
)

func (k MEventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventConnectionLost:
		return "connection_lost"
	case EventSubscribeAck:
		return "subscribe_ack"
	case EventUnsubscribeAck:
		return "unsubscribe_ack"
	default:
		return "unknown"
	}
}

// MTransportEvent is emitted by a transport handle. Generation identifies
// the handle that produced it so events from discarded handles can be ignored.
type MTransportEvent struct {
	Kind       MEventKind
	Generation uint64
	Topic      string
	Payload    []byte
	Err        error
}
