package roomd

import (
	"github.com/danmuck/roomwire/internal/protocol"
	"github.com/danmuck/roomwire/internal/registry"
)

// State is the join state of one session.
type State int

const (
	StateUnjoined State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnjoined:
		return "unjoined"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IDSource produces message ids. Ids must be unique; order does not matter.
type IDSource func() protocol.U128

// Session is the per-connection state machine. It performs no I/O and is
// driven by a single goroutine.
type Session struct {
	identity string
	registry *registry.Registry
	nextID   IDSource

	state State
	room  protocol.U128
	owns  bool
}

func NewSession(identity string, reg *registry.Registry, ids IDSource) *Session {
	if ids == nil {
		ids = protocol.NewRandomU128
	}
	return &Session{
		identity: identity,
		registry: reg,
		nextID:   ids,
		state:    StateUnjoined,
	}
}

// Handle applies one request and returns the response to send.
func (s *Session) Handle(req protocol.Request) protocol.Response {
	if s.state == StateClosed {
		return protocol.Error{}
	}
	switch v := req.(type) {
	case protocol.Join:
		if s.state == StateJoined {
			return protocol.JoinReject{}
		}
		if !s.registry.TryRegister(s.identity) {
			return protocol.JoinReject{}
		}
		s.owns = true
		s.room = v.RoomID
		s.state = StateJoined
		return protocol.Joined{RoomID: v.RoomID}
	case protocol.Message:
		if s.state != StateJoined {
			return protocol.Error{}
		}
		return protocol.MsgSent{MessageID: s.nextID()}
	default:
		return protocol.Error{}
	}
}

// Close ends the session and releases the identity if this session holds it.
// A session whose join was rejected never releases a slot it does not own.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	if s.owns {
		s.registry.Unregister(s.identity)
		s.owns = false
	}
	s.state = StateClosed
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Identity() string {
	return s.identity
}

// Room returns the room of the accepted join, if any.
func (s *Session) Room() (protocol.U128, bool) {
	return s.room, s.state == StateJoined
}
