package core

import "sync"

// SessionState is the lifecycle stage of a connection.
type SessionState int

const (
	// StateConnecting is the state before the session joined its group.
	StateConnecting SessionState = iota
	// StateJoined means the session is a member of its broadcast group.
	StateJoined
	// StateClosed is terminal; a reconnect always creates a new session.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the live state of one client connection.
// It is owned by the transport; the core only joins it to groups and sends to it.
type Session struct {
	ID      string
	Room    string
	GroupID string

	events chan Event

	mu    sync.RWMutex
	state SessionState
}

// NewSession constructs a session for room with an outbound buffer of the given size.
func NewSession(id, room string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{
		ID:      id,
		Room:    room,
		GroupID: GroupName(room),
		events:  make(chan Event, buffer),
		state:   StateConnecting,
	}
}

// Events returns the outbound stream. It is closed when the session closes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// TrySend queues an event without blocking.
func (s *Session) TrySend(ev Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	select {
	case s.events <- ev:
		return nil
	default:
		return ErrBackpressure
	}
}

func (s *Session) markJoined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return false
	}
	s.state = StateJoined
	return true
}

// close moves the session to StateClosed and closes the event stream. Idempotent.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	close(s.events)
	return true
}
