package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/classes-lms/roomchat/internal/store"
)

func mustEvent(t *testing.T, s *Session) Event {
	t.Helper()

	select {
	case ev, ok := <-s.Events():
		if !ok {
			t.Fatalf("session %s closed before event", s.ID)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event for session %s not received", s.ID)
	}
	return Event{}
}

func mustNoEvent(t *testing.T, s *Session) {
	t.Helper()

	select {
	case ev, ok := <-s.Events():
		if ok {
			t.Fatalf("unexpected event for session %s: %+v", s.ID, ev)
		}
	default:
	}
}

// memStore is an in-memory RoomStore, MessageStore and IdentityLookup.
type memStore struct {
	mu       sync.Mutex
	rooms    map[string]*store.Room
	messages map[int64][]*store.Message
	users    map[string]*store.User
	nextID   int64

	createCalls int
	failAppend  error
	// beforeCreate runs before CreateRoom inserts; used to simulate a racing writer.
	beforeCreate func(name string)
}

func newMemStore() *memStore {
	return &memStore{
		rooms:    make(map[string]*store.Room),
		messages: make(map[int64][]*store.Message),
		users:    make(map[string]*store.User),
	}
}

func (m *memStore) CreateRoom(_ context.Context, name string) (*store.Room, error) {
	if m.beforeCreate != nil {
		m.beforeCreate(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if _, ok := m.rooms[name]; ok {
		return nil, store.ErrConflict
	}
	m.nextID++
	room := &store.Room{ID: m.nextID, Name: name, CreatedAt: time.Now().UTC()}
	m.rooms[name] = room
	return room, nil
}

func (m *memStore) GetRoomByName(_ context.Context, name string) (*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return room, nil
}

func (m *memStore) ListRooms(_ context.Context) ([]*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*store.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) AppendMessage(_ context.Context, roomID int64, sender, body string) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend != nil {
		return nil, m.failAppend
	}
	m.nextID++
	msg := &store.Message{ID: m.nextID, RoomID: roomID, Sender: sender, Body: body, CreatedAt: time.Now().UTC()}
	m.messages[roomID] = append(m.messages[roomID], msg)
	return msg, nil
}

func (m *memStore) ListMessages(_ context.Context, roomID int64) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*store.Message(nil), m.messages[roomID]...), nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msgs := range m.messages {
		n += len(msgs)
	}
	return n
}

var errStoreDown = errors.New("store down")

type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordingSink) Publish(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}
