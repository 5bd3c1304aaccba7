package core

import (
	"errors"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("a", "general", 2)
	if s.GroupID != "chat_general" {
		t.Fatalf("unexpected group id %q", s.GroupID)
	}
	if s.State() != StateConnecting {
		t.Fatalf("expected connecting, got %s", s.State())
	}

	if !s.markJoined() {
		t.Fatalf("markJoined should succeed from connecting")
	}
	if s.markJoined() {
		t.Fatalf("markJoined should not succeed twice")
	}
	if s.State() != StateJoined {
		t.Fatalf("expected joined, got %s", s.State())
	}

	if !s.close() {
		t.Fatalf("first close should succeed")
	}
	if s.close() {
		t.Fatalf("second close should be a no-op")
	}
	if s.markJoined() {
		t.Fatalf("closed session must not rejoin")
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed, got %s", s.State())
	}
	if _, ok := <-s.Events(); ok {
		t.Fatalf("event stream should be closed")
	}
}

func TestSessionTrySend(t *testing.T) {
	s := NewSession("a", "general", 1)

	if err := s.TrySend(Event{Message: Message{Text: "one"}}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := s.TrySend(Event{Message: Message{Text: "two"}}); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("expected ErrBackpressure, got %v", err)
	}
	if ev := mustEvent(t, s); ev.Message.Text != "one" {
		t.Fatalf("unexpected event %+v", ev)
	}

	s.close()
	if err := s.TrySend(Event{}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestNewSessionMinimumBuffer(t *testing.T) {
	s := NewSession("a", "general", 0)
	if err := s.TrySend(Event{}); err != nil {
		t.Fatalf("zero buffer should be raised to one: %v", err)
	}
}

func TestRoomNames(t *testing.T) {
	valid := []string{"general", "Room_1", "a-b", "x"}
	for _, name := range valid {
		if !ValidRoomName(name) {
			t.Errorf("%q should be valid", name)
		}
	}
	invalid := []string{"", "has space", "dot.name", "slash/name", "ünï"}
	for _, name := range invalid {
		if ValidRoomName(name) {
			t.Errorf("%q should be invalid", name)
		}
	}

	if got := NormalizeRoomName("  study group  "); got != "study_group" {
		t.Fatalf("unexpected normalized name %q", got)
	}
	if got := GroupName("lobby"); got != "chat_lobby" {
		t.Fatalf("unexpected group name %q", got)
	}
}
