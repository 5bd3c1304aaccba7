package core

import (
	"fmt"
	"testing"
)

func TestGroupsJoinLeaveIdempotent(t *testing.T) {
	groups := NewGroups(nil)
	s := NewSession("a", "general", 4)

	if !groups.Join(s.GroupID, s) {
		t.Fatalf("first join should add the session")
	}
	if groups.Join(s.GroupID, s) {
		t.Fatalf("second join should be a no-op")
	}
	if groups.Size(s.GroupID) != 1 {
		t.Fatalf("expected 1 member, got %d", groups.Size(s.GroupID))
	}

	if !groups.Leave(s.GroupID, s) {
		t.Fatalf("first leave should remove the session")
	}
	if groups.Leave(s.GroupID, s) {
		t.Fatalf("second leave should be a no-op")
	}
	if groups.Leave("chat_unknown", s) {
		t.Fatalf("leaving an unknown group should be a no-op")
	}
	if groups.Size(s.GroupID) != 0 {
		t.Fatalf("expected empty group, got %d", groups.Size(s.GroupID))
	}
}

func TestGroupsDeliverToAllMembers(t *testing.T) {
	groups := NewGroups(nil)

	const n = 5
	sessions := make([]*Session, 0, n)
	for i := range n {
		s := NewSession(fmt.Sprintf("s%d", i), "general", 4)
		groups.Join(s.GroupID, s)
		sessions = append(sessions, s)
	}

	res := groups.Deliver(GroupName("general"), Event{Room: "general", Message: Message{Text: "hi"}})
	if res.Sent != n || res.Dropped != 0 {
		t.Fatalf("unexpected delivery result: %+v", res)
	}
	for _, s := range sessions {
		if ev := mustEvent(t, s); ev.Message.Text != "hi" {
			t.Fatalf("unexpected event for %s: %+v", s.ID, ev)
		}
	}
}

func TestGroupsLeftMemberExcluded(t *testing.T) {
	groups := NewGroups(nil)
	a := NewSession("a", "general", 4)
	b := NewSession("b", "general", 4)
	groups.Join(a.GroupID, a)
	groups.Join(b.GroupID, b)

	groups.Leave(b.GroupID, b)

	for i := range 2 {
		res := groups.Deliver(a.GroupID, Event{Message: Message{Text: fmt.Sprint(i)}})
		if res.Sent != 1 {
			t.Fatalf("expected delivery to 1 member, got %+v", res)
		}
	}
	mustEvent(t, a)
	mustEvent(t, a)
	mustNoEvent(t, b)
}

func TestGroupsIsolation(t *testing.T) {
	groups := NewGroups(nil)
	alpha := NewSession("a", "alpha", 4)
	beta := NewSession("b", "beta", 4)
	groups.Join(alpha.GroupID, alpha)
	groups.Join(beta.GroupID, beta)

	groups.Deliver("chat_beta", Event{Message: Message{Text: "for beta"}})

	mustNoEvent(t, alpha)
	if ev := mustEvent(t, beta); ev.Message.Text != "for beta" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestGroupsDeliverIsolatesFailures(t *testing.T) {
	groups := NewGroups(nil)
	full := NewSession("full", "general", 1)
	closed := NewSession("closed", "general", 1)
	healthy := NewSession("healthy", "general", 4)
	for _, s := range []*Session{full, closed, healthy} {
		groups.Join(s.GroupID, s)
	}

	if err := full.TrySend(Event{}); err != nil {
		t.Fatalf("prefill failed: %v", err)
	}
	closed.close()

	res := groups.Deliver(healthy.GroupID, Event{Message: Message{Text: "hi"}})
	if res.Sent != 1 || res.Dropped != 2 {
		t.Fatalf("unexpected delivery result: %+v", res)
	}
	if ev := mustEvent(t, healthy); ev.Message.Text != "hi" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestGroupsCloseAll(t *testing.T) {
	groups := NewGroups(nil)
	a := NewSession("a", "one", 1)
	b := NewSession("b", "two", 1)
	groups.Join(a.GroupID, a)
	groups.Join(b.GroupID, b)

	if n := groups.CloseAll(); n != 2 {
		t.Fatalf("expected 2 closed sessions, got %d", n)
	}
	if a.State() != StateClosed || b.State() != StateClosed {
		t.Fatalf("sessions should be closed")
	}
	if groups.Size(a.GroupID) != 0 {
		t.Fatalf("registry should be empty")
	}
}

func TestGroupsJoinAfterCloseAll(t *testing.T) {
	groups := NewGroups(nil)
	groups.CloseAll()

	s := NewSession("late", "general", 1)
	if groups.Join(s.GroupID, s) {
		t.Fatalf("join after CloseAll should be refused")
	}
	if s.State() != StateClosed {
		t.Fatalf("late session should be closed, got %s", s.State())
	}
	if groups.Size(s.GroupID) != 0 {
		t.Fatalf("registry should stay empty")
	}
}
