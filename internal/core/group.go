package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// DeliveryResult reports how a fan-out went.
type DeliveryResult struct {
	Sent    int
	Dropped int
}

// Groups is the in-memory registry of broadcast groups.
// One instance is owned by the component accepting connections and shared with every session.
type Groups struct {
	mu      sync.RWMutex
	members map[string]map[*Session]struct{}
	closed  bool
	log     *zerolog.Logger
}

// NewGroups constructs an empty registry.
func NewGroups(logger *zerolog.Logger) *Groups {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Groups{
		members: make(map[string]map[*Session]struct{}),
		log:     logger,
	}
}

// Join adds s to the group. Returns true if newly added.
// Once CloseAll has run, s is closed instead of added.
func (g *Groups) Join(groupID string, s *Session) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		s.close()
		return false
	}

	set, ok := g.members[groupID]
	if !ok {
		set = make(map[*Session]struct{})
		g.members[groupID] = set
	}
	if _, exists := set[s]; exists {
		return false
	}
	set[s] = struct{}{}
	return true
}

// Leave removes s from the group. Returns true if removed. Empty groups are dropped.
func (g *Groups) Leave(groupID string, s *Session) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	set, ok := g.members[groupID]
	if !ok {
		return false
	}
	if _, exists := set[s]; !exists {
		return false
	}
	delete(set, s)
	if len(set) == 0 {
		delete(g.members, groupID)
	}
	return true
}

// Deliver sends ev to every current member independently.
// A member that is closed or whose buffer is full is skipped and not retried.
func (g *Groups) Deliver(groupID string, ev Event) DeliveryResult {
	g.mu.RLock()
	targets := make([]*Session, 0, len(g.members[groupID]))
	for s := range g.members[groupID] {
		targets = append(targets, s)
	}
	g.mu.RUnlock()

	var res DeliveryResult
	for _, s := range targets {
		if err := s.TrySend(ev); err != nil {
			res.Dropped++
			g.log.Debug().Err(err).Str("group", groupID).Str("session_id", s.ID).Msg("delivery dropped")
			continue
		}
		res.Sent++
	}
	return res
}

// Size returns the number of members in the group.
func (g *Groups) Size(groupID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members[groupID])
}

// CloseAll closes every member session and empties the registry.
// Later joins are refused.
func (g *Groups) CloseAll() int {
	g.mu.Lock()
	g.closed = true
	all := g.members
	g.members = make(map[string]map[*Session]struct{})
	g.mu.Unlock()

	closed := 0
	for _, set := range all {
		for s := range set {
			if s.close() {
				closed++
			}
		}
	}
	return closed
}
