package core

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/classes-lms/roomchat/internal/store"
)

// RoomRegistry resolves room names to persisted rooms, creating them on first use.
type RoomRegistry struct {
	store store.RoomStore
	sf    singleflight.Group
}

// NewRoomRegistry builds a registry backed by st.
func NewRoomRegistry(st store.RoomStore) *RoomRegistry {
	return &RoomRegistry{store: st}
}

// GetOrCreate returns the room named name, inserting it if absent.
// Concurrent callers in this process share one lookup; callers racing from
// elsewhere are reconciled by the store's uniqueness constraint.
func (r *RoomRegistry) GetOrCreate(ctx context.Context, name string) (*store.Room, error) {
	// The shared call must not fail because the first caller went away.
	sharedCtx := context.WithoutCancel(ctx)
	v, err, _ := r.sf.Do(name, func() (any, error) {
		room, _, err := r.getOrCreate(sharedCtx, name)
		return room, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.Room), nil
}

// Ensure is GetOrCreate without call sharing. created is true only for the
// caller whose insert produced the row.
func (r *RoomRegistry) Ensure(ctx context.Context, name string) (room *store.Room, created bool, err error) {
	return r.getOrCreate(ctx, name)
}

func (r *RoomRegistry) getOrCreate(ctx context.Context, name string) (*store.Room, bool, error) {
	room, err := r.store.GetRoomByName(ctx, name)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup room: %w", err)
	}

	room, err = r.store.CreateRoom(ctx, name)
	if err == nil {
		return room, true, nil
	}
	if !errors.Is(err, store.ErrConflict) {
		return nil, false, fmt.Errorf("create room: %w", err)
	}

	// Lost the insert race; the winner's row is now visible.
	room, err = r.store.GetRoomByName(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("lookup room after conflict: %w", err)
	}
	return room, false, nil
}

// Lookup returns an existing room without creating it.
func (r *RoomRegistry) Lookup(ctx context.Context, name string) (*store.Room, error) {
	room, err := r.store.GetRoomByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("lookup room: %w", err)
	}
	return room, nil
}
