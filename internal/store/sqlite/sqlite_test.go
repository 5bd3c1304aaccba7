package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/classes-lms/roomchat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrationsApplied(t *testing.T) {
	s := newTestStore(t)

	version, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected schema version 2, got %d", version)
	}
}

func TestCreateRoomConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "general")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID == 0 || room.Name != "general" {
		t.Fatalf("unexpected room: %+v", room)
	}

	if _, err := s.CreateRoom(ctx, "general"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetRoomByNameNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetRoomByName(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRoomsOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.CreateRoom(ctx, name); err != nil {
			t.Fatalf("CreateRoom %s failed: %v", name, err)
		}
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}

	expected := []string{"alpha", "mid", "zeta"}
	if len(rooms) != len(expected) {
		t.Fatalf("expected %d rooms, got %d", len(expected), len(rooms))
	}
	for i, room := range rooms {
		if room.Name != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, room.Name)
		}
	}
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	general, err := s.CreateRoom(ctx, "general")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	other, err := s.CreateRoom(ctx, "other")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	for i := range 3 {
		if _, err := s.AppendMessage(ctx, general.ID, "alice", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}
	if _, err := s.AppendMessage(ctx, other.ID, "bob", "elsewhere"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	msgs, err := s.ListMessages(ctx, general.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Body != fmt.Sprintf("msg-%d", i) || msg.Sender != "alice" || msg.RoomID != general.ID {
			t.Errorf("unexpected message at %d: %+v", i, msg)
		}
	}

	empty, err := s.ListMessages(ctx, 9999)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no messages, got %d", len(empty))
	}
}

func TestAppendMessageClampsClockSkew(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "skew")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	s.now = func() time.Time {
		next := clock[0]
		clock = clock[1:]
		return next
	}

	for _, body := range []string{"first", "second", "third"} {
		if _, err := s.AppendMessage(ctx, room.ID, "alice", body); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := s.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	order := []string{"first", "second", "third"}
	for i, msg := range msgs {
		if msg.Body != order[i] {
			t.Fatalf("expected %s at %d, got %s", order[i], i, msg.Body)
		}
	}
	if !msgs[1].CreatedAt.Equal(base) {
		t.Fatalf("expected clamped timestamp %v, got %v", base, msgs[1].CreatedAt)
	}
}

func TestConcurrentAppendsKeepTimestampOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "busy")
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	const writers, perWriter = 8, 10
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range perWriter {
				if _, err := s.AppendMessage(ctx, room.ID, fmt.Sprintf("w%d", w), fmt.Sprintf("%d", i)); err != nil {
					t.Errorf("AppendMessage failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	msgs, err := s.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != writers*perWriter {
		t.Fatalf("expected %d messages, got %d", writers*perWriter, len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("timestamps out of order at %d: %v before %v", i, msgs[i].CreatedAt, msgs[i-1].CreatedAt)
		}
		if msgs[i].ID < msgs[i-1].ID {
			t.Fatalf("ids out of order at %d", i)
		}
	}
}

func TestGetUserByUsernameIgnoresCase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "alice", "hash"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user, err := s.GetUserByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected canonical username alice, got %s", user.Username)
	}

	if _, err := s.CreateUser(ctx, "Alice", "hash"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for case-variant username, got %v", err)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
