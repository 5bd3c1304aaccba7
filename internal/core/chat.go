package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/classes-lms/roomchat/internal/store"
)

// IdentityLookup resolves a display name to a registered account.
type IdentityLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
}

// MessageSink receives every message after it was persisted and fanned out.
type MessageSink interface {
	Publish(ctx context.Context, msg Message) error
}

// Option configures a Chat.
type Option func(*Chat)

// WithIdentityLookup normalises sender labels against registered accounts.
func WithIdentityLookup(l IdentityLookup) Option {
	return func(c *Chat) { c.identities = l }
}

// WithSink mirrors persisted messages to an external sink.
func WithSink(s MessageSink) Option {
	return func(c *Chat) { c.sink = s }
}

// Chat coordinates sessions, broadcast groups and persistence.
type Chat struct {
	registry   *RoomRegistry
	rooms      store.RoomStore
	messages   store.MessageStore
	groups     *Groups
	identities IdentityLookup
	sink       MessageSink
	log        *zerolog.Logger
}

// NewChat wires a chat service. groups is shared by every session the caller accepts.
func NewChat(rooms store.RoomStore, messages store.MessageStore, groups *Groups, logger *zerolog.Logger, opts ...Option) *Chat {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	c := &Chat{
		registry: NewRoomRegistry(rooms),
		rooms:    rooms,
		messages: messages,
		groups:   groups,
		log:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect registers the session in its room's group and marks it joined.
// After Shutdown the session is closed instead.
func (c *Chat) Connect(s *Session) {
	if !c.groups.Join(s.GroupID, s) && s.State() == StateClosed {
		c.log.Debug().Str("session_id", s.ID).Str("room", s.Room).Msg("session rejected after shutdown")
		return
	}
	s.markJoined()
	c.log.Debug().Str("session_id", s.ID).Str("room", s.Room).Int("members", c.groups.Size(s.GroupID)).Msg("session joined")
}

// Disconnect removes the session from its group and closes it. Safe to call repeatedly.
func (c *Chat) Disconnect(s *Session) {
	left := c.groups.Leave(s.GroupID, s)
	if s.close() || left {
		c.log.Debug().Str("session_id", s.ID).Str("room", s.Room).Msg("session left")
	}
}

// Send validates an inbound message, persists it and fans it out to the room.
// Dropped input returns (nil, nil); only storage failures return an error.
func (c *Chat) Send(ctx context.Context, s *Session, in Incoming) (*Message, error) {
	username := in.Username
	if username == "" {
		username = AnonymousSender
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		c.log.Debug().Str("session_id", s.ID).Str("room", s.Room).Msg("empty message dropped")
		return nil, nil
	}

	sender := c.resolveSender(ctx, username)

	room, err := c.registry.GetOrCreate(ctx, s.Room)
	if err != nil {
		return nil, fmt.Errorf("resolve room %q: %w", s.Room, err)
	}

	stored, err := c.messages.AppendMessage(ctx, room.ID, sender, text)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	msg := messageFromStore(room.Name, stored)
	res := c.groups.Deliver(s.GroupID, Event{Room: room.Name, Message: msg})
	c.log.Debug().
		Str("room", room.Name).
		Int64("message_id", msg.ID).
		Int("sent", res.Sent).
		Int("dropped", res.Dropped).
		Msg("message delivered")

	if c.sink != nil {
		if err := c.sink.Publish(ctx, msg); err != nil {
			c.log.Warn().Err(err).Str("room", room.Name).Int64("message_id", msg.ID).Msg("mirror message")
		}
	}

	return &msg, nil
}

func (c *Chat) resolveSender(ctx context.Context, username string) string {
	if c.identities == nil || username == AnonymousSender {
		return username
	}
	user, err := c.identities.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Str("username", username).Msg("identity lookup failed")
		}
		return username
	}
	return user.Username
}

// History returns the full message log of an existing room, oldest first.
func (c *Chat) History(ctx context.Context, roomName string) ([]Message, error) {
	room, err := c.registry.Lookup(ctx, roomName)
	if err != nil {
		return nil, err
	}

	stored, err := c.messages.ListMessages(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, messageFromStore(room.Name, m))
	}
	return out, nil
}

// Rooms lists every known room ordered by name.
func (c *Chat) Rooms(ctx context.Context) ([]*store.Room, error) {
	rooms, err := c.rooms.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// CreateRoom normalises raw and gets or creates the room. created is false if it already existed.
func (c *Chat) CreateRoom(ctx context.Context, raw string) (room *store.Room, created bool, err error) {
	name := NormalizeRoomName(raw)
	if !ValidRoomName(name) {
		return nil, false, ErrInvalidRoomName
	}

	return c.registry.Ensure(ctx, name)
}

// Shutdown closes every connected session.
func (c *Chat) Shutdown() int {
	return c.groups.CloseAll()
}
