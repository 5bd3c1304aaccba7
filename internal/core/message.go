package core

import (
	"time"

	"github.com/classes-lms/roomchat/internal/store"
)

// AnonymousSender replaces an empty display name.
const AnonymousSender = "Anonymous"

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	Room      string
	From      string
	Text      string
	CreatedAt time.Time
}

// Incoming is a decoded client payload before validation.
type Incoming struct {
	Username string
	Text     string
}

func messageFromStore(room string, m *store.Message) Message {
	return Message{
		ID:        m.ID,
		Room:      room,
		From:      m.Sender,
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
