package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the wire format for message timestamps, always in UTC.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrMissingMessage is returned when an inbound frame has no message field.
var ErrMissingMessage = errors.New("missing message field")

// Inbound is the payload sent by a client over the chat socket.
type Inbound struct {
	Message  *string `json:"message"`
	Username string  `json:"username"`
}

// Outbound is pushed to every member of a room after a message is persisted.
type Outbound struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// HistoryMessage is one entry of a room's history as served over REST.
type HistoryMessage struct {
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is the body of GET /api/rooms/:room/messages.
type HistoryResponse struct {
	Room     string           `json:"room"`
	Messages []HistoryMessage `json:"messages"`
}

// RoomResponse describes a room in the directory.
type RoomResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// DecodeInbound parses a text frame. Malformed JSON, mistyped fields and a
// missing message all return an error.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode inbound: %w", err)
	}
	if in.Message == nil {
		return Inbound{}, ErrMissingMessage
	}
	return in, nil
}

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
