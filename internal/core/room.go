package core

import (
	"regexp"
	"strings"
)

var roomNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// GroupName derives the broadcast group identifier for a room.
func GroupName(room string) string {
	return "chat_" + room
}

// ValidRoomName reports whether name is usable in a connection path.
func ValidRoomName(name string) bool {
	return roomNamePattern.MatchString(name)
}

// NormalizeRoomName trims user input and replaces spaces with underscores.
func NormalizeRoomName(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")
}
