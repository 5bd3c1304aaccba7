package core

import "errors"

var (
	// ErrRoomNotFound is returned by read paths that must not create rooms.
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidRoomName is returned when a name does not match [A-Za-z0-9_-]+.
	ErrInvalidRoomName = errors.New("invalid room name")
	// ErrSessionClosed is returned when sending to a session that has disconnected.
	ErrSessionClosed = errors.New("session closed")
	// ErrBackpressure is returned when a session's outbound buffer is full.
	ErrBackpressure = errors.New("backpressure")
)
