package core

// Event is pushed to every member of a broadcast group.
type Event struct {
	Room    string
	Message Message
}
