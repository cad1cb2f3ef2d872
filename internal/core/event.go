package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage notifies clients about a chat message in a room.
	EventRoomMessage EventKind = iota
	// EventRoomJoined confirms a join to the joining client and carries a
	// snapshot of the room's members.
	EventRoomJoined
	// EventUserJoined notifies a room that a user joined.
	EventUserJoined
	// EventUserLeft notifies a room that a user left.
	EventUserLeft
	// EventError notifies a single client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Members []string // for EventRoomJoined
	Message Message
	Error   *CoreError
}
