package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandHello introduces the client and sets its display name.
	CommandHello CommandKind = iota
	// CommandJoinRoom subscribes the client to a room, leaving its current one.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from its current room.
	CommandLeaveRoom
	// CommandSendMessage delivers a chat message to the client's room.
	CommandSendMessage
)

// Command represents an action requested by a client. Room and User are
// only meaningful for joins; Text only for messages.
type Command struct {
	Kind CommandKind
	Room string
	User string
	Text string
}
