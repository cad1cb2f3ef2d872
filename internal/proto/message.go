package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	User     string `json:"user"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests to join a specific room, optionally (re)setting the
// display name.
type JoinData struct {
	Room string `json:"room"`
	User string `json:"user,omitempty"`
}

// MsgData is a chat message for the client's current room.
type MsgData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is emitted to room members for every delivered message.
type EventMessage struct {
	User string `json:"user"`
	Room string `json:"room"`
	Text string `json:"text"`
	Kind string `json:"kind"`
	Seq  uint64 `json:"seq,omitempty"`
	TS   int64  `json:"ts"`
}

// EventJoined confirms a join to the joining client.
type EventJoined struct {
	Room    string   `json:"room"`
	Members []string `json:"members"`
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
