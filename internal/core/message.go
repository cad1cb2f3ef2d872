package core

import "time"

// MessageKind distinguishes who authored a message.
type MessageKind int

const (
	// KindHuman marks a message typed by a person.
	KindHuman MessageKind = iota
	// KindAI marks a reply generated by the inference backend.
	KindAI
	// KindSystem marks relay-generated notices, including inference failures.
	KindSystem
)

// String returns the wire name of the kind.
func (k MessageKind) String() string {
	switch k {
	case KindAI:
		return "ai"
	case KindSystem:
		return "system"
	default:
		return "human"
	}
}

// Message is the domain model for a chat message. Immutable once built.
// Seq is scoped per room and counts room-wide broadcasts only; notices
// delivered to a single client carry Seq 0.
type Message struct {
	Room      string
	From      string
	Text      string
	Kind      MessageKind
	Seq       uint64
	CreatedAt time.Time
}
