package core

import (
	"sync"
	"time"
)

// Client is one live connection as seen by the relay core. The ID is unique
// per connect and never reused. The room and gone fields are owned by the
// hub goroutine and must not be touched elsewhere.
type Client struct {
	ID          string
	Name        string
	ConnectedAt time.Time

	Commands chan *Command
	Events   chan *Event

	room string
	gone bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:          id,
		Name:        name,
		ConnectedAt: time.Now(),
		Commands:    make(chan *Command, 8),
		Events:      make(chan *Event, 32),
		done:        make(chan struct{}),
	}
}

// close releases the client's channels. Called by the hub exactly once,
// after the client has been removed from all shared state; no further
// events can be sent to it at that point.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		close(c.Events)
	})
}
