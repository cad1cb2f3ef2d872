package core

// room groups clients subscribed to the same channel. All access happens on
// the hub goroutine, so no locking is needed. seq counts room-wide
// broadcasts and is assigned in the same serialized section that resolves
// the broadcast targets.
type room struct {
	name    string
	clients map[*Client]struct{}
	seq     uint64
}

// newRoom constructs a room with no clients.
func newRoom(name string) *room {
	return &room{
		name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// add inserts a client into the room. Returns true if newly added.
func (r *room) add(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// remove deletes a client from the room. Returns true if removed.
func (r *room) remove(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// nextSeq returns the next per-room sequence number.
func (r *room) nextSeq() uint64 {
	r.seq++
	return r.seq
}

// members returns a snapshot of member display names. Callers must not
// assume it reflects later mutations.
func (r *room) members() []string {
	names := make([]string, 0, len(r.clients))
	for c := range r.clients {
		names = append(names, c.Name)
	}
	return names
}

// broadcast sends an event to all clients currently in the room. Delivery
// is best-effort per client: a slow or dying consumer is skipped and never
// blocks the others.
func (r *room) broadcast(ev *Event) {
	for client := range r.clients {
		select {
		case client.Events <- ev:
		default:
			// Drop if slow consumer.
		}
	}
}

// broadcastExcept is broadcast minus one client, used for presence events
// where the subject gets a dedicated confirmation instead.
func (r *room) broadcastExcept(skip *Client, ev *Event) {
	for client := range r.clients {
		if client == skip {
			continue
		}
		select {
		case client.Events <- ev:
		default:
		}
	}
}

// empty returns true if no clients are in the room.
func (r *room) empty() bool {
	return len(r.clients) == 0
}
