package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HubOptions tunes relay behavior.
type HubOptions struct {
	// Assistant is the display name AI replies are attributed to. One
	// synthetic identity per process.
	Assistant string
	// InferenceTimeout bounds each request to the inference backend.
	InferenceTimeout time.Duration
	// MaxMessageBytes rejects oversized message bodies before broadcast.
	MaxMessageBytes int
}

const (
	defaultAssistant        = "AI Assistant"
	defaultInferenceTimeout = 30 * time.Second
	defaultMaxMessageBytes  = 4096
)

// RoomInfo is a point-in-time view of one room for the REST surface.
type RoomInfo struct {
	UserCount int      `json:"user_count"`
	Users     []string `json:"users"`
}

// clientCommand pairs a command with the client that issued it.
type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub owns every room and live client. A single Run goroutine drains the
// registration, command, inference-result and query channels, so all shared
// chat state is mutated from one place and critical sections never span
// I/O. The only long-running work, talking to the inference backend, runs
// on detached goroutines and re-enters through the results channel.
type Hub struct {
	log      *zerolog.Logger
	detector Detector
	invoker  Invoker

	assistant        string
	inferenceTimeout time.Duration
	maxMessageBytes  int

	register   chan *Client
	unregister chan *Client
	inbound    chan clientCommand
	results    chan inferenceResult
	queries    chan chan map[string]RoomInfo
	done       chan struct{}

	// Owned by the Run goroutine.
	rooms   map[string]*room
	clients map[string]*Client
}

// NewHub creates a hub. A nil invoker disables AI dispatch; trigger
// detection still runs but matched messages produce no inference request.
func NewHub(logger *zerolog.Logger, detector Detector, invoker Invoker, opts HubOptions) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Assistant == "" {
		opts.Assistant = defaultAssistant
	}
	if opts.InferenceTimeout <= 0 {
		opts.InferenceTimeout = defaultInferenceTimeout
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = defaultMaxMessageBytes
	}
	return &Hub{
		log:              logger,
		detector:         detector,
		invoker:          invoker,
		assistant:        opts.Assistant,
		inferenceTimeout: opts.InferenceTimeout,
		maxMessageBytes:  opts.MaxMessageBytes,
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		inbound:          make(chan clientCommand),
		results:          make(chan inferenceResult),
		queries:          make(chan chan map[string]RoomInfo),
		done:             make(chan struct{}),
		rooms:            make(map[string]*room),
		clients:          make(map[string]*Client),
	}
}

// RegisterClient adds a client to the hub and starts pumping its commands.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes a client, pruning its room membership. Safe to
// call more than once; repeats are no-ops.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Rooms returns a snapshot of current rooms and their members.
func (h *Hub) Rooms(ctx context.Context) map[string]RoomInfo {
	reply := make(chan map[string]RoomInfo, 1)
	select {
	case h.queries <- reply:
	case <-h.done:
		return map[string]RoomInfo{}
	case <-ctx.Done():
		return map[string]RoomInfo{}
	}
	select {
	case snap := <-reply:
		return snap
	case <-ctx.Done():
		return map[string]RoomInfo{}
	}
}

// Run drains hub channels until ctx is cancelled. Must be running before
// clients are registered.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.handleRegister(ctx, c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case in := <-h.inbound:
			h.handleCommand(ctx, in.client, in.cmd)
		case res := <-h.results:
			h.handleResult(res)
		case reply := <-h.queries:
			reply <- h.snapshotRooms()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		return
	}
	h.clients[c.ID] = c
	h.log.Info().Str("client_id", c.ID).Msg("client registered")

	// One pump per connection: forwards the client's commands into the
	// single hub loop and dies with the client or the hub.
	go func() {
		for {
			select {
			case cmd := <-c.Commands:
				select {
				case h.inbound <- clientCommand{client: c, cmd: cmd}:
				case <-c.done:
					return
				case <-ctx.Done():
					return
				}
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Hub) handleUnregister(c *Client) {
	if _, exists := h.clients[c.ID]; !exists {
		return
	}
	delete(h.clients, c.ID)
	h.leaveCurrentRoom(c)
	c.gone = true
	c.close()
	h.log.Info().Str("client_id", c.ID).Msg("client unregistered")
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	if c.gone || cmd == nil {
		return
	}
	switch cmd.Kind {
	case CommandHello:
		if cmd.User != "" {
			c.Name = cmd.User
		}
	case CommandJoinRoom:
		h.handleJoin(c, cmd)
	case CommandLeaveRoom:
		h.handleLeave(c)
	case CommandSendMessage:
		h.handleMessage(ctx, c, cmd)
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) {
	if cmd.Room == "" {
		h.sendEvent(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "room is required")})
		return
	}
	if cmd.User != "" {
		c.Name = cmd.User
	}

	// Moving between rooms is atomic from the hub's point of view: the old
	// membership is gone before the new one exists, all within one handler.
	if c.room == cmd.Room {
		h.sendEvent(c, &Event{Kind: EventRoomJoined, Room: c.room, Members: h.rooms[c.room].members()})
		return
	}
	h.leaveCurrentRoom(c)

	rm := h.rooms[cmd.Room]
	if rm == nil {
		rm = newRoom(cmd.Room)
		h.rooms[cmd.Room] = rm
	}
	rm.add(c)
	c.room = cmd.Room

	rm.broadcastExcept(c, &Event{Kind: EventUserJoined, Room: rm.name, User: c.Name})
	h.sendEvent(c, &Event{Kind: EventRoomJoined, Room: rm.name, Members: rm.members()})
	h.sendEvent(c, &Event{
		Kind: EventRoomMessage,
		Room: rm.name,
		Message: Message{
			Room:      rm.name,
			From:      "System",
			Text:      "Welcome to " + rm.name + ", " + c.Name + "!",
			Kind:      KindSystem,
			CreatedAt: time.Now(),
		},
	})
	h.log.Info().Str("client_id", c.ID).Str("user", c.Name).Str("room", rm.name).Int("members", len(rm.clients)).Msg("client joined room")
}

func (h *Hub) handleLeave(c *Client) {
	// Leaving while not in a room is a no-op, mirroring the directory's
	// leave-on-non-member contract.
	h.leaveCurrentRoom(c)
}

// leaveCurrentRoom removes c from its room, tells the remaining members and
// garbage-collects the room when it empties.
func (h *Hub) leaveCurrentRoom(c *Client) {
	if c.room == "" {
		return
	}
	rm := h.rooms[c.room]
	c.room = ""
	if rm == nil {
		return
	}
	if !rm.remove(c) {
		return
	}
	rm.broadcast(&Event{Kind: EventUserLeft, Room: rm.name, User: c.Name})
	if rm.empty() {
		delete(h.rooms, rm.name)
		h.log.Debug().Str("room", rm.name).Msg("room emptied, removed")
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *Client, cmd *Command) {
	if c.room == "" {
		h.sendEvent(c, &Event{Kind: EventError, Error: coreError(ErrCodeNotInRoom, "join a room before sending messages")})
		return
	}
	text := cmd.Text
	if len(text) > h.maxMessageBytes {
		h.sendEvent(c, &Event{Kind: EventError, Error: coreError(ErrCodeMalformedMessage, "message too long")})
		return
	}
	if strings.TrimSpace(text) == "" {
		h.sendEvent(c, &Event{Kind: EventError, Error: coreError(ErrCodeMalformedMessage, "message cannot be empty")})
		return
	}

	rm := h.rooms[c.room]
	msg := Message{
		Room:      rm.name,
		From:      c.Name,
		Text:      text,
		Kind:      KindHuman,
		Seq:       rm.nextSeq(),
		CreatedAt: time.Now(),
	}
	rm.broadcast(&Event{Kind: EventRoomMessage, Room: rm.name, Message: msg})

	prompt, triggered := h.detector.Detect(text)
	if !triggered || h.invoker == nil {
		return
	}
	p := pendingInference{
		id:        uuid.NewString(),
		room:      rm.name,
		prompt:    prompt,
		startedAt: time.Now(),
	}
	h.log.Info().Str("request_id", p.id).Str("room", p.room).Str("user", c.Name).Msg("dispatching inference request")
	h.dispatchInference(ctx, p)
}

// handleResult turns a resolved inference into exactly one room message:
// the reply on success, a user-safe system notice on failure.
func (h *Hub) handleResult(res inferenceResult) {
	rm := h.rooms[res.room]
	if rm == nil {
		// Everyone left and the room was collected while the model was
		// thinking. Nothing to deliver to.
		h.log.Debug().Str("request_id", res.id).Str("room", res.room).Msg("dropping inference result for empty room")
		return
	}

	msg := Message{
		Room:      rm.name,
		CreatedAt: time.Now(),
	}
	if res.err != nil {
		h.log.Warn().Err(res.err).Str("request_id", res.id).Str("room", res.room).Dur("elapsed", res.elapsed).Msg("inference failed")
		msg.From = "System"
		msg.Text = failureNotice(res.err)
		msg.Kind = KindSystem
	} else {
		h.log.Info().Str("request_id", res.id).Str("room", res.room).Dur("elapsed", res.elapsed).Msg("inference completed")
		msg.From = h.assistant
		msg.Text = res.text
		msg.Kind = KindAI
	}
	msg.Seq = rm.nextSeq()
	rm.broadcast(&Event{Kind: EventRoomMessage, Room: rm.name, Message: msg})
}

func (h *Hub) snapshotRooms() map[string]RoomInfo {
	snap := make(map[string]RoomInfo, len(h.rooms))
	for name, rm := range h.rooms {
		users := rm.members()
		snap[name] = RoomInfo{UserCount: len(users), Users: users}
	}
	return snap
}

// sendEvent delivers an event to a single client, dropping if its buffer
// is full. Same best-effort contract as room broadcast.
func (h *Hub) sendEvent(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
