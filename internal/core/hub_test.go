package core

import (
	"context"
	"testing"
	"time"

	"github.com/priyankbansal/ollamachat/internal/ai"
)

func TestHubJoinBroadcastAndLeave(t *testing.T) {
	hub := startHub(t, nil, HubOptions{})

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")

	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	joinedEv := mustEvent(t, alice.Events, EventRoomJoined)
	if joinedEv.Room != "general" || len(joinedEv.Members) != 1 {
		t.Fatalf("unexpected joined event: %+v", joinedEv)
	}

	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}

	// Alice should see bob's presence event.
	joinEv := mustEvent(t, alice.Events, EventUserJoined)
	if joinEv.User != "bob" || joinEv.Room != "general" {
		t.Fatalf("unexpected join event: %+v", joinEv)
	}

	// Broadcast message from Alice.
	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "hi"}

	msg := mustMessage(t, bob.Events, KindHuman)
	if msg.Text != "hi" || msg.Room != "general" || msg.From != "alice" || msg.Seq != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}

	// Alice leaves; Bob should see user_left.
	alice.Commands <- &Command{Kind: CommandLeaveRoom}
	leftEv := mustEvent(t, bob.Events, EventUserLeft)
	if leftEv.User != "alice" || leftEv.Room != "general" {
		t.Fatalf("unexpected leave event: %+v", leftEv)
	}
}

func TestHubHelloRenamePropagatesToBroadcasts(t *testing.T) {
	hub := startHub(t, nil, HubOptions{})

	// No display name at registration; the connection ID stands in until a
	// hello arrives.
	alice := NewClient("conn-a", "")
	bob := NewClient("conn-b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandHello, User: "alice"}
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, bob.Events, EventRoomJoined)

	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "hi"}
	msg := mustMessage(t, bob.Events, KindHuman)
	if msg.From != "alice" {
		t.Fatalf("hello name not applied to broadcast: %+v", msg)
	}

	// A later hello renames in place and later broadcasts carry it.
	alice.Commands <- &Command{Kind: CommandHello, User: "alice-2"}
	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "again"}
	msg = mustMessage(t, bob.Events, KindHuman)
	if msg.From != "alice-2" {
		t.Fatalf("rename not applied to later broadcast: %+v", msg)
	}
}

func TestHubSendWithoutJoinProducesError(t *testing.T) {
	hub := startHub(t, nil, HubOptions{})

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "hi"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room error, got %+v", ev)
	}
	// Dropped locally, never broadcast.
	noEvent(t, alice.Events, EventRoomMessage, 100*time.Millisecond)
}

func TestHubRejectsMalformedMessages(t *testing.T) {
	hub := startHub(t, nil, HubOptions{MaxMessageBytes: 16})

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, alice.Events, EventRoomJoined)

	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "   "}
	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeMalformedMessage {
		t.Fatalf("expected malformed_message error, got %+v", ev)
	}

	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "this message is longer than sixteen bytes"}
	ev = mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeMalformedMessage {
		t.Fatalf("expected malformed_message error, got %+v", ev)
	}
}

func TestHubRejoinMovesBetweenRooms(t *testing.T) {
	hub := startHub(t, nil, HubOptions{})

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, bob.Events, EventRoomJoined)

	// Alice moves; bob observes the departure from the old room.
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "tech"}
	leftEv := mustEvent(t, bob.Events, EventUserLeft)
	if leftEv.User != "alice" || leftEv.Room != "general" {
		t.Fatalf("unexpected leave event: %+v", leftEv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap := hub.Rooms(ctx)

	// The single-room invariant: alice appears in tech and nowhere else.
	if got := snap["tech"]; got.UserCount != 1 || got.Users[0] != "alice" {
		t.Fatalf("unexpected tech room: %+v", got)
	}
	for _, u := range snap["general"].Users {
		if u == "alice" {
			t.Fatalf("alice still a member of general: %+v", snap)
		}
	}
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := startHub(t, nil, HubOptions{})

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, bob.Events, EventRoomJoined)

	hub.UnregisterClient(alice)
	hub.UnregisterClient(alice)

	// Exactly one departure is observed.
	mustEvent(t, bob.Events, EventUserLeft)
	noEvent(t, bob.Events, EventUserLeft, 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if got := hub.Rooms(ctx)["general"]; got.UserCount != 1 {
		t.Fatalf("unexpected membership after double unregister: %+v", got)
	}
}

func TestHubBroadcastSurvivesMidDeliveryDisconnect(t *testing.T) {
	hub := startHub(t, nil, HubOptions{})

	a := NewClient("a", "a")
	b := NewClient("b", "b")
	c := NewClient("c", "c")
	for _, cl := range []*Client{a, b, c} {
		hub.RegisterClient(cl)
		cl.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
		mustEvent(t, cl.Events, EventRoomJoined)
	}

	hub.UnregisterClient(b)
	mustEvent(t, a.Events, EventUserLeft)

	a.Commands <- &Command{Kind: CommandSendMessage, Text: "still here"}

	for _, cl := range []*Client{a, c} {
		msg := mustMessage(t, cl.Events, KindHuman)
		if msg.Text != "still here" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	}
}

func TestHubSequenceOrderPerRoom(t *testing.T) {
	hub := startHub(t, nil, HubOptions{})

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, bob.Events, EventRoomJoined)

	for _, text := range []string{"one", "two", "three"} {
		alice.Commands <- &Command{Kind: CommandSendMessage, Text: text}
	}

	var last uint64
	for i := 0; i < 3; i++ {
		msg := mustMessage(t, bob.Events, KindHuman)
		if msg.Seq <= last {
			t.Fatalf("sequence went backwards: %d after %d", msg.Seq, last)
		}
		last = msg.Seq
	}
	if last != 3 {
		t.Fatalf("expected final seq 3, got %d", last)
	}
}

func TestHubAIReplyScenario(t *testing.T) {
	hub := startHub(t, &fakeInvoker{reply: "Here is a summary."}, HubOptions{Assistant: "assistant"})

	x := NewClient("x", "X")
	observer := NewClient("o", "observer")
	hub.RegisterClient(x)
	hub.RegisterClient(observer)

	x.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	observer.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, observer.Events, EventRoomJoined)

	x.Commands <- &Command{Kind: CommandSendMessage, Text: "@ai summarize this thread"}

	for _, cl := range []*Client{x, observer} {
		human := mustMessage(t, cl.Events, KindHuman)
		if human.From != "X" || human.Text != "@ai summarize this thread" || human.Seq != 1 {
			t.Fatalf("unexpected human message: %+v", human)
		}
		reply := mustMessage(t, cl.Events, KindAI)
		if reply.From != "assistant" || reply.Text != "Here is a summary." || reply.Seq != 2 {
			t.Fatalf("unexpected ai reply: %+v", reply)
		}
	}
}

func TestHubInferenceTimeoutProducesSingleNotice(t *testing.T) {
	invoker := &fakeInvoker{reply: "too late", delay: time.Second}
	hub := startHub(t, invoker, HubOptions{InferenceTimeout: 50 * time.Millisecond})

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, alice.Events, EventRoomJoined)

	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "@ai are you there"}
	mustMessage(t, alice.Events, KindHuman)

	notice := mustMessage(t, alice.Events, KindSystem)
	if notice.Text != noticeTimeout {
		t.Fatalf("unexpected notice: %q", notice.Text)
	}
	noEvent(t, alice.Events, EventRoomMessage, 200*time.Millisecond)
}

func TestHubInferenceFailureNotices(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", ai.ErrUnavailable, noticeUnavailable},
		{"backend", &ai.BackendError{Status: 500, Body: "boom"}, noticeBackend},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hub := startHub(t, &fakeInvoker{err: tc.err}, HubOptions{})

			alice := NewClient("a", "alice")
			hub.RegisterClient(alice)
			alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
			mustEvent(t, alice.Events, EventRoomJoined)

			alice.Commands <- &Command{Kind: CommandSendMessage, Text: "@ai hello"}
			mustMessage(t, alice.Events, KindHuman)

			notice := mustMessage(t, alice.Events, KindSystem)
			if notice.Text != tc.want {
				t.Fatalf("unexpected notice: %q", notice.Text)
			}
		})
	}
}

func TestHubReplyStillDeliveredAfterRequesterLeaves(t *testing.T) {
	hub := startHub(t, &fakeInvoker{reply: "42", delay: 50 * time.Millisecond}, HubOptions{})

	asker := NewClient("a", "asker")
	stayer := NewClient("s", "stayer")
	hub.RegisterClient(asker)
	hub.RegisterClient(stayer)
	asker.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	stayer.Commands <- &Command{Kind: CommandJoinRoom, Room: "general"}
	mustEvent(t, stayer.Events, EventRoomJoined)

	asker.Commands <- &Command{Kind: CommandSendMessage, Text: "@ai meaning of life"}
	mustMessage(t, stayer.Events, KindHuman)

	hub.UnregisterClient(asker)

	// The room still has members, so the reply lands.
	reply := mustMessage(t, stayer.Events, KindAI)
	if reply.Text != "42" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}
