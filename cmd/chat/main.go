// Command chat is a small terminal client for manual testing of the relay.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/priyankbansal/ollamachat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "display name")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(v interface{}) {
		if writeErr := wsjson.Write(ctx, conn, v); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	helloPayload, err := json.Marshal(proto.HelloData{User: *user})
	if err != nil {
		return fmt.Errorf("marshal hello: %w", err)
	}
	send(proto.Inbound{Type: proto.InboundTypeHello, Data: helloPayload})

	joinPayload, err := json.Marshal(proto.JoinData{Room: *room})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	send(proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload})

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *user, *room)
	fmt.Println("Type messages and press Enter to send. Mention @ai to summon the model. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		printOutbound(outbound)
	}
}

func printOutbound(outbound proto.Outbound) {
	if outbound.Error != nil {
		fmt.Printf("!! %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
		return
	}

	raw, err := json.Marshal(outbound.Data)
	if err != nil {
		log.Printf("marshal outbound data: %v", err)
		return
	}

	switch outbound.Event {
	case "message":
		var msg proto.EventMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("unmarshal message: %v", err)
			return
		}
		tag := ""
		switch msg.Kind {
		case "ai":
			tag = " [ai]"
		case "system":
			tag = " [system]"
		}
		ts := time.Unix(msg.TS, 0).Format("15:04")
		fmt.Printf("[%s] %s%s: %s\n", ts, msg.User, tag, msg.Text)
	case "joined":
		var joined proto.EventJoined
		if err := json.Unmarshal(raw, &joined); err != nil {
			log.Printf("unmarshal joined: %v", err)
			return
		}
		fmt.Printf("-- joined %s (members: %s)\n", joined.Room, strings.Join(joined.Members, ", "))
	case "user_joined":
		var ev proto.EventUserJoined
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		fmt.Printf("-- %s joined %s\n", ev.User, ev.Room)
	case "user_left":
		var ev proto.EventUserLeft
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		fmt.Printf("-- %s left %s\n", ev.User, ev.Room)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			return
		}
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		payload, err := json.Marshal(proto.MsgData{Text: text})
		if err != nil {
			log.Printf("marshal msg: %v", err)
			continue
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMsg, Data: payload}); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("send msg: %v", err)
			}
			return
		}
	}
}
