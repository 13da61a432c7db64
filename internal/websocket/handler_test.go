package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"relay-chat/pkg/events"
)

func TestTypingRequiresJoinedRoom(t *testing.T) {
	hub := startHub(t)
	h := &Handler{hub: hub}

	sender := NewClient(nil, "user-a")
	listener := NewClient(nil, "user-b")
	hub.Register(sender)
	hub.Register(listener)

	room := events.ChatRoom("chat-1")
	hub.Join(listener, room)
	time.Sleep(50 * time.Millisecond)

	frame, _ := json.Marshal(inboundFrame{Event: events.TypingStart, ChatID: "chat-1"})
	h.handleFrame(context.Background(), sender, frame)

	// The sender never joined the room: it gets an error, the room gets
	// nothing.
	var ev events.Event
	if err := json.Unmarshal(drain(t, sender), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != events.Error {
		t.Fatalf("expected error event, got %q", ev.Event)
	}
	select {
	case msg := <-listener.Send:
		t.Fatalf("typing relayed from outside the room: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}

	// Once joined, the same frame relays to the rest of the room.
	hub.Join(sender, room)
	time.Sleep(50 * time.Millisecond)
	h.handleFrame(context.Background(), sender, frame)

	if err := json.Unmarshal(drain(t, listener), &ev); err != nil {
		t.Fatalf("unmarshal relay: %v", err)
	}
	if ev.Event != events.TypingStart {
		t.Fatalf("expected typing relay, got %q", ev.Event)
	}
	select {
	case msg := <-sender.Send:
		t.Fatalf("origin received its own typing signal: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
