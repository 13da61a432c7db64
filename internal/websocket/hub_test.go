package websocket

import (
	"context"
	"testing"
	"time"

	"relay-chat/pkg/events"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func drain(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHubBroadcastToRoom(t *testing.T) {
	hub := startHub(t)

	a := NewClient(nil, "user-a")
	b := NewClient(nil, "user-b")
	c := NewClient(nil, "user-c")

	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	room := events.ChatRoom("chat-1")
	hub.Join(a, room)
	hub.Join(b, room)
	hub.Join(c, events.ChatRoom("chat-2"))
	time.Sleep(50 * time.Millisecond)

	if n := hub.RoomSize(room); n != 2 {
		t.Fatalf("room size = %d, want 2", n)
	}

	hub.Broadcast(room, events.Event{Event: events.MessageNew, Payload: "hi"})

	for _, member := range []*Client{a, b} {
		msg := drain(t, member)
		if string(msg) == "" {
			t.Fatal("empty payload")
		}
	}
	select {
	case msg := <-c.Send:
		t.Fatalf("client outside the room received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastExceptSkipsOrigin(t *testing.T) {
	hub := startHub(t)

	a := NewClient(nil, "user-a")
	b := NewClient(nil, "user-b")
	hub.Register(a)
	hub.Register(b)

	room := events.ChatRoom("chat-1")
	hub.Join(a, room)
	hub.Join(b, room)
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastExcept(room, a, events.Event{Event: events.TypingStart, Payload: "typing"})

	drain(t, b)
	select {
	case msg := <-a.Send:
		t.Fatalf("origin received its own typing signal: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub := startHub(t)

	a := NewClient(nil, "user-a")
	hub.Register(a)

	room := events.ChatRoom("chat-1")
	hub.Join(a, room)
	time.Sleep(50 * time.Millisecond)
	if !a.InRoom(room) {
		t.Fatal("client not marked in room")
	}

	hub.Leave(a, room)
	time.Sleep(50 * time.Millisecond)
	if a.InRoom(room) {
		t.Fatal("client still marked in room after leave")
	}
	if n := hub.RoomSize(room); n != 0 {
		t.Fatalf("room size = %d after leave", n)
	}

	hub.Broadcast(room, events.Event{Event: events.MessageNew, Payload: "gone"})
	select {
	case msg := <-a.Send:
		t.Fatalf("received after leaving: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterCleansUp(t *testing.T) {
	hub := startHub(t)

	a := NewClient(nil, "user-a")
	hub.Register(a)

	room := events.ChatRoom("chat-1")
	hub.Join(a, room)
	time.Sleep(50 * time.Millisecond)

	hub.Unregister(a)
	time.Sleep(50 * time.Millisecond)

	if n := hub.ClientCount(); n != 0 {
		t.Fatalf("client count = %d after unregister", n)
	}
	if n := hub.RoomSize(room); n != 0 {
		t.Fatalf("room size = %d after unregister", n)
	}

	// The hub closes the Send channel on teardown.
	select {
	case _, open := <-a.Send:
		if open {
			t.Fatal("send channel delivered instead of closing")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHubTwoConnectionsSameUser(t *testing.T) {
	hub := startHub(t)

	first := NewClient(nil, "user-a")
	second := NewClient(nil, "user-a")
	hub.Register(first)
	hub.Register(second)

	room := events.ChatRoom("chat-1")
	hub.Join(first, room)
	hub.Join(second, room)
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(room, events.Event{Event: events.MessageNew, Payload: "both"})

	drain(t, first)
	drain(t, second)
}
