package services

import (
	"context"
	"errors"
	"testing"

	relay_errors "relay-chat/pkg/errors"
	"relay-chat/pkg/events"

	"relay-chat/internal/transport/httpdto"
)

func TestCreateChatDeduplicatesParticipants(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	resp, err := env.chats.Create(context.Background(), alice.ID, httpdto.CreateChatRequest{
		Participants: []string{bob.ID, bob.ID, alice.ID},
	})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if len(resp.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(resp.Participants))
	}
	if resp.IsGroup {
		t.Fatal("two-member chat must not be a group")
	}
}

func TestCreateChatUnknownParticipant(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	_, err := env.chats.Create(context.Background(), alice.ID, httpdto.CreateChatRequest{
		Participants: []string{"missing-user"},
	})
	if !errors.Is(err, relay_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateChatGroupFlag(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	name := "weekend plans"
	resp, err := env.chats.Create(context.Background(), alice.ID, httpdto.CreateChatRequest{
		Name:         &name,
		Participants: []string{bob.ID, carol.ID},
	})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if !resp.IsGroup {
		t.Fatal("three-member chat must be a group")
	}
	if resp.Name == nil || *resp.Name != name {
		t.Fatalf("expected name %q, got %v", name, resp.Name)
	}
}

func TestUnreadCountWithoutWatermark(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	c := env.createChat(t, alice.ID, bob.ID)

	for i := 0; i < 3; i++ {
		env.send(t, c.ID, alice.ID, "hello")
	}

	count, err := env.chats.UnreadCount(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}
}

func TestUnreadCountEmptyChat(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	c := env.createChat(t, alice.ID, bob.ID)

	count, err := env.chats.UnreadCount(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread in empty chat, got %d", count)
	}
}

func TestMarkSeenResetsUnread(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	c := env.createChat(t, alice.ID, bob.ID)

	env.send(t, c.ID, alice.ID, "one")
	last := env.send(t, c.ID, alice.ID, "two")

	resp, err := env.chats.MarkSeen(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if resp.LastSeenMessageID != last.ID {
		t.Fatalf("watermark = %s, want %s", resp.LastSeenMessageID, last.ID)
	}

	count, err := env.chats.UnreadCount(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread after seen, got %d", count)
	}

	// Idempotent: marking again without new traffic changes nothing.
	again, err := env.chats.MarkSeen(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("mark seen again: %v", err)
	}
	if again.LastSeenMessageID != last.ID {
		t.Fatalf("watermark moved on idempotent seen: %s", again.LastSeenMessageID)
	}

	seenEvents := env.broadcaster.byEvent(events.MessageSeen)
	if len(seenEvents) != 2 {
		t.Fatalf("expected 2 seen broadcasts, got %d", len(seenEvents))
	}
	payload, ok := seenEvents[0].Event.Payload.(httpdto.SeenResponse)
	if !ok {
		t.Fatalf("unexpected seen payload type %T", seenEvents[0].Event.Payload)
	}
	if payload.UserID != bob.ID || payload.LastSeenMessageID != last.ID {
		t.Fatalf("seen payload = %+v", payload)
	}
}

func TestMarkSeenEmptyChat(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	c := env.createChat(t, alice.ID, bob.ID)

	_, err := env.chats.MarkSeen(context.Background(), c.ID, bob.ID)
	if !errors.Is(err, relay_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty chat, got %v", err)
	}
}

func TestMarkSeenNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	eve := env.createUser(t, "eve")
	c := env.createChat(t, alice.ID, bob.ID)

	env.send(t, c.ID, alice.ID, "secret")

	_, err := env.chats.MarkSeen(context.Background(), c.ID, eve.ID)
	if !errors.Is(err, relay_errors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSendKeepsSenderRead(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	c := env.createChat(t, alice.ID, bob.ID)

	env.send(t, c.ID, alice.ID, "hi bob")

	senderCount, err := env.chats.UnreadCount(context.Background(), c.ID, alice.ID)
	if err != nil {
		t.Fatalf("unread sender: %v", err)
	}
	if senderCount != 0 {
		t.Fatalf("sender unread = %d, want 0", senderCount)
	}

	otherCount, err := env.chats.UnreadCount(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("unread recipient: %v", err)
	}
	if otherCount != 1 {
		t.Fatalf("recipient unread = %d, want 1", otherCount)
	}
}

func TestWatermarkNeverMovesBackwards(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	c := env.createChat(t, alice.ID, bob.ID)

	env.send(t, c.ID, alice.ID, "one")
	env.send(t, c.ID, alice.ID, "two")

	if _, err := env.chats.MarkSeen(context.Background(), c.ID, bob.ID); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	rs, err := env.chatRepo.GetReadStatus(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}

	// Try to regress the watermark to the older message directly.
	first, err := env.messageRepo.ListBefore(context.Background(), c.ID, nil, 10)
	if err != nil || len(first) != 2 {
		t.Fatalf("list: %v (%d rows)", err, len(first))
	}
	oldest := first[len(first)-1]
	stale := rs
	stale.LastSeenMessageID = oldest.ID
	stale.LastSeenAt = oldest.CreatedAt
	if err := env.chatRepo.UpsertReadStatus(context.Background(), &stale); err != nil {
		t.Fatalf("stale upsert: %v", err)
	}

	after, err := env.chatRepo.GetReadStatus(context.Background(), c.ID, bob.ID)
	if err != nil {
		t.Fatalf("read status after: %v", err)
	}
	if after.LastSeenMessageID != rs.LastSeenMessageID {
		t.Fatalf("watermark regressed to %s", after.LastSeenMessageID)
	}
}

func TestListChatsUnreadAndLastMessage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	c := env.createChat(t, alice.ID, bob.ID)

	env.send(t, c.ID, alice.ID, "first")
	last := env.send(t, c.ID, alice.ID, "second")

	chats, err := env.chats.List(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(chats))
	}
	got := chats[0]
	if got.ID != c.ID {
		t.Fatalf("chat id = %s, want %s", got.ID, c.ID)
	}
	if got.UnreadCount != 2 {
		t.Fatalf("unread = %d, want 2", got.UnreadCount)
	}
	if got.LastMessage == nil || got.LastMessage.ID != last.ID {
		t.Fatalf("last message = %+v, want %s", got.LastMessage, last.ID)
	}
	if len(got.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(got.Participants))
	}
}
