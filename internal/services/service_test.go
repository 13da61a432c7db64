package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"relay-chat/internal/commands"
	"relay-chat/internal/domain/chat"
	"relay-chat/internal/domain/message"
	"relay-chat/internal/domain/user"
	"relay-chat/internal/proxy"
	"relay-chat/internal/repository"
	"relay-chat/internal/transport/httpdto"
	"relay-chat/pkg/events"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type broadcastRecord struct {
	Room  string
	Event events.Event
}

// fakeBroadcaster records every fanout instead of delivering it.
type fakeBroadcaster struct {
	mu      sync.Mutex
	records []broadcastRecord
}

func (f *fakeBroadcaster) Broadcast(room string, ev events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, broadcastRecord{Room: room, Event: ev})
}

func (f *fakeBroadcaster) byEvent(name string) []broadcastRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcastRecord
	for _, r := range f.records {
		if r.Event.Event == name {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type testEnv struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	broadcaster *fakeBroadcaster
	chats       *ChatService
	messages    *MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	// In-memory sqlite gives every connection its own database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&user.User{},
		&chat.Chat{},
		&chat.Participant{},
		&chat.ReadStatus{},
		&message.Message{},
		&message.Delivery{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	access := proxy.NewAccessControl(chatRepo)
	broadcaster := &fakeBroadcaster{}

	return &testEnv{
		db:          db,
		userRepo:    userRepo,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		chats:       NewChatService(chatRepo, messageRepo, userRepo, access, broadcaster),
		messages:    NewMessageService(db, messageRepo, chatRepo, userRepo, access, broadcaster, commands.NewBus()),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) user.User {
	t.Helper()
	u := user.User{
		ID:       uuid.NewString(),
		Email:    username + "@example.com",
		Username: username,
		Password: "not-a-real-hash",
	}
	if err := e.userRepo.Create(context.Background(), &u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (e *testEnv) createChat(t *testing.T, participantIDs ...string) chat.Chat {
	t.Helper()
	c := chat.Chat{ID: uuid.NewString(), IsGroup: len(participantIDs) > 2}
	if err := e.chatRepo.Create(context.Background(), &c, participantIDs); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	return c
}

// send posts a message through the full service path, spacing timestamps so
// ordering assertions never depend on sub-millisecond clock resolution.
func (e *testEnv) send(t *testing.T, chatID, senderID, text string) httpdto.MessageResponse {
	t.Helper()
	resp, err := e.messages.Send(context.Background(), commands.SendMessageCommand{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  text,
	})
	if err != nil {
		t.Fatalf("send %q: %v", text, err)
	}
	time.Sleep(2 * time.Millisecond)
	return resp
}
