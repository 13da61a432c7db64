package repository

import (
	"context"
	"time"

	"relay-chat/internal/domain/chat"
	"relay-chat/internal/domain/message"
	"relay-chat/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]user.User, error)
}

type ChatRepository interface {
	Create(ctx context.Context, c *chat.Chat, participantIDs []string) error
	GetByID(ctx context.Context, id string) (chat.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]chat.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	ParticipantIDs(ctx context.Context, chatID string) ([]string, error)
	TouchUpdatedAt(ctx context.Context, chatID string, t time.Time) error

	GetReadStatus(ctx context.Context, chatID, userID string) (chat.ReadStatus, error)
	UpsertReadStatus(ctx context.Context, rs *chat.ReadStatus) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id string) (message.Message, error)
	Update(ctx context.Context, m message.Message) error
	Latest(ctx context.Context, chatID string) (message.Message, error)
	ListBefore(ctx context.Context, chatID string, anchor *message.Message, limit int) ([]message.Message, error)
	CountByChat(ctx context.Context, chatID string) (int64, error)
	CountAfter(ctx context.Context, chatID string, after time.Time) (int64, error)
	UpsertDelivery(ctx context.Context, d *message.Delivery) error
}
