package chat

import (
	"database/sql"
	"time"
)

// Chat represents the chats table. UpdatedAt is bumped on every new
// message and drives chat-list ordering.
type Chat struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      sql.NullString
	IsGroup   bool
	GroupPic  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []Participant
}

// Participant represents the chat_participants table. The participant set
// is fixed at chat creation.
type Participant struct {
	ChatID   string `gorm:"type:uuid;primaryKey"`
	UserID   string `gorm:"type:uuid;primaryKey;index"`
	JoinedAt time.Time
}

// ReadStatus is the per (chat, user) read watermark. LastSeenAt mirrors the
// watermark message's CreatedAt; it is the ordering key the upsert guards on
// so the watermark never moves to an older message.
type ReadStatus struct {
	ChatID            string `gorm:"type:uuid;primaryKey"`
	UserID            string `gorm:"type:uuid;primaryKey"`
	LastSeenMessageID string `gorm:"type:uuid"`
	LastSeenAt        time.Time
	UpdatedAt         time.Time
}

func (Chat) TableName() string {
	return "chats"
}

func (Participant) TableName() string {
	return "chat_participants"
}

func (ReadStatus) TableName() string {
	return "chat_read_statuses"
}
