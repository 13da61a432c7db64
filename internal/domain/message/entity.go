package message

import (
	"database/sql"
	"time"
)

// DeletedContent replaces the body of a soft-deleted message.
const DeletedContent = "Message deleted"

// Message represents the messages table. CreatedAt is the only ordering
// key; ids are opaque. Equal timestamps are tie-broken by id so pagination
// stays deterministic.
type Message struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	ChatID           string `gorm:"type:uuid;index;not null"`
	SenderID         string `gorm:"type:uuid;not null"`
	Content          string
	IsDeleted        bool
	ReplyToMessageID sql.NullString `gorm:"type:uuid"`
	CreatedAt        time.Time      `gorm:"index"`
	EditedAt         sql.NullTime
	DeletedAt        sql.NullTime
}

// Delivery represents the message_deliveries table, one row per
// (message, user). Re-delivery refreshes DeliveredAt.
type Delivery struct {
	MessageID   string `gorm:"type:uuid;primaryKey"`
	UserID      string `gorm:"type:uuid;primaryKey"`
	DeliveredAt time.Time
}

func (Message) TableName() string {
	return "messages"
}

func (Delivery) TableName() string {
	return "message_deliveries"
}
