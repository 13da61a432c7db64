package repository

import (
	"context"
	"errors"
	"time"

	"relay-chat/internal/domain/chat"
	relay_errors "relay-chat/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) Create(ctx context.Context, c *chat.Chat, participantIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants").Create(c).Error; err != nil {
			return err
		}
		now := time.Now()
		rows := make([]chat.Participant, 0, len(participantIDs))
		for _, id := range participantIDs {
			rows = append(rows, chat.Participant{ChatID: c.ID, UserID: id, JoinedAt: now})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		c.Participants = rows
		return nil
	})
}

func (r *PostgresChatRepository) GetByID(ctx context.Context, id string) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.WithContext(ctx).Preload("Participants").Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Chat{}, relay_errors.ErrNotFound
		}
		return chat.Chat{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) ListByUser(ctx context.Context, userID string) ([]chat.Chat, error) {
	var chats []chat.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN chat_participants cp ON cp.chat_id = chats.id").
		Where("cp.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *PostgresChatRepository) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&chat.Participant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresChatRepository) ParticipantIDs(ctx context.Context, chatID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&chat.Participant{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresChatRepository) TouchUpdatedAt(ctx context.Context, chatID string, t time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relay_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresChatRepository) GetReadStatus(ctx context.Context, chatID, userID string) (chat.ReadStatus, error) {
	var rs chat.ReadStatus
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&rs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.ReadStatus{}, relay_errors.ErrNotFound
		}
		return chat.ReadStatus{}, err
	}
	return rs, nil
}

// UpsertReadStatus advances the (chat, user) watermark. The conflict branch
// keeps whichever watermark points at the newer message, so concurrent stale
// writes can never move it backward.
func (r *PostgresChatRepository) UpsertReadStatus(ctx context.Context, rs *chat.ReadStatus) error {
	rs.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_seen_message_id": gorm.Expr("CASE WHEN last_seen_at <= excluded.last_seen_at THEN excluded.last_seen_message_id ELSE last_seen_message_id END"),
			"last_seen_at":         gorm.Expr("CASE WHEN last_seen_at <= excluded.last_seen_at THEN excluded.last_seen_at ELSE last_seen_at END"),
			"updated_at":           rs.UpdatedAt,
		}),
	}).Create(rs).Error
}
