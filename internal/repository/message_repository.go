package repository

import (
	"context"
	"errors"
	"time"

	"relay-chat/internal/domain/message"
	relay_errors "relay-chat/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return relay_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, relay_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) Update(ctx context.Context, m message.Message) error {
	res := r.db.WithContext(ctx).Save(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return relay_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) Latest(ctx context.Context, chatID string) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Order("id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, relay_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

// ListBefore returns up to limit messages strictly older than the anchor,
// newest first. A nil anchor starts from the newest message. Ordering is
// created_at with id as tie-break for equal timestamps.
func (r *PostgresMessageRepository) ListBefore(ctx context.Context, chatID string, anchor *message.Message, limit int) ([]message.Message, error) {
	q := r.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if anchor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
	}
	var msgs []message.Message
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *PostgresMessageRepository) CountByChat(ctx context.Context, chatID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error
	return count, err
}

func (r *PostgresMessageRepository) CountAfter(ctx context.Context, chatID string, after time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("chat_id = ? AND created_at > ?", chatID, after).
		Count(&count).Error
	return count, err
}

func (r *PostgresMessageRepository) UpsertDelivery(ctx context.Context, d *message.Delivery) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"delivered_at": d.DeliveredAt}),
	}).Create(d).Error
}
