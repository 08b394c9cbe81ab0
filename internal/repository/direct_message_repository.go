package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mindwell/internal/model"
)

type DirectMessageRepository struct {
	db *gorm.DB
}

func NewDirectMessageRepository(db *gorm.DB) *DirectMessageRepository {
	return &DirectMessageRepository{db: db}
}

func (r *DirectMessageRepository) Create(ctx context.Context, msg *model.DirectMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListConversation returns the messages exchanged between a and b, oldest first.
func (r *DirectMessageRepository) ListConversation(ctx context.Context, a, b uint) ([]model.DirectMessage, error) {
	var msgs []model.DirectMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversation failed: %w", err)
	}
	return msgs, nil
}

// ListInvolving returns every message sent or received by userID, newest first.
func (r *DirectMessageRepository) ListInvolving(ctx context.Context, userID uint) ([]model.DirectMessage, error) {
	var msgs []model.DirectMessage
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return msgs, nil
}

// MarkRead flags the given messages as read, limited to those addressed to
// recipientID. It returns how many rows changed.
func (r *DirectMessageRepository) MarkRead(ctx context.Context, recipientID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.DirectMessage{}).
		Where("recipient_id = ? AND id IN ? AND `read` = ?", recipientID, ids, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark messages read failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
