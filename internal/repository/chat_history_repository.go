package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mindwell/internal/model"
)

type ChatHistoryRepository struct {
	db *gorm.DB
}

func NewChatHistoryRepository(db *gorm.DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

func (r *ChatHistoryRepository) Create(ctx context.Context, turn *model.ChatHistory) error {
	if err := r.db.WithContext(ctx).Create(turn).Error; err != nil {
		return fmt.Errorf("create chat history failed: %w", err)
	}
	return nil
}

// ListByUserID returns every turn pair of the user, oldest first.
func (r *ChatHistoryRepository) ListByUserID(ctx context.Context, userID uint) ([]model.ChatHistory, error) {
	var turns []model.ChatHistory
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list chat history failed: %w", err)
	}
	return turns, nil
}
