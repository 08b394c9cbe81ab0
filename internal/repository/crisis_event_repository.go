package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mindwell/internal/model"
)

type CrisisEventRepository struct {
	db *gorm.DB
}

func NewCrisisEventRepository(db *gorm.DB) *CrisisEventRepository {
	return &CrisisEventRepository{db: db}
}

func (r *CrisisEventRepository) Create(ctx context.Context, event *model.CrisisEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create crisis event failed: %w", err)
	}
	return nil
}

// LatestUnansweredByUserID returns nil, nil when the user has no event awaiting a response.
func (r *CrisisEventRepository) LatestUnansweredByUserID(ctx context.Context, userID uint) (*model.CrisisEvent, error) {
	var event model.CrisisEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND (user_response = '' OR user_response IS NULL)", userID).
		Order("detected_at DESC").
		Order("id DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest crisis event failed: %w", err)
	}
	return &event, nil
}

func (r *CrisisEventRepository) UpdateResponse(ctx context.Context, id uint, response string) error {
	if err := r.db.WithContext(ctx).
		Model(&model.CrisisEvent{}).
		Where("id = ?", id).
		Update("user_response", response).Error; err != nil {
		return fmt.Errorf("update crisis response failed: %w", err)
	}
	return nil
}

func (r *CrisisEventRepository) ListRecent(ctx context.Context, limit int) ([]model.CrisisEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var events []model.CrisisEvent
	if err := r.db.WithContext(ctx).Order("detected_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list crisis events failed: %w", err)
	}
	return events, nil
}
