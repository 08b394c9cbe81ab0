package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"mindwell/internal/model"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	if err := r.db.WithContext(ctx).Create(resource).Error; err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

// List returns resources newest first. A non-empty query filters on the
// title; limit <= 0 means no limit.
func (r *ResourceRepository) List(ctx context.Context, query string, limit int) ([]model.Resource, error) {
	tx := r.db.WithContext(ctx)
	if q := strings.TrimSpace(query); q != "" {
		tx = tx.Where("title LIKE ?", "%"+escapeLike(q)+"%")
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var resources []model.Resource
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("list resources failed: %w", err)
	}
	return resources, nil
}

// GetByID returns nil, nil when the resource does not exist.
func (r *ResourceRepository) GetByID(ctx context.Context, id uint) (*model.Resource, error) {
	var resource model.Resource
	if err := r.db.WithContext(ctx).First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query resource by id failed: %w", err)
	}
	return &resource, nil
}
