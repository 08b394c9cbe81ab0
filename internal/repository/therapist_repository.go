package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mindwell/internal/model"
)

type TherapistRepository struct {
	db *gorm.DB
}

func NewTherapistRepository(db *gorm.DB) *TherapistRepository {
	return &TherapistRepository{db: db}
}

// List returns profiles with their users, best rated first. A non-empty query
// filters on the description.
func (r *TherapistRepository) List(ctx context.Context, query string) ([]model.TherapistProfile, error) {
	tx := r.db.WithContext(ctx).Preload("User")
	if q := strings.TrimSpace(query); q != "" {
		tx = tx.Where("description LIKE ?", "%"+escapeLike(q)+"%")
	}

	var profiles []model.TherapistProfile
	if err := tx.Order("rating DESC").Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list therapist profiles failed: %w", err)
	}
	return profiles, nil
}

func (r *TherapistRepository) GetByID(ctx context.Context, id uint) (*model.TherapistProfile, error) {
	return r.first(ctx, "query therapist profile by id", "id = ?", id)
}

func (r *TherapistRepository) GetByUserID(ctx context.Context, userID uint) (*model.TherapistProfile, error) {
	return r.first(ctx, "query therapist profile by user", "user_id = ?", userID)
}

// Upsert creates the profile or replaces the one owned by the same user.
func (r *TherapistRepository) Upsert(ctx context.Context, profile *model.TherapistProfile) error {
	err := r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"specialization", "experience_years", "description", "rate_per_hour",
				"availability", "education", "certifications", "updated_at",
			}),
		}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("save therapist profile failed: %w", err)
	}
	return nil
}

// first returns nil, nil when no row matches.
func (r *TherapistRepository) first(ctx context.Context, op, query string, args ...interface{}) (*model.TherapistProfile, error) {
	var profile model.TherapistProfile
	if err := r.db.WithContext(ctx).Preload("User").Where(query, args...).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	return &profile, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
