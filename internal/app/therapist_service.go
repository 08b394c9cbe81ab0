package app

import (
	"context"
	"strings"

	"mindwell/internal/model"
)

type TherapistStore interface {
	List(ctx context.Context, query string) ([]model.TherapistProfile, error)
	GetByID(ctx context.Context, id uint) (*model.TherapistProfile, error)
	GetByUserID(ctx context.Context, userID uint) (*model.TherapistProfile, error)
	Upsert(ctx context.Context, profile *model.TherapistProfile) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

type TherapistProfileInput struct {
	Specialization  []string
	ExperienceYears int
	Description     string
	RatePerHour     float64
	Availability    []string
	Education       []string
	Certifications  []string
}

// TherapistService backs the therapist directory patients browse before
// reaching out.
type TherapistService struct {
	profiles TherapistStore
	users    UserLookup
}

func NewTherapistService(profiles TherapistStore, users UserLookup) *TherapistService {
	return &TherapistService{profiles: profiles, users: users}
}

func (s *TherapistService) List(ctx context.Context) ([]model.TherapistProfile, error) {
	return s.profiles.List(ctx, "")
}

func (s *TherapistService) Get(ctx context.Context, id uint) (*model.TherapistProfile, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrTherapistNotFound
	}
	return profile, nil
}

// Search matches query against descriptions and keeps profiles listing every
// requested specialization.
func (s *TherapistService) Search(ctx context.Context, query string, specializations []string) ([]model.TherapistProfile, error) {
	profiles, err := s.profiles.List(ctx, query)
	if err != nil {
		return nil, err
	}
	wanted := compactTags(specializations)
	if len(wanted) == 0 {
		return profiles, nil
	}

	matched := make([]model.TherapistProfile, 0, len(profiles))
	for i := range profiles {
		if profiles[i].HasSpecializations(wanted) {
			matched = append(matched, profiles[i])
		}
	}
	return matched, nil
}

// IsTherapist reports whether userID has the therapist role and a directory
// profile.
func (s *TherapistService) IsTherapist(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil || user.Role != model.RoleTherapist {
		return false, nil
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile != nil, nil
}

func (s *TherapistService) SaveProfile(ctx context.Context, userID uint, input TherapistProfileInput) (*model.TherapistProfile, error) {
	if userID == 0 || input.ExperienceYears < 0 || input.RatePerHour < 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != model.RoleTherapist {
		return nil, ErrNotTherapist
	}

	profile := &model.TherapistProfile{
		UserID:          userID,
		Specialization:  compactTags(input.Specialization),
		ExperienceYears: input.ExperienceYears,
		Description:     strings.TrimSpace(input.Description),
		RatePerHour:     input.RatePerHour,
		Availability:    compactTags(input.Availability),
		Education:       compactTags(input.Education),
		Certifications:  compactTags(input.Certifications),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return s.profiles.GetByUserID(ctx, userID)
}

// compactTags trims entries and drops blanks, keeping order.
func compactTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
