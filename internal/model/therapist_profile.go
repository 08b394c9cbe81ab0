package model

import "time"

// TherapistProfile is the public directory entry of a therapist user.
type TherapistProfile struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User            *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Specialization  []string  `gorm:"serializer:json;type:text" json:"specialization"`
	ExperienceYears int       `gorm:"not null;default:0" json:"experience_years"`
	Description     string    `gorm:"type:text" json:"description"`
	RatePerHour     float64   `gorm:"not null;default:0" json:"rate_per_hour"`
	Availability    []string  `gorm:"serializer:json;type:text" json:"availability"`
	Education       []string  `gorm:"serializer:json;type:text" json:"education"`
	Certifications  []string  `gorm:"serializer:json;type:text" json:"certifications"`
	Rating          float64   `gorm:"not null;default:0;index" json:"rating"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (TherapistProfile) TableName() string {
	return "therapist_profiles"
}

// HasSpecializations reports whether the profile lists every wanted
// specialization, compared case-insensitively.
func (p *TherapistProfile) HasSpecializations(wanted []string) bool {
	have := make(map[string]struct{}, len(p.Specialization))
	for _, s := range p.Specialization {
		have[normaliseTag(s)] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := have[normaliseTag(w)]; !ok {
			return false
		}
	}
	return true
}
