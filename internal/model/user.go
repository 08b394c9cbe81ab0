package model

import "time"

const (
	RolePatient   = "patient"
	RoleTherapist = "therapist"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	FullName     string    `gorm:"size:128" json:"full_name"`
	Role         string    `gorm:"size:16;not null;default:patient;index" json:"role"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
