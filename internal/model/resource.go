package model

import (
	"strings"
	"time"
)

// Resource is an article in the self-help library.
type Resource struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null;index" json:"title"`
	Content      string    `gorm:"type:text" json:"content"`
	Category     []string  `gorm:"serializer:json;type:text" json:"category"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail_url,omitempty"`
	Author       string    `gorm:"size:128" json:"author"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Resource) TableName() string {
	return "resources"
}

func (r *Resource) InCategory(category string) bool {
	want := normaliseTag(category)
	for _, c := range r.Category {
		if normaliseTag(c) == want {
			return true
		}
	}
	return false
}

func normaliseTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
