package model

import "time"

// DirectMessage is a private message between a patient and a therapist.
type DirectMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index:idx_messages_pair,priority:1" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index:idx_messages_pair,priority:2;index" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (DirectMessage) TableName() string {
	return "messages"
}

// Partner returns the other participant from userID's point of view.
func (m *DirectMessage) Partner(userID uint) uint {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}
