package model

import "time"

// ChatHistory is one persisted user/assistant turn pair.
type ChatHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	MessageText string    `gorm:"type:text;not null" json:"message_text"`
	AIReplyText string    `gorm:"type:text;not null" json:"ai_reply_text"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (ChatHistory) TableName() string {
	return "chat_history"
}
