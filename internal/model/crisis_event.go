package model

import (
	"encoding/json"
	"time"
)

const (
	CrisisResponseContactedHelp  = "contacted_help"
	CrisisResponseDismissed      = "dismissed"
	CrisisResponseSavedResources = "saved_resources"
)

// CrisisEvent records a message that tripped the crisis detector.
// TriggerKeywords is stored as a JSON array of strings.
type CrisisEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	SeverityLevel   string    `gorm:"size:16;not null;index" json:"severity_level"`
	TriggerKeywords string    `gorm:"type:text" json:"-"`
	UserResponse    string    `gorm:"size:32" json:"user_response,omitempty"`
	DetectedAt      time.Time `gorm:"not null;index" json:"detected_at"`
}

// Keywords returns the parsed trigger keywords; empty on parse error.
func (e *CrisisEvent) Keywords() []string {
	if e.TriggerKeywords == "" {
		return nil
	}
	var v []string
	_ = json.Unmarshal([]byte(e.TriggerKeywords), &v)
	return v
}

func (e *CrisisEvent) SetKeywords(keywords []string) {
	if len(keywords) == 0 {
		e.TriggerKeywords = "[]"
		return
	}
	b, _ := json.Marshal(keywords)
	e.TriggerKeywords = string(b)
}

func IsValidCrisisResponse(response string) bool {
	switch response {
	case CrisisResponseContactedHelp, CrisisResponseDismissed, CrisisResponseSavedResources:
		return true
	default:
		return false
	}
}
