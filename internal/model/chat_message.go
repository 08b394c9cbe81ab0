package model

import "time"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is a single transcript entry held in memory by a companion session.
// Entries are never mutated once created.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ConsentState string

const (
	ConsentUnknown ConsentState = "unknown"
	ConsentGranted ConsentState = "granted"
	ConsentDenied  ConsentState = "denied"
)

func ConsentFromBool(granted bool) ConsentState {
	if granted {
		return ConsentGranted
	}
	return ConsentDenied
}
