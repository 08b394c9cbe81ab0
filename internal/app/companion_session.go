package app

import (
	"sync"
	"time"

	"mindwell/internal/model"
)

// SessionState is a point-in-time view of a companion session.
type SessionState struct {
	Consent  model.ConsentState  `json:"consent"`
	Messages []model.ChatMessage `json:"messages"`
	Error    string              `json:"error,omitempty"`
	Sending  bool                `json:"sending"`
}

// CompanionSession holds the transcript of one user. The transcript slice is
// treated as an immutable value: every change installs a new slice, so a
// snapshot taken mid-send never observes a partial update.
type CompanionSession struct {
	userID   uint
	initOnce sync.Once

	mu         sync.Mutex
	consent    model.ConsentState
	transcript []model.ChatMessage
	pending    *model.ChatMessage
	lastError  string
	sending    bool
	lastSeen   time.Time
}

func newCompanionSession(userID uint) *CompanionSession {
	return &CompanionSession{
		userID:  userID,
		consent: model.ConsentUnknown,
	}
}

func (s *CompanionSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports whether the session was last used before cutoff and has
// no send outstanding.
func (s *CompanionSession) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.sending && s.lastSeen.Before(cutoff)
}

func (s *CompanionSession) snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]model.ChatMessage, 0, len(s.transcript)+1)
	messages = append(messages, s.transcript...)
	if s.pending != nil {
		messages = append(messages, *s.pending)
	}
	return SessionState{
		Consent:  s.consent,
		Messages: messages,
		Error:    s.lastError,
		Sending:  s.sending,
	}
}

func (s *CompanionSession) consentState() model.ConsentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consent
}

func (s *CompanionSession) setConsent(state model.ConsentState) {
	s.mu.Lock()
	s.consent = state
	s.mu.Unlock()
}

func (s *CompanionSession) replaceTranscript(messages []model.ChatMessage) {
	s.mu.Lock()
	s.transcript = messages
	s.mu.Unlock()
}

func (s *CompanionSession) setError(message string) {
	s.mu.Lock()
	s.lastError = message
	s.mu.Unlock()
}

// beginSend installs the optimistic user entry. It fails if a send is already
// outstanding.
func (s *CompanionSession) beginSend(userMessage model.ChatMessage) (model.ConsentState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return s.consent, false
	}
	s.sending = true
	s.pending = &userMessage
	s.lastError = ""
	return s.consent, true
}

// commitSend appends the user and assistant entries as one new transcript value.
func (s *CompanionSession) commitSend(userMessage, assistantMessage model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.ChatMessage, 0, len(s.transcript)+2)
	next = append(next, s.transcript...)
	next = append(next, userMessage, assistantMessage)
	s.transcript = next
	s.pending = nil
	s.sending = false
}

// abortSend discards the optimistic entry and surfaces message.
func (s *CompanionSession) abortSend(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.sending = false
	s.lastError = message
}
