package cache

import (
	"context"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"

	"mindwell/internal/model"
)

// ConsentStore persists the chat-history consent decision of each user.
// Keys never expire; an absent key means the user has not decided yet.
type ConsentStore struct {
	client *redisv9.Client
}

func NewConsentStore(client *redisv9.Client) *ConsentStore {
	return &ConsentStore{client: client}
}

func (s *ConsentStore) GetConsent(ctx context.Context, userID uint) (model.ConsentState, error) {
	raw, err := s.client.Get(ctx, consentKey(userID)).Result()
	if err == redisv9.Nil {
		return model.ConsentUnknown, nil
	}
	if err != nil {
		return model.ConsentUnknown, fmt.Errorf("redis get consent failed: %w", err)
	}
	return parseConsent(raw), nil
}

func (s *ConsentStore) SetConsent(ctx context.Context, userID uint, granted bool) error {
	value := "false"
	if granted {
		value = "true"
	}
	if err := s.client.Set(ctx, consentKey(userID), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set consent failed: %w", err)
	}
	return nil
}

func parseConsent(raw string) model.ConsentState {
	switch raw {
	case "true":
		return model.ConsentGranted
	case "false":
		return model.ConsentDenied
	default:
		return model.ConsentUnknown
	}
}

func consentKey(userID uint) string {
	return fmt.Sprintf("mindwell:ai_chat_consent:%d", userID)
}
