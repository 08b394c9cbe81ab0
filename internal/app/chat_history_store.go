package app

import (
	"context"
	"log"
	"time"

	"mindwell/internal/model"
)

type TurnRepository interface {
	Create(ctx context.Context, turn *model.ChatHistory) error
	ListByUserID(ctx context.Context, userID uint) ([]model.ChatHistory, error)
}

type TurnPublisher interface {
	Publish(ctx context.Context, turn model.ChatHistory) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, userID uint) ([]model.ChatHistory, bool, error)
	SetHistory(ctx context.Context, userID uint, turns []model.ChatHistory) error
	DeleteHistory(ctx context.Context, userID uint) error
	MarkDirty(ctx context.Context, userID uint) error
	IsDirty(ctx context.Context, userID uint) (bool, error)
}

// ChatHistoryStore is the companion's persistence gateway. Writes go through
// the message queue when a publisher is configured; reads are served from the
// cache unless a recent write marked it dirty.
type ChatHistoryStore struct {
	repo      TurnRepository
	publisher TurnPublisher
	cache     HistoryCache
}

func NewChatHistoryStore(repo TurnRepository, publisher TurnPublisher, cache HistoryCache) *ChatHistoryStore {
	return &ChatHistoryStore{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
	}
}

func (s *ChatHistoryStore) SaveTurn(ctx context.Context, turn model.ChatHistory) error {
	if turn.UserID == 0 {
		return ErrInvalidInput
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	s.invalidate(ctx, turn.UserID)

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, turn)
		if err == nil {
			return nil
		}
		log.Printf("publish chat history failed, writing directly: %v", err)
	}
	if err := s.repo.Create(ctx, &turn); err != nil {
		return err
	}
	s.invalidate(ctx, turn.UserID)
	return nil
}

// invalidate drops any list a concurrent reader cached before the insert landed.
func (s *ChatHistoryStore) invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	_ = s.cache.MarkDirty(ctx, userID)
	_ = s.cache.DeleteHistory(ctx, userID)
}

func (s *ChatHistoryStore) ListTurns(ctx context.Context, userID uint) ([]model.ChatHistory, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, userID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetHistory(ctx, userID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	turns, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, userID); dirtyErr == nil && !dirty {
			_ = s.cache.SetHistory(ctx, userID, turns)
		}
	}
	return turns, nil
}
