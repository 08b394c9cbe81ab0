package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"mindwell/internal/model"
)

// HistoryCache keeps a short-lived copy of a user's persisted turn pairs.
// A dirty marker is set on every write so readers skip the cache until the
// asynchronous insert has had time to land.
type HistoryCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &HistoryCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *HistoryCache) GetHistory(ctx context.Context, userID uint) ([]model.ChatHistory, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var turns []model.ChatHistory
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return turns, true, nil
}

func (c *HistoryCache) SetHistory(ctx context.Context, userID uint, turns []model.ChatHistory) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, historyKey(userID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) DeleteHistory(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) MarkDirty(ctx context.Context, userID uint) error {
	if err := c.client.Set(ctx, dirtyKey(userID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) IsDirty(ctx context.Context, userID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func historyKey(userID uint) string {
	return fmt.Sprintf("companion:history:%d", userID)
}

func dirtyKey(userID uint) string {
	return fmt.Sprintf("companion:history:dirty:%d", userID)
}
