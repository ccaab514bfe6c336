package wordle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusnest/forum/internal/calendar"
)

const (
	// WordCachePrefix is the Redis key prefix for cached daily words.
	WordCachePrefix = "wordle:word:"

	wordCacheTTL = 48 * time.Hour
)

// RedisCache caches daily words in Redis as JSON strings.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func wordKey(day calendar.Day) string {
	return WordCachePrefix + day.String()
}

// Get returns (nil, nil) on a miss.
func (c *RedisCache) Get(ctx context.Context, day calendar.Day) (*DailyWord, error) {
	data, err := c.client.Get(ctx, wordKey(day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wordle: cache get: %w", err)
	}
	var w DailyWord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("wordle: cache decode: %w", err)
	}
	return &w, nil
}

func (c *RedisCache) Set(ctx context.Context, w *DailyWord) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("wordle: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, wordKey(w.Day), data, wordCacheTTL).Err(); err != nil {
		return fmt.Errorf("wordle: cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, day calendar.Day) error {
	if err := c.client.Del(ctx, wordKey(day)).Err(); err != nil {
		return fmt.Errorf("wordle: cache delete: %w", err)
	}
	return nil
}
