package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "insight:"

// RedisInsightCache stores summarizer responses keyed by prompt hash.
type RedisInsightCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisInsightCache wraps client. A nil client yields a cache that always misses.
func NewRedisInsightCache(client redis.Cmdable, ttl time.Duration) *RedisInsightCache {
	return &RedisInsightCache{client: client, ttl: ttl}
}

// Key derives the cache key for a prompt.
func Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached response for prompt and whether it was present.
func (c *RedisInsightCache) Get(ctx context.Context, prompt string) (string, bool, error) {
	if c == nil || c.client == nil {
		return "", false, nil
	}
	value, err := c.client.Get(ctx, Key(prompt)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores response for prompt using the configured TTL.
func (c *RedisInsightCache) Set(ctx context.Context, prompt, response string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, Key(prompt), response, c.ttl).Err()
}
