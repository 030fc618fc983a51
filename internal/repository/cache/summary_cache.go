// Package cache keeps short-lived copies of computed read models in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

const summaryKey = "dashboard:summary"

// SummaryCache stores the dashboard summary under a fixed key with a TTL.
type SummaryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSummaryCache connects to Redis and verifies the connection.
func NewSummaryCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*SummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not create summary cache: %w", err)
	}
	return NewSummaryCacheWithClient(client, ttl), nil
}

// NewSummaryCacheWithClient wraps an existing client.
func NewSummaryCacheWithClient(client redis.UniversalClient, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Load returns the cached summary, or nil when the key is absent or expired.
func (c *SummaryCache) Load(ctx context.Context) (*models.Summary, error) {
	raw, err := c.client.Get(ctx, summaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", summaryKey, err)
	}
	var summary models.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode %s: %w", summaryKey, err)
	}
	return &summary, nil
}

// Store replaces the cached summary.
func (c *SummaryCache) Store(ctx context.Context, summary models.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", summaryKey, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *SummaryCache) Close() error {
	return c.client.Close()
}
