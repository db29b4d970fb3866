// Package cache provides a read-through cache for ranking responses.
//
// Ranking is recomputed from a full metrics snapshot on every request, so a
// short TTL cache in front of it absorbs ranking-page traffic. The cache is
// optional; when disabled a no-op implementation is used and every request
// recomputes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apuntia/apuntia/internal/domain/ranking"
	"github.com/apuntia/apuntia/internal/domain/types"
)

// ErrMiss reports that no cached entry exists for the key.
var ErrMiss = errors.New("cache miss")

// RankingCache stores computed ranking lists keyed by query.
type RankingCache interface {
	// Get returns the cached entries for q, or ErrMiss.
	Get(ctx context.Context, q ranking.Query) ([]types.RankedEntry, error)
	// Set stores the entries for q.
	Set(ctx context.Context, q ranking.Query, entries []types.RankedEntry) error
	// Close releases cache resources.
	Close() error
}

// key builds a stable cache key from the query.
func key(q ranking.Query) string {
	return fmt.Sprintf("ranking:%s:%d:%s:%d", q.Metric, q.Days, q.Subject, q.Limit)
}

// Noop is the disabled cache: Get always misses, Set is a no-op.
type Noop struct{}

// Get always returns ErrMiss.
func (Noop) Get(context.Context, ranking.Query) ([]types.RankedEntry, error) {
	return nil, ErrMiss
}

// Set discards the entries.
func (Noop) Set(context.Context, ranking.Query, []types.RankedEntry) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }

// Option applies a configuration option to the Redis cache.
type Option func(*Redis)

// WithTTL sets how long cached rankings stay fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *Redis) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// Redis caches ranking responses in Redis with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// defaultTTL keeps rankings fresh enough for a trends page.
const defaultTTL = 60 * time.Second

// NewRedis connects to Redis at addr.
func NewRedis(ctx context.Context, addr string, opts ...Option) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	c := &Redis{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the cached entries for q, or ErrMiss.
func (c *Redis) Get(ctx context.Context, q ranking.Query) ([]types.RankedEntry, error) {
	raw, err := c.client.Get(ctx, key(q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var entries []types.RankedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Treat a corrupt entry as a miss; it will be overwritten.
		return nil, ErrMiss
	}
	return entries, nil
}

// Set stores the entries for q with the configured TTL.
func (c *Redis) Set(ctx context.Context, q ranking.Query, entries []types.RankedEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(q), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *Redis) Close() error {
	return c.client.Close()
}
