package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/rxflow/internal/config"
	"github.com/andresuchdata/rxflow/internal/domain"
)

// Key scopes one cached rollup. Day is the calendar day the window was
// resolved against and Generation is the store's data version for Family
// when the rollup was computed, so a value written after a later ingest is
// never read back.
type Key struct {
	Family     domain.Family
	Endpoint   string
	Query      domain.ReportQuery
	Day        string
	Generation uint64
}

// RollupCache stores rendered rollup responses per family and query. Ingest
// invalidates a family after its data changed.
type RollupCache interface {
	Get(ctx context.Context, key Key, dest any) (bool, error)
	Set(ctx context.Context, key Key, value any) error
	InvalidateFamily(ctx context.Context, family domain.Family) error
	InvalidateAll(ctx context.Context) error
}

type redisRollupCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRollupCache struct{}

// NewRollupCache connects to redis when caching is enabled, and otherwise
// returns a cache that never hits.
func NewRollupCache(cfg config.CacheConfig) (RollupCache, error) {
	if !cfg.Enabled {
		return &noopRollupCache{}, nil
	}
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisRollupCache{client: client, ttl: ttl}, nil
}

// NewRedisRollupCache wraps an existing client.
func NewRedisRollupCache(client *redis.Client, ttl time.Duration) RollupCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisRollupCache{client: client, ttl: ttl}
}

func NewNoopRollupCache() RollupCache {
	return &noopRollupCache{}
}

func (c *redisRollupCache) Get(ctx context.Context, key Key, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, buildRollupKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode rollup cache: %w", err)
	}
	return true, nil
}

func (c *redisRollupCache) Set(ctx context.Context, key Key, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode rollup cache: %w", err)
	}
	if err := c.client.Set(ctx, buildRollupKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRollupCache) InvalidateFamily(ctx context.Context, family domain.Family) error {
	return evictRollups(ctx, c.client, familyPrefix(family))
}

func (c *redisRollupCache) InvalidateAll(ctx context.Context) error {
	return evictRollups(ctx, c.client, rollupKeyPrefix+":")
}

func (n *noopRollupCache) Get(ctx context.Context, key Key, dest any) (bool, error) {
	return false, nil
}

func (n *noopRollupCache) Set(ctx context.Context, key Key, value any) error {
	return nil
}

func (n *noopRollupCache) InvalidateFamily(ctx context.Context, family domain.Family) error {
	return nil
}

func (n *noopRollupCache) InvalidateAll(ctx context.Context) error {
	return nil
}
