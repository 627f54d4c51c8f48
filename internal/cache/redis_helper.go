package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/rxflow/internal/config"
	"github.com/andresuchdata/rxflow/internal/domain"
)

const (
	rollupKeyPrefix = "rollup"
	defaultCacheTTL = time.Minute
	evictBatchSize  = 100
)

func newRedisClient(cfg config.CacheConfig) (*redis.Client, time.Duration, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, 0, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, 0, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.RollupTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return client, ttl, nil
}

// buildRedisOptions prefers REDIS_URL and falls back to host/port.
func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// familyPrefix is shared by every rollup of one report family, whatever its
// day or generation, so invalidation can sweep them with one pattern.
func familyPrefix(family domain.Family) string {
	return rollupKeyPrefix + ":" + family.String() + ":"
}

// buildRollupKey renders rollup:<family>:<sha1 of the normalised scope>.
// Query strings are lowercased so "Priority" and "priority" share a slot.
func buildRollupKey(key Key) string {
	parts := []string{
		"endpoint=" + key.Endpoint,
		"day=" + key.Day,
		"gen=" + strconv.FormatUint(key.Generation, 10),
		"days=" + strconv.Itoa(key.Query.Days),
		"limit=" + strconv.Itoa(key.Query.Limit),
	}
	if key.Query.Grouping != "" {
		parts = append(parts, "grouping="+strings.ToLower(key.Query.Grouping))
	}
	if key.Query.SortBy != "" {
		parts = append(parts, "sort="+strings.ToLower(key.Query.SortBy))
	}
	if key.Query.Type != "" {
		parts = append(parts, "type="+strings.ToLower(key.Query.Type))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return familyPrefix(key.Family) + hex.EncodeToString(hash[:])
}

// evictRollups removes every rollup under prefix. SCAN keeps redis
// responsive on large keyspaces where KEYS would block.
func evictRollups(ctx context.Context, client *redis.Client, prefix string) error {
	if !strings.HasPrefix(prefix, rollupKeyPrefix+":") {
		return fmt.Errorf("refusing to evict outside %s namespace: %q", rollupKeyPrefix, prefix)
	}
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, prefix+"*", evictBatchSize).Result()
		if err != nil {
			return fmt.Errorf("scan rollups %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("evict rollups %s: %w", prefix, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
