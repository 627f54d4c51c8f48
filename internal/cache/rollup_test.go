package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/andresuchdata/rxflow/internal/config"
	"github.com/andresuchdata/rxflow/internal/domain"
)

func TestBuildRollupKey(t *testing.T) {
	base := Key{
		Family:     domain.FamilyTurnaround,
		Endpoint:   "breakdown",
		Query:      domain.ReportQuery{Days: 30, Limit: 20, SortBy: "Priority"},
		Day:        "2024-03-20",
		Generation: 4,
	}
	a := buildRollupKey(base)
	if !strings.HasPrefix(a, "rollup:turnaround:") {
		t.Fatalf("key %s lacks family prefix", a)
	}

	lower := base
	lower.Query.SortBy = "priority"
	if b := buildRollupKey(lower); b != a {
		t.Fatalf("keys differ only by case: %s vs %s", a, b)
	}

	tests := []struct {
		name   string
		mutate func(k *Key)
	}{
		{"window", func(k *Key) { k.Query.Days = 7 }},
		{"endpoint", func(k *Key) { k.Endpoint = "summary" }},
		{"day", func(k *Key) { k.Day = "2024-03-21" }},
		{"generation", func(k *Key) { k.Generation = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := base
			tt.mutate(&k)
			got := buildRollupKey(k)
			if got == a {
				t.Fatalf("different %s shares key %s", tt.name, got)
			}
			if !strings.HasPrefix(got, familyPrefix(domain.FamilyTurnaround)) {
				t.Fatalf("key %s escaped the family prefix", got)
			}
		})
	}
}

func TestEvictRollupsStaysInNamespace(t *testing.T) {
	if err := evictRollups(context.Background(), nil, "session:"); err == nil {
		t.Fatal("expected foreign prefix to be rejected")
	}
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@example:6379/3"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "example:6379" || opts.DB != 3 || opts.Password != "secret" {
		t.Fatalf("unexpected url options %+v", opts)
	}
	if _, err := buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"}); err == nil {
		t.Fatal("expected invalid url error")
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewRollupCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := c.Set(ctx, Key{Family: domain.FamilyUsage, Endpoint: "summary"}, map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	var out map[string]int
	hit, err := c.Get(ctx, Key{Family: domain.FamilyUsage, Endpoint: "summary"}, &out)
	if err != nil || hit {
		t.Fatalf("noop cache hit=%v err=%v", hit, err)
	}
}
