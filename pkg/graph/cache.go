package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wardenhq/warden/pkg/observability"
)

const (
	closureMembers = "members"
	closureRoles   = "roles"

	generationKey = "warden:graph:gen"
)

// ClosureCache memoizes nested-member and nested-role closures in Redis.
//
// Invalidation is generation-based: every structural mutation bumps a single
// generation counter, and cache keys embed the generation they were computed
// at. Stale entries become unreachable instead of being hunted down, and
// expire via TTL. A nil *ClosureCache is valid and disables caching.
type ClosureCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewClosureCache creates a closure cache on the given Redis client.
// metrics may be nil.
func NewClosureCache(client *redis.Client, ttl time.Duration, metrics *observability.Metrics) *ClosureCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ClosureCache{client: client, ttl: ttl, metrics: metrics}
}

// Get returns the cached closure for the group, if present at the current
// generation. Any Redis error is treated as a miss.
func (c *ClosureCache) Get(ctx context.Context, kind, groupID string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	gen, err := c.generation(ctx)
	if err != nil {
		c.metrics.RecordCacheMiss(kind)
		return nil, false
	}
	data, err := c.client.Get(ctx, c.key(kind, gen, groupID)).Result()
	if err != nil {
		c.metrics.RecordCacheMiss(kind)
		return nil, false
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		c.metrics.RecordCacheMiss(kind)
		return nil, false
	}
	c.metrics.RecordCacheHit(kind)
	return values, true
}

// Set stores a computed closure at the current generation. Failures are
// ignored; the cache is best-effort.
func (c *ClosureCache) Set(ctx context.Context, kind, groupID string, values []string) {
	if c == nil || c.client == nil {
		return
	}
	gen, err := c.generation(ctx)
	if err != nil {
		return
	}
	data, err := json.Marshal(values)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(kind, gen, groupID), data, c.ttl)
}

// Invalidate bumps the generation counter, orphaning every cached closure.
func (c *ClosureCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Incr(ctx, generationKey)
}

func (c *ClosureCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *ClosureCache) key(kind string, gen int64, groupID string) string {
	return fmt.Sprintf("warden:closure:%s:%d:%s", kind, gen, groupID)
}
