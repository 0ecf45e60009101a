// Package cache provides a Redis-backed TTL cache as an explicitly passed
// object. There is no package-level client and no global memoization: every
// consumer receives its own *TTLCache with a documented key prefix and TTL,
// and expiry (or an explicit Invalidate call from the writer) is the only
// invalidation trigger.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLCache caches JSON-serializable values under a namespaced key prefix.
// Safe for concurrent use.
type TTLCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a cache. Keys are stored as "<prefix>:<key>" and expire after
// ttl.
func New(rdb *redis.Client, prefix string, ttl time.Duration) *TTLCache {
	return &TTLCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// TTL returns the configured expiry.
func (c *TTLCache) TTL() time.Duration { return c.ttl }

func (c *TTLCache) fullKey(key string) string {
	return c.prefix + ":" + key
}

// GetJSON looks up key and unmarshals the cached value into dst. The bool
// reports whether the key was present.
func (c *TTLCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key with the configured TTL.
func (c *TTLCache) SetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.fullKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate removes keys immediately. Writers call this when the backing
// data changes before the TTL elapses.
func (c *TTLCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
