// Package cache provides a small TTL cache with wildcard invalidation, backed by
// process memory or Redis, plus a typed read-through helper.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePattern removes every key matching a glob pattern such as "reports:u1:*".
	DeletePattern(ctx context.Context, pattern string) error
}

// Wrap returns the cached value for key, or calls load and caches its result for ttl.
// Cache failures degrade to calling load; load errors are returned and nothing is cached.
func Wrap[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if data, err := json.Marshal(value); err == nil {
		_ = c.Set(ctx, key, data, ttl)
	}

	return value, nil
}
