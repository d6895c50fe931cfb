package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: try the cache first, and on a
// miss invoke the loader (which must populate dest), storing the result with
// the given TTL. Cache failures degrade to a plain loader call so a Redis
// outage never breaks reads.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func() error) error {
	c := GetClient()
	if c == nil {
		return loader()
	}

	raw, err := c.Get(ctx, key).Result()
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(raw), dest); jsonErr == nil {
			return nil
		}
		// Corrupt entry, fall through to the loader and rewrite it.
	} else if !errors.Is(err, redis.Nil) {
		return loader()
	}

	if err := loader(); err != nil {
		return err
	}

	if data, jsonErr := json.Marshal(dest); jsonErr == nil {
		c.Set(ctx, key, data, ttl)
	}
	return nil
}

// Invalidate removes the given keys from the cache, ignoring failures.
func Invalidate(ctx context.Context, keys ...string) {
	c := GetClient()
	if c == nil || len(keys) == 0 {
		return
	}
	c.Del(ctx, keys...)
}
