package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Corner324/spimexpulse/internal/logger"
)

// Through implements the read-through pattern used by the trading
// service: try the cache first, fall back to the loader on a miss,
// then populate the cache with a TTL ending at the next daily reset.
//
// Behavior:
//   - A nil client runs the loader directly with no caching.
//   - Cache read errors other than a miss are logged and treated as a
//     miss; they never fail the request.
//   - Cache write errors are logged and swallowed for the same reason.
func Through[T any](ctx context.Context, c *Client, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T

	if c != nil {
		err := c.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.L().Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to database")
		}
	}

	loaded, err := load(ctx)
	if err != nil {
		return loaded, err
	}

	if c != nil {
		ttl := TTLUntilDailyReset(time.Now())
		if err := c.Set(ctx, key, loaded, ttl); err != nil {
			logger.L().Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return loaded, nil
}
