package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Corner324/spimexpulse/config"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = fmt.Errorf("cache: key not found")

// Client wraps a Redis connection and provides JSON-encoded get/set
// helpers for the read API caches.
//
// A nil *Client is a valid value: every method degrades to a no-op
// (miss on reads, silent skip on writes), so the API keeps serving
// from Postgres when Redis is unavailable.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis using the supplied configuration and verifies
// the connection with a ping.
//
// Parameters:
//   - cfg: Redis host, port, and logical database number.
//
// Returns:
//   - *Client: a ready-to-use cache client.
//   - error: non-nil if the connection could not be established.
func New(cfg config.RedisConfig) (*Client, error) {
	opt := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Get loads the JSON value stored under key into dest.
//
// Returns ErrCacheMiss when the key does not exist or the client is nil.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	if c == nil || c.rdb == nil {
		return ErrCacheMiss
	}

	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache decode %q: %w", key, err)
	}
	return nil
}

// Set stores value under key as JSON with the given TTL.
//
// A nil client silently skips the write.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// DeletePattern removes every key matching the given glob pattern.
//
// Used by the daily reset scheduler to invalidate all API responses
// at once after new bulletins are published.
func (c *Client) DeletePattern(ctx context.Context, pattern string) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %q: %w", pattern, err)
	}

	if len(keys) > 0 {
		return c.rdb.Del(ctx, keys...).Err()
	}
	return nil
}

// HealthCheck pings Redis. A nil client reports an error so readiness
// probes can show the degraded state.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("cache: not connected")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
