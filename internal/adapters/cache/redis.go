package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/talentradar/pkg/metrics"
)

// RedisOptions configures the redis cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // used when Set gets a zero ttl
}

// Redis is a Cache backed by a redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis creates a redis cache. The connection is established lazily.
func NewRedis(opts RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 2 * time.Second,
	})
	return &Redis{client: client, ttl: opts.TTL}
}

// Ping checks connectivity.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Get implements Cache.Get.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheRequest("miss")
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordCacheRequest("error")
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	metrics.RecordCacheRequest("hit")
	return val, true, nil
}

// Set implements Cache.Set.
func (c *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *Redis) Close() error {
	return c.client.Close()
}
