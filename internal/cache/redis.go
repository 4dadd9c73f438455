package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis adapts a go-redis client to the generic Cache interface, storing
// values as JSON. Redis errors degrade to cache misses; a cache must never
// take a request down with it.
type Redis[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient dials Redis and verifies the connection. addr accepts a
// redis:// URL or a bare host:port.
func NewRedisClient(addr string) (*redis.Client, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedis[T any](client *redis.Client, prefix string, ttl time.Duration) *Redis[T] {
	return &Redis[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *Redis[T]) Get(key string) (T, bool) {
	var zero T
	raw, err := c.client.Get(context.Background(), c.prefix+key).Bytes()
	if err != nil {
		return zero, false
	}
	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Warn("Discarding undecodable cache entry", "key", c.prefix+key, "error", err)
		return zero, false
	}
	return data, true
}

func (c *Redis[T]) Set(key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := c.client.SetEx(context.Background(), c.prefix+key, raw, c.ttl).Err(); err != nil {
		slog.Warn("Failed to write cache entry", "key", c.prefix+key, "error", err)
	}
}

func (c *Redis[T]) Delete(key string) {
	if err := c.client.Del(context.Background(), c.prefix+key).Err(); err != nil {
		slog.Warn("Failed to delete cache entry", "key", c.prefix+key, "error", err)
	}
}
