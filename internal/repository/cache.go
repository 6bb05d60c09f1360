package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the key/value store the config repository reads through.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetIfAbsent writes value only when key holds nothing.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache implements Cache on go-redis. Keys are namespaced with prefix.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get returns redis.Nil when the key is absent.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.prefix+key).Result()
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *RedisCache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.SetNX(ctx, c.prefix+key, value, ttl).Err()
}

// ConnectRedis parses url and verifies the server answers PING.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
