package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "newposter:tenant:slug:"

// RedisCache shares tenant entries between API replicas, so an invalidation
// on one replica is seen by all of them.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	if client == nil {
		panic("tenant redis cache: client is required")
	}
	return &RedisCache{client: client}
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, slug string) (Tenant, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+slug).Bytes()
	if errors.Is(err, redis.Nil) {
		return Tenant{}, ErrCacheMiss
	}
	if err != nil {
		return Tenant{}, fmt.Errorf("get tenant from redis: %w", err)
	}

	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return Tenant{}, fmt.Errorf("decode cached tenant: %w", err)
	}
	return t, nil
}

func (c *RedisCache) Set(ctx context.Context, t Tenant, ttl time.Duration) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tenant: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+t.Slug, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set tenant in redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, redisKeyPrefix+slug).Err(); err != nil {
		return fmt.Errorf("delete tenant from redis: %w", err)
	}
	return nil
}
