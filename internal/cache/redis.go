package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
	"github.com/redis/go-redis/v9"
)

const generationKey = "generation"

// RedisCache shares registry results between instances. Invalidate bumps a
// generation counter that is part of every key, so stale entries are never
// read again and expire on their own.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to the redis server at url (redis://host:port/db).
func NewRedisCache(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("can't parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("can't ping redis: %w", err)
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (c *RedisCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, c.prefix+generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *RedisCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return c.prefix + gen + ":" + key, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]entity.Filter, bool) {
	k, err := c.key(ctx, key)
	if err != nil {
		slog.Default().WarnContext(ctx, "can't read registry cache generation", slog.String("err", err.Error()))
		return nil, false
	}
	b, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Default().WarnContext(ctx, "can't read registry cache", slog.String("err", err.Error()))
		}
		return nil, false
	}
	var filters []entity.Filter
	if err := json.Unmarshal(b, &filters); err != nil {
		slog.Default().WarnContext(ctx, "can't decode registry cache entry", slog.String("key", k), slog.String("err", err.Error()))
		return nil, false
	}
	return filters, true
}

func (c *RedisCache) Set(ctx context.Context, key string, filters []entity.Filter) {
	k, err := c.key(ctx, key)
	if err != nil {
		slog.Default().WarnContext(ctx, "can't read registry cache generation", slog.String("err", err.Error()))
		return
	}
	b, err := json.Marshal(filters)
	if err != nil {
		slog.Default().WarnContext(ctx, "can't encode registry cache entry", slog.String("err", err.Error()))
		return
	}
	if err := c.client.Set(ctx, k, b, c.ttl).Err(); err != nil {
		slog.Default().WarnContext(ctx, "can't write registry cache", slog.String("err", err.Error()))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, c.prefix+generationKey).Err(); err != nil {
		slog.Default().ErrorContext(ctx, "can't invalidate registry cache", slog.String("err", err.Error()))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
