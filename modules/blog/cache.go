package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyCategories = "blog:categories"
	cacheKeyRecent     = "blog:recent"
)

// Cache is a read-through Redis cache for the sidebar queries that run
// on every page: the category list and the recent-entries list. Redis
// being unreachable degrades to hitting Postgres directly.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewCache creates a Cache. A zero ttl keeps cached values for an hour.
func NewCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{client: client, ttl: ttl, log: log}
}

// Categories returns the cached category list, loading and caching it
// on a miss.
func (c *Cache) Categories(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	return cached(ctx, c, cacheKeyCategories, load)
}

// RecentEntries returns the cached recent-entries list, loading and
// caching it on a miss.
func (c *Cache) RecentEntries(ctx context.Context, load func(context.Context) ([]Entry, error)) ([]Entry, error) {
	return cached(ctx, c, cacheKeyRecent, load)
}

// Invalidate drops both cached lists. Called after any entry or
// category write.
func (c *Cache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, cacheKeyCategories, cacheKeyRecent).Err(); err != nil {
		c.log.WarnContext(ctx, "failed to invalidate blog cache", "error", err)
	}
}

func cached[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
		c.log.WarnContext(ctx, "dropping undecodable cache value", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err = json.Marshal(value)
	if err != nil {
		return value, fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return value, nil
}
