// Package cache provides a typed cache for API responses, backed by either an
// in-memory store or redis depending on configuration.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocachelib "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/simmerhq/simmer/config"
)

// Cache wraps a byte cache with json encoding and a key prefix.
type Cache[T any] struct {
	cache  *gocachelib.Cache[[]byte]
	prefix string
	ttl    time.Duration
}

// New creates a cache for the configured backend.
func New[T any](cfg *config.CacheConfig, prefix string) *Cache[T] {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second

	var inner *gocachelib.Cache[[]byte]
	if cfg.Type == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		inner = gocachelib.New[[]byte](redis_store.NewRedis(redisClient))
	} else {
		gocacheClient := gocache.New(ttl, 2*ttl)
		inner = gocachelib.New[[]byte](go_store.NewGoCache(gocacheClient))
	}

	return &Cache[T]{
		cache:  inner,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves a value from the cache.
func (c *Cache[T]) Get(ctx context.Context, key any) (T, error) {
	data, err := c.cache.Get(ctx, c.key(key))
	if err != nil {
		return *new(T), err
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return *new(T), err
	}
	return result, nil
}

// Set stores a value in the cache with the configured TTL.
func (c *Cache[T]) Set(ctx context.Context, key any, object T) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, c.key(key), data, store.WithExpiration(c.ttl))
}

// Delete removes a single key from the cache.
func (c *Cache[T]) Delete(ctx context.Context, key any) error {
	return c.cache.Delete(ctx, c.key(key))
}

// Clear removes all values from the cache.
func (c *Cache[T]) Clear(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

func (c *Cache[T]) key(key any) string {
	return c.prefix + fmt.Sprintf("%v", key)
}
