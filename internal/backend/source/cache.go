package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/redis/go-redis/v9"
)

// Cache stores fetched source bytes by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// NewCache creates the cache selected by cacheType: "none" (or empty), "memory" or "redis".
func NewCache(cacheType string, maxEntries int, redisOptions *redis.Options) (Cache, error) {
	switch cacheType {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(maxEntries), nil
	case "redis":
		if redisOptions == nil {
			return nil, fmt.Errorf("redis cache requires redis options")
		}
		return NewRedisCache(redis.NewClient(redisOptions)), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	now   func() time.Time
}

// NewMemoryCache creates a memory cache holding at most maxEntries values; zero means no limit.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		cache: lru.New(maxEntries),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	entry := v.(memoryEntry)
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.cache.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.cache.Add(key, entry)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.cache.Clear()
	c.mu.Unlock()
	return nil
}

// RedisCache stores values in redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing redis client. Close closes the client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
