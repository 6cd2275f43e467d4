package generation

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seoengine/config"
	"github.com/seo-optimizer/seoengine/stats"
)

// Cache stores generated texts by key
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryCache keeps generated texts in process memory
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates an in-process cache whose entries expire after ttl
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false, nil
	}
	text, ok := v.(string)
	return text, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.items.SetDefault(key, value)
	return nil
}

// Len returns the number of cached entries, expired ones included
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

const redisKeyPrefix = "seo:generation:"

// RedisCache shares generated texts between instances through Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with a ping
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, redisKeyPrefix+key, value, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NewCache builds the cache selected by cfg. It returns nil for type "none".
func NewCache(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(cfg.TTL()), nil
	case "redis":
		rc, err := NewRedisCache(ctx, cfg.Redis, cfg.TTL())
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// Cached wraps a Generator and remembers successful, non-empty answers.
// Cache failures are logged and never fail a generation.
type Cached struct {
	next  Generator
	cache Cache
	stats *stats.Storage
	log   logrus.FieldLogger
}

// NewCached wraps next with cache. A nil stats storage counts nothing.
func NewCached(next Generator, cache Cache, usage *stats.Storage, log logrus.FieldLogger) *Cached {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cached{next: next, cache: cache, stats: usage, log: log}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Generate(ctx context.Context, prompt string) (string, error) {
	key := generateCacheKey(c.next.Name(), prompt)

	text, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).WithField("provider", c.next.Name()).Warn("generation cache read failed")
	}
	if found {
		c.stats.Increment(stats.GenerationCacheHits, 1)
		return text, nil
	}
	c.stats.Increment(stats.GenerationCacheMisses, 1)

	text, err = c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if text != "" {
		if err := c.cache.Set(ctx, key, text); err != nil {
			c.log.WithError(err).WithField("provider", c.next.Name()).Warn("generation cache write failed")
		}
	}
	return text, nil
}

// generateCacheKey creates a unique key for a provider and prompt
func generateCacheKey(provider, prompt string) string {
	hash := md5.Sum([]byte(provider + "|" + prompt))
	return hex.EncodeToString(hash[:])
}
