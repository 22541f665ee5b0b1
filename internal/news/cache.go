package news

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache guarda bloques de noticias ya formateados.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

type memoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache usa un cache en proceso; sirve cuando no hay Redis configurado.
func NewMemoryCache(defaultTTL time.Duration) Cache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &memoryCache{items: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.items.Set(key, value, ttl)
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisCache struct {
	client redisKV
	prefix string
}

func NewRedisCache(client *redis.Client) Cache {
	if client == nil {
		return nil
	}
	return &redisCache{client: client, prefix: "news:"}
}

// Get trata cualquier error de Redis como miss.
func (c *redisCache) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}
