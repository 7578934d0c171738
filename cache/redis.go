package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dapphub-labs/dapphub/config"
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg *config.CacheConfig) (*RedisCache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{
		client: redis.NewClient(opt),
		ttl:    time.Duration(cfg.GetTTLSecs()) * time.Second,
	}, nil
}

func (c *RedisCache) Get(key string) ([]byte, bool) {
	bz, err := c.client.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	return bz, true
}

func (c *RedisCache) Set(key string, value []byte) {
	c.client.Set(context.Background(), key, value, c.ttl)
}
