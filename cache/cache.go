package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/dapphub-labs/dapphub/config"
)

// Cache is a short-TTL byte cache. Values are serialized views the read
// services are free to re-fetch from the ledger at any time; a miss is
// never an error.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

func NewCache(cfg *config.CacheConfig) (Cache, error) {
	if cfg.CacheType == config.CacheTypeRedis {
		return NewRedisCache(cfg)
	}
	return NewLocalCache(cfg.GetCacheSize(), time.Duration(cfg.GetTTLSecs())*time.Second)
}

type localEntry struct {
	value    []byte
	expireAt time.Time
}

type LocalCache struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewLocalCache(size uint64, ttl time.Duration) (*LocalCache, error) {
	cache, err := lru.New(int(size))
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (c *LocalCache) Get(key string) ([]byte, bool) {
	v, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	entry := v.(localEntry)
	if c.now().After(entry.expireAt) {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *LocalCache) Set(key string, value []byte) {
	c.cache.Add(key, localEntry{
		value:    value,
		expireAt: c.now().Add(c.ttl),
	})
}
