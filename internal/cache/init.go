package cache

import (
	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/redis"
)

// CacheType represents the type of cache to use
type CacheType string

const (
	CacheTypeInMemory CacheType = "inmemory"
	CacheTypeRedis    CacheType = "redis"
)

// New builds the configured cache. The redis client is only used for
// CacheTypeRedis and may be nil otherwise.
func New(cfg *config.Configuration, client *redis.Client, log *logger.Logger) Cache {
	switch CacheType(cfg.Cache.Type) {
	case CacheTypeRedis:
		if client != nil {
			log.Infow("cache initialized", "type", CacheTypeRedis)
			return NewRedisCache(client.GetClient(), cfg, log)
		}
		log.Warnw("redis cache requested without a redis client, using in-memory cache")
	}

	log.Infow("cache initialized", "type", CacheTypeInMemory)
	return NewInMemoryCache(cfg)
}
