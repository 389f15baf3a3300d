package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// DeleteRetryDelay is the wait before the single delete retry
	DeleteRetryDelay = 100 * time.Millisecond

	// ScanCount is the SCAN batch hint
	ScanCount = 100
)

// RedisCache implements Cache on Redis. Non-string values are stored as JSON;
// read them back with UnmarshalCacheValue.
type RedisCache struct {
	client  *redis.Client
	log     *logger.Logger
	enabled bool
}

func NewRedisCache(client *redis.Client, cfg *config.Configuration, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client:  client,
		log:     log,
		enabled: cfg.Cache.Enabled,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}
	span := StartCacheSpan(ctx, "redis", "get", map[string]interface{}{"key": key})
	defer FinishSpan(span)

	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			SetSpanError(span, err)
			c.log.Errorw("redis GET error", "key", key, "error", err)
		}
		return nil, false
	}
	SetSpanSuccess(span)
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}
	if expiration == 0 {
		expiration = ExpiryDefaultRedis
	}

	var strValue string
	switch v := value.(type) {
	case string:
		strValue = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			c.log.Errorw("failed to marshal cache value", "key", key, "error", err)
			return
		}
		strValue = string(b)
	}

	if err := c.client.Set(ctx, key, strValue, expiration).Err(); err != nil {
		c.log.Errorw("redis SET error", "key", key, "error", err)
	}
}

// Delete retries once on a fresh context so an invalidation survives a
// cancelled request
func (c *RedisCache) Delete(ctx context.Context, key string) {
	err := c.client.Del(ctx, key).Err()
	if err == nil {
		return
	}
	c.log.Warnw("redis DEL failed, retrying", "key", key, "error", err)

	retryCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	time.Sleep(DeleteRetryDelay)

	if err := c.client.Del(retryCtx, key).Err(); err != nil {
		c.log.Errorw("redis DEL retry failed", "key", key, "error", err)
	}
}

func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", ScanCount).Iterator()

	var keys []string
	flush := func() {
		if len(keys) == 0 {
			return
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.log.Errorw("redis DEL batch error", "prefix", prefix, "error", err)
		}
		keys = keys[:0]
	}

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 1000 {
			flush()
		}
	}
	flush()

	if err := iter.Err(); err != nil {
		c.log.Errorw("redis SCAN error", "prefix", prefix, "error", err)
	}
}

func (c *RedisCache) Flush(ctx context.Context) {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		c.log.Errorw("redis FLUSHDB error", "error", err)
	}
}
