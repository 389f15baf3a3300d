package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client
type Client struct {
	rdb *redis.Client
	log *logger.Logger
}

// Options builds go-redis options from the redis config section
func Options(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		PoolSize:     cfg.PoolSize,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewClient connects and pings Redis
func NewClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	rdb := redis.NewClient(Options(cfg.Redis))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, ierr.WithError(err).
			WithHint("Unable to connect to Redis").
			WithReportableDetails(map[string]interface{}{
				"host": cfg.Redis.Host,
				"port": cfg.Redis.Port,
			}).
			Mark(ierr.ErrSystem)
	}

	log.Infow("connected to redis", "host", cfg.Redis.Host, "db", cfg.Redis.DB)
	return &Client{rdb: rdb, log: log}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
