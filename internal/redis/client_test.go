package redis

import (
	"testing"
	"time"

	"github.com/funduq/funduq/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{
		Host:     "cache.internal",
		Port:     6380,
		DB:       2,
		PoolSize: 8,
		Timeout:  3 * time.Second,
		UseTLS:   true,
	})

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 8, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.NotNil(t, opts.TLSConfig)
}
