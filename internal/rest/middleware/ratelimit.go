package middleware

import (
	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware is a process wide token bucket. A non-positive rate
// disables it.
func RateLimitMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if cfg.RateLimit.PaymentsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.PaymentsPerSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			_ = c.Error(ierr.NewError("payment rate limit exceeded").
				WithHint("Too many payment requests, try again shortly").
				Mark(ierr.ErrRateLimited))
			c.Abort()
			return
		}
		c.Next()
	}
}
