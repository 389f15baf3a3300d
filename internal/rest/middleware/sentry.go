package middleware

import (
	"time"

	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/types"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryMiddleware returns a middleware that captures panics and performance data
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryRequestContextMiddleware tags the request's Sentry scope with the
// request id. Add it after RequestIDMiddleware.
func SentryRequestContextMiddleware(c *gin.Context) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		c.Next()
		return
	}
	if requestID := types.GetRequestID(c.Request.Context()); requestID != "" {
		hub.Scope().SetTag("request_id", requestID)
	}
	c.Next()
}
