package sentry

import (
	"context"
	"time"

	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/types"
	"github.com/getsentry/sentry-go"
)

// Service reports errors and spans to Sentry. Every method is a no-op when
// Sentry is disabled.
type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// NewSentryService initializes the Sentry SDK when enabled
func NewSentryService(cfg *config.Configuration, log *logger.Logger) *Service {
	s := &Service{cfg: cfg, logger: log}
	if !cfg.Sentry.Enabled {
		return s
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		EnableTracing:    cfg.Sentry.SampleRate > 0,
		TracesSampleRate: cfg.Sentry.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		log.Errorw("failed to initialize sentry, disabling", "error", err)
		s.cfg.Sentry.Enabled = false
		return s
	}

	log.Infow("sentry initialized", "environment", cfg.Sentry.Environment)
	return s
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.cfg.Sentry.Enabled
}

func (s *Service) CaptureException(err error) {
	if !s.IsEnabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureExceptionWithTags reports err with the request id and tags on the scope
func (s *Service) CaptureExceptionWithTags(ctx context.Context, err error, tags map[string]string) {
	if !s.IsEnabled() || err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if requestID := types.GetRequestID(ctx); requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// StartMonitoringSpan starts a span and returns the context carrying it. The
// span is nil when Sentry is disabled.
func (s *Service) StartMonitoringSpan(ctx context.Context, operation string, data map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.IsEnabled() {
		return nil, ctx
	}
	span := sentry.StartSpan(ctx, operation)
	for k, v := range data {
		span.SetData(k, v)
	}
	return span, span.Context()
}

// Flush waits for buffered events
func (s *Service) Flush(timeout time.Duration) bool {
	if !s.IsEnabled() {
		return true
	}
	return sentry.Flush(timeout)
}
