package sentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestService_Disabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sentry.Enabled = false
	s := NewSentryService(cfg, logger.GetLogger())

	assert.False(t, s.IsEnabled())
	s.CaptureException(errors.New("boom"))
	s.CaptureExceptionWithTags(context.Background(), errors.New("boom"), map[string]string{"k": "v"})

	span, ctx := s.StartMonitoringSpan(context.Background(), "op", nil)
	assert.Nil(t, span)
	assert.NotNil(t, ctx)
	assert.True(t, s.Flush(time.Millisecond))

	var nilService *Service
	assert.False(t, nilService.IsEnabled())
}
