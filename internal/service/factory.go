package service

import (
	"time"

	"github.com/funduq/funduq/internal/cache"
	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/domain/booking"
	"github.com/funduq/funduq/internal/domain/ledger"
	"github.com/funduq/funduq/internal/domain/subscription"
	"github.com/funduq/funduq/internal/domain/user"
	"github.com/funduq/funduq/internal/domain/webhookevent"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/postgres"
	"github.com/funduq/funduq/internal/publisher"
	"github.com/funduq/funduq/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	LedgerRepo       ledger.Repository
	BookingRepo      booking.Repository
	UserRepo         user.Repository
	SubscriptionRepo subscription.Repository
	WebhookEventRepo webhookevent.Repository

	// Gateway and side channels
	MoyasarClient  moyasar.Client
	Cache          cache.Cache
	EventPublisher publisher.EventPublisher
	SentryService  *sentry.Service

	// Clock defaults to time.Now when nil
	Clock func() time.Time
}

// NewServiceParams bundles the dependencies provided by fx
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	ledgerRepo ledger.Repository,
	bookingRepo booking.Repository,
	userRepo user.Repository,
	subscriptionRepo subscription.Repository,
	webhookEventRepo webhookevent.Repository,
	moyasarClient moyasar.Client,
	cache cache.Cache,
	eventPublisher publisher.EventPublisher,
	sentryService *sentry.Service,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		LedgerRepo:       ledgerRepo,
		BookingRepo:      bookingRepo,
		UserRepo:         userRepo,
		SubscriptionRepo: subscriptionRepo,
		WebhookEventRepo: webhookEventRepo,
		MoyasarClient:    moyasarClient,
		Cache:            cache,
		EventPublisher:   eventPublisher,
		SentryService:    sentryService,
		Clock:            time.Now,
	}
}

func (p ServiceParams) now() time.Time {
	if p.Clock == nil {
		return time.Now().UTC()
	}
	return p.Clock().UTC()
}
