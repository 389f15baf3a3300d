package service

import (
	"github.com/funduq/funduq/internal/sentry"
	"github.com/funduq/funduq/internal/testutil"
)

func newTestServiceParams(base *testutil.BaseServiceTestSuite) ServiceParams {
	stores := base.GetStores()
	return ServiceParams{
		Logger:           base.GetLogger(),
		Config:           base.GetConfig(),
		DB:               base.GetDB(),
		LedgerRepo:       stores.LedgerRepo,
		BookingRepo:      stores.BookingRepo,
		UserRepo:         stores.UserRepo,
		SubscriptionRepo: stores.SubscriptionRepo,
		WebhookEventRepo: stores.WebhookEventRepo,
		MoyasarClient:    base.GetMoyasarClient(),
		Cache:            base.GetCache(),
		EventPublisher:   base.GetPublisher(),
		SentryService:    sentry.NewSentryService(base.GetConfig(), base.GetLogger()),
		Clock:            base.Clock,
	}
}
