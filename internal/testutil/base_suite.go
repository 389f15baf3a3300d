package testutil

import (
	"context"
	"time"

	"github.com/funduq/funduq/internal/cache"
	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/logger"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories shared by a test
type Stores struct {
	LedgerRepo       *InMemoryLedgerStore
	BookingRepo      *InMemoryBookingStore
	UserRepo         *InMemoryUserStore
	SubscriptionRepo *InMemorySubscriptionStore
	WebhookEventRepo *InMemoryWebhookEventStore
}

// BaseServiceTestSuite sets up fresh stores, fakes and a fixed clock for every
// test. Service suites embed it and build their service in SetupTest.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    *Stores
	db        *MockPostgresClient
	moyasar   *FakeMoyasarClient
	cache     cache.Cache
	publisher *RecordingPublisher
	config    *config.Configuration
	logger    *logger.Logger
	now       time.Time
}

const TestWebhookSecret = "whsec_test"

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.config = config.GetDefaultConfig()
	s.config.Moyasar.SecretKey = "sk_test_secret"
	s.config.Moyasar.WebhookSecret = TestWebhookSecret
	s.config.Reprocess.InitialBackoff = time.Millisecond
	s.logger = logger.GetLogger()
	s.now = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

	s.stores = &Stores{
		LedgerRepo:       NewInMemoryLedgerStore(),
		BookingRepo:      NewInMemoryBookingStore(),
		UserRepo:         NewInMemoryUserStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		WebhookEventRepo: NewInMemoryWebhookEventStore(),
	}
	s.db = NewMockPostgresClient()
	s.moyasar = NewFakeMoyasarClient()
	s.cache = cache.NewInMemoryCache(s.config)
	s.publisher = NewRecordingPublisher()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() *Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetMoyasarClient() *FakeMoyasarClient {
	return s.moyasar
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetPublisher() *RecordingPublisher {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow is the fixed time returned by Clock
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

func (s *BaseServiceTestSuite) Clock() time.Time {
	return s.now
}
