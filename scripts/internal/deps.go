package internal

import (
	"fmt"
	"os"

	"github.com/funduq/funduq/internal/cache"
	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/postgres"
	"github.com/funduq/funduq/internal/publisher"
	pgrepo "github.com/funduq/funduq/internal/repository/postgres"
	"github.com/funduq/funduq/internal/sentry"
	"github.com/funduq/funduq/internal/service"
	"github.com/gocarina/gocsv"
)

type scriptDeps struct {
	params service.ServiceParams
	close  func()
}

func newScriptDeps() (*scriptDeps, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	pgClient := postgres.NewClient(db, cfg, log)

	client, err := moyasar.NewClient(cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create moyasar client: %w", err)
	}

	pub, err := publisher.NewPublisher(cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}
	eventPublisher := publisher.NewEventPublisher(pub, cfg, log)

	params := service.NewServiceParams(
		log,
		cfg,
		pgClient,
		pgrepo.NewLedgerRepository(pgClient, log),
		pgrepo.NewBookingRepository(pgClient, log),
		pgrepo.NewUserRepository(pgClient, log),
		pgrepo.NewSubscriptionRepository(pgClient, log),
		pgrepo.NewWebhookEventRepository(pgClient, log),
		client,
		cache.NewInMemoryCache(cfg),
		eventPublisher,
		sentry.NewSentryService(cfg, log),
	)

	return &scriptDeps{
		params: params,
		close: func() {
			_ = eventPublisher.Close()
			_ = db.Close()
			_ = log.Close()
		},
	}, nil
}

func isDryRun() bool {
	return os.Getenv("DRY_RUN") == "true"
}

// readCSV loads FILE_PATH into rows using the csv struct tags of T
func readCSV[T any]() ([]*T, error) {
	path := os.Getenv("FILE_PATH")
	if path == "" {
		return nil, fmt.Errorf("FILE_PATH is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*T
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}
