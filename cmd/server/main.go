package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/funduq/funduq/internal/api"
	v1 "github.com/funduq/funduq/internal/api/v1"
	"github.com/funduq/funduq/internal/cache"
	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/postgres"
	"github.com/funduq/funduq/internal/publisher"
	"github.com/funduq/funduq/internal/redis"
	pgrepo "github.com/funduq/funduq/internal/repository/postgres"
	"github.com/funduq/funduq/internal/sentry"
	"github.com/funduq/funduq/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			// Core dependencies
			config.NewConfig,
			logger.NewLogger,
			sentry.NewSentryService,

			// Database
			postgres.NewDB,
			postgres.NewClient,

			// Cache and events
			provideRedis,
			cache.New,
			publisher.NewPublisher,
			publisher.NewEventPublisher,

			// Gateway
			provideMoyasarClient,

			// Repositories
			pgrepo.NewLedgerRepository,
			pgrepo.NewBookingRepository,
			pgrepo.NewUserRepository,
			pgrepo.NewSubscriptionRepository,
			pgrepo.NewWebhookEventRepository,

			// Services
			service.NewServiceParams,
			service.NewEventRouter,
			service.NewPaymentService,
			service.NewWebhookService,
			service.NewReprocessService,

			// API
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(runMigrations, startServer),
	)

	app.Run()
}

// provideRedis connects only when the cache is backed by Redis
func provideRedis(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*redis.Client, error) {
	if !cfg.Cache.Enabled || cache.CacheType(cfg.Cache.Type) != cache.CacheTypeRedis {
		return nil, nil
	}

	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func provideMoyasarClient(cfg *config.Configuration, log *logger.Logger) (moyasar.Client, error) {
	return moyasar.NewClient(cfg, log)
}

func provideHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	paymentService service.PaymentService,
	webhookService service.WebhookService,
	reprocessService service.ReprocessService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(),
		Payment: v1.NewPaymentHandler(paymentService, reprocessService, log),
		Webhook: v1.NewWebhookHandler(webhookService, cfg, log),
	}
}

func runMigrations(cfg *config.Configuration, db *sql.DB, log *logger.Logger) error {
	if !cfg.Postgres.AutoMigrate {
		log.Infow("auto migrate disabled, skipping migrations")
		return nil
	}
	return postgres.Migrate(db, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	db *sql.DB,
	eventPublisher publisher.EventPublisher,
	sentryService *sentry.Service,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Errorw("server shutdown failed", "error", err)
			}

			if err := eventPublisher.Close(); err != nil {
				log.Errorw("failed to close event publisher", "error", err)
			}
			sentryService.Flush(2 * time.Second)
			if err := db.Close(); err != nil {
				log.Errorw("failed to close database", "error", err)
			}
			return log.Close()
		},
	})
}
