package api

import (
	v1 "github.com/funduq/funduq/internal/api/v1"
	"github.com/funduq/funduq/internal/config"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Payment *v1.PaymentHandler
	Webhook *v1.WebhookHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.RecoveryWithWriter(log.GetGinLogger()),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(log),
		middleware.SentryMiddleware(cfg),
		middleware.SentryRequestContextMiddleware,
		middleware.ErrorHandler(cfg),
	)

	router.GET("/health", handlers.Health.Health)

	v1Router := router.Group("/v1")

	payments := v1Router.Group("/payments")
	{
		payments.POST("", middleware.RateLimitMiddleware(cfg), handlers.Payment.CreateBookingPayment)
		payments.GET("", handlers.Payment.ListPayments)
		payments.POST("/reprocess", handlers.Payment.ReprocessPayments)
		payments.GET("/:id", handlers.Payment.GetPayment)
		payments.POST("/:id/capture", handlers.Payment.CapturePayment)
		payments.POST("/:id/refund", handlers.Payment.RefundPayment)
	}

	v1Router.POST("/subscriptions/checkout", handlers.Payment.CreateSubscriptionPayment)

	// Moyasar authenticates by signature, not by API key
	webhooks := v1Router.Group("/webhooks")
	{
		webhooks.POST("/moyasar", handlers.Webhook.HandleMoyasarWebhook)
	}

	return router
}
