package service

import (
	"context"

	"github.com/funduq/funduq/internal/api/dto"
	"github.com/funduq/funduq/internal/cache"
	"github.com/funduq/funduq/internal/domain/webhookevent"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/funduq/funduq/internal/publisher"
	"github.com/funduq/funduq/internal/types"
)

// WebhookDelivery is one inbound webhook request as read off the wire
type WebhookDelivery struct {
	Body      []byte
	Signature string
	Timestamp string
}

// WebhookService verifies, audits and applies inbound gateway notifications
type WebhookService interface {
	HandleMoyasarWebhook(ctx context.Context, delivery *WebhookDelivery) (*dto.WebhookResponse, error)
}

type webhookService struct {
	ServiceParams
	router   *webhook.Router
	verifier *webhook.Verifier
}

// NewEventRouter wires the router to the booking and subscription appliers
func NewEventRouter(params ServiceParams) *webhook.Router {
	return webhook.NewRouter(
		NewBookingPaymentApplier(params),
		NewSubscriptionApplier(params),
		params.Logger,
	)
}

func NewWebhookService(params ServiceParams, router *webhook.Router) WebhookService {
	return &webhookService{
		ServiceParams: params,
		router:        router,
		verifier:      webhook.NewVerifier(params.Config),
	}
}

// HandleMoyasarWebhook returns only after the event has been applied or
// rejected. Nothing reaches the router before the signature is verified.
// Header values take precedence over the signature and timestamp fields in
// the body.
func (s *webhookService) HandleMoyasarWebhook(ctx context.Context, delivery *WebhookDelivery) (*dto.WebhookResponse, error) {
	log := s.Logger.WithContext(ctx)

	event, parseErr := webhook.ParseEvent(delivery.Body)

	signature, timestamp := delivery.Signature, delivery.Timestamp
	if event != nil {
		if signature == "" {
			signature = event.Signature
		}
		if timestamp == "" {
			timestamp = event.Timestamp
		}
	}

	if err := s.verifier.Check(delivery.Body, signature, timestamp); err != nil {
		log.Warnw("rejected webhook delivery", "error", err)
		if event != nil {
			s.record(ctx, event, false)
		}
		return nil, err
	}
	if parseErr != nil {
		log.Warnw("dropping malformed webhook body", "error", parseErr)
		return nil, parseErr
	}

	audit := s.record(ctx, event, true)

	span, routeCtx := s.SentryService.StartMonitoringSpan(ctx, "webhook.route", map[string]interface{}{
		"event_type": event.RawType,
		"payment_id": event.Payment.ID,
	})
	outcome, err := s.router.Route(routeCtx, event)
	if span != nil {
		span.Finish()
	}
	if audit != nil {
		s.markProcessed(ctx, audit, err)
	}
	if err != nil {
		log.Errorw("failed to apply webhook event",
			"event_type", event.RawType,
			"payment_id", event.Payment.ID,
			"error", err)
		s.SentryService.CaptureExceptionWithTags(ctx, err, map[string]string{
			"component":  "webhook",
			"event_type": event.RawType,
			"payment_id": event.Payment.ID,
		})
		return nil, err
	}

	log.Infow("processed webhook event",
		"event_type", event.RawType,
		"payment_id", outcome.PaymentID,
		"action", outcome.Action,
		"already_applied", outcome.AlreadyApplied)

	// a notification means the gateway record moved on, so any cached copy is stale
	if outcome.PaymentID != "" {
		s.Cache.Delete(ctx, cache.PaymentKey(outcome.PaymentID))
	}

	if outcome.Mutated() {
		s.publish(ctx, event, outcome)
	}

	return &dto.WebhookResponse{
		Processed:      true,
		EventType:      event.RawType,
		Action:         string(outcome.Action),
		AlreadyApplied: outcome.AlreadyApplied,
	}, nil
}

// record writes the audit row. A failed write is logged and does not stop
// the delivery from being applied.
func (s *webhookService) record(ctx context.Context, event *webhook.Event, signatureValid bool) *webhookevent.Event {
	stored, err := s.WebhookEventRepo.Record(ctx, &webhookevent.Event{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		Provider:         webhookevent.ProviderMoyasar,
		EventID:          event.DeliveryID(),
		EventType:        event.RawType,
		GatewayPaymentID: event.Payment.ID,
		Payload:          string(event.Raw),
		SignatureValid:   signatureValid,
		ReceivedCount:    1,
		ReceivedAt:       s.now(),
	})
	if err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to record webhook delivery",
			"event_id", event.DeliveryID(),
			"error", err)
		return nil
	}
	if stored.ReceivedCount > 1 {
		s.Logger.WithContext(ctx).Infow("webhook redelivery",
			"event_id", stored.EventID,
			"received_count", stored.ReceivedCount)
	}
	return stored
}

func (s *webhookService) markProcessed(ctx context.Context, audit *webhookevent.Event, routeErr error) {
	var processingErr string
	if routeErr != nil {
		processingErr = routeErr.Error()
	}
	if err := s.WebhookEventRepo.MarkProcessed(ctx, audit.ID, processingErr); err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to mark webhook event processed",
			"webhook_event_id", audit.ID,
			"error", err)
	}
}

func (s *webhookService) publish(ctx context.Context, event *webhook.Event, outcome *webhook.Outcome) {
	if s.EventPublisher == nil {
		return
	}
	err := s.EventPublisher.PublishApplied(ctx, &publisher.PaymentEvent{
		ID:               types.GenerateUUID(),
		Type:             publisher.EventPaymentApplied,
		WebhookEventType: event.RawType,
		Action:           string(outcome.Action),
		GatewayPaymentID: outcome.PaymentID,
		AlreadyApplied:   outcome.AlreadyApplied,
		OccurredAt:       s.now(),
	})
	if err != nil {
		s.Logger.WithContext(ctx).Warnw("failed to publish payment event",
			"payment_id", outcome.PaymentID,
			"error", err)
	}
}
