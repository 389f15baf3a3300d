package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wkafka "github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/kafka"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/types"
)

// EventPaymentApplied is the message type published after a webhook changed state
const EventPaymentApplied = "payment.applied"

// PaymentEvent is the payload of a payment.applied message
type PaymentEvent struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	WebhookEventType string    `json:"webhook_event_type"`
	Action           string    `json:"action"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	AlreadyApplied   bool      `json:"already_applied"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// EventPublisher publishes payment domain events. Publishing is best effort
// from the caller's side; state is already committed.
type EventPublisher interface {
	PublishApplied(ctx context.Context, event *PaymentEvent) error
	Close() error
}

// NewPublisher returns the Kafka publisher when Kafka is enabled, otherwise an
// in-process channel publisher
func NewPublisher(cfg *config.Configuration, log *logger.Logger) (message.Publisher, error) {
	if !cfg.Kafka.Enabled {
		log.Infow("kafka disabled, publishing payment events in process")
		return gochannel.NewGoChannel(gochannel.Config{}, log.GetWatermillLogger()), nil
	}

	pub, err := wkafka.NewPublisher(wkafka.PublisherConfig{
		Brokers:               cfg.Kafka.Brokers,
		Marshaler:             wkafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.GetSaramaConfig(cfg),
	}, log.GetWatermillLogger())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to Kafka").
			WithReportableDetails(map[string]interface{}{
				"brokers": cfg.Kafka.Brokers,
			}).
			Mark(ierr.ErrSystem)
	}
	return pub, nil
}

type eventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *logger.Logger
}

func NewEventPublisher(pub message.Publisher, cfg *config.Configuration, log *logger.Logger) EventPublisher {
	return &eventPublisher{
		publisher: pub,
		topic:     cfg.Kafka.Topic,
		logger:    log,
	}
}

func (p *eventPublisher) PublishApplied(ctx context.Context, event *PaymentEvent) error {
	if event.ID == "" {
		event.ID = watermill.NewUUID()
	}
	if event.Type == "" {
		event.Type = EventPaymentApplied
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode payment event").
			Mark(ierr.ErrInternal)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", event.Type)
	msg.Metadata.Set("gateway_payment_id", event.GatewayPaymentID)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.WithContext(ctx).Errorw("failed to publish payment event",
			"event_id", event.ID,
			"gateway_payment_id", event.GatewayPaymentID,
			"error", err)
		return ierr.WithError(err).
			WithHint("Failed to publish payment event").
			Mark(ierr.ErrSystem)
	}

	p.logger.WithContext(ctx).Debugw("published payment event",
		"event_id", event.ID,
		"topic", p.topic,
		"action", event.Action)
	return nil
}

func (p *eventPublisher) Close() error {
	return p.publisher.Close()
}
