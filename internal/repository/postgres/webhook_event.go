package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/funduq/funduq/internal/domain/webhookevent"
	"github.com/funduq/funduq/internal/logger"
	pg "github.com/funduq/funduq/internal/postgres"
)

const webhookEventColumns = `id, provider, event_id, event_type, gateway_payment_id, payload, signature_valid, received_count, processed_at, processing_error, received_at`

type webhookEventRepository struct {
	client pg.IClient
	logger *logger.Logger
}

func NewWebhookEventRepository(client pg.IClient, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{
		client: client,
		logger: logger,
	}
}

// Record keeps the first payload and signature outcome of a redelivered event
// unless the first one failed verification.
func (r *webhookEventRepository) Record(ctx context.Context, event *webhookevent.Event) (*webhookevent.Event, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		INSERT INTO webhook_events (`+webhookEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, NULL, '', $8)
		ON CONFLICT ON CONSTRAINT webhook_events_provider_event_id_key DO UPDATE SET
			received_count  = webhook_events.received_count + 1,
			payload         = CASE WHEN webhook_events.signature_valid THEN webhook_events.payload ELSE EXCLUDED.payload END,
			signature_valid = webhook_events.signature_valid OR EXCLUDED.signature_valid
		RETURNING `+webhookEventColumns,
		event.ID,
		event.Provider,
		event.EventID,
		event.EventType,
		event.GatewayPaymentID,
		event.Payload,
		event.SignatureValid,
		event.ReceivedAt,
	)

	stored, err := scanWebhookEvent(row)
	if err != nil {
		return nil, pg.WrapError(err, "webhook event", "record")
	}
	return stored, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id string, processingErr string) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE webhook_events SET processed_at = $2, processing_error = $3 WHERE id = $1`,
		id, time.Now().UTC(), processingErr)
	if err != nil {
		return pg.WrapError(err, "webhook event", "update")
	}
	return nil
}

func (r *webhookEventRepository) Get(ctx context.Context, id string) (*webhookevent.Event, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT `+webhookEventColumns+` FROM webhook_events WHERE id = $1`, id)

	event, err := scanWebhookEvent(row)
	if err != nil {
		return nil, pg.WrapError(err, "webhook event", "get")
	}
	return event, nil
}

func scanWebhookEvent(s scanner) (*webhookevent.Event, error) {
	var e webhookevent.Event
	var processedAt sql.NullTime
	if err := s.Scan(
		&e.ID,
		&e.Provider,
		&e.EventID,
		&e.EventType,
		&e.GatewayPaymentID,
		&e.Payload,
		&e.SignatureValid,
		&e.ReceivedCount,
		&processedAt,
		&e.ProcessingError,
		&e.ReceivedAt,
	); err != nil {
		return nil, err
	}
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}
	return &e, nil
}
