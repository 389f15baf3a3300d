package webhookevent

import (
	"context"
	"time"
)

const ProviderMoyasar = "moyasar"

// Event is the audit row of one webhook delivery. Redeliveries of the same
// provider event id share a row and bump ReceivedCount.
type Event struct {
	// ID is the prefixed row id
	ID string `json:"id"`

	// Provider is the sending gateway
	Provider string `json:"provider"`

	// EventID is the provider's event id, or a derived delivery id
	EventID string `json:"event_id"`

	EventType        string `json:"event_type"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`

	// Payload is the raw body as received
	Payload string `json:"payload"`

	SignatureValid bool `json:"signature_valid"`

	// ReceivedCount is 1 on first delivery
	ReceivedCount int `json:"received_count"`

	// ProcessedAt is set once routing finished, with or without error
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	ProcessingError string    `json:"processing_error,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
}

// Repository is the webhook audit log
type Repository interface {
	// Record inserts the delivery or, for a known provider event id, bumps the
	// received count. It returns the stored row.
	Record(ctx context.Context, event *Event) (*Event, error)

	// MarkProcessed stamps processed_at and the processing error, if any
	MarkProcessed(ctx context.Context, id string, processingErr string) error

	Get(ctx context.Context, id string) (*Event, error)
}
