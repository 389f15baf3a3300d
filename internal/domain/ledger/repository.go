package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository stores booking payment ledger entries
type Repository interface {
	// GetByGatewayPaymentID returns a not found error when no entry exists
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Entry, error)

	// Upsert inserts the entry or updates the row with the same gateway
	// payment id, and returns the stored row
	Upsert(ctx context.Context, entry *Entry) (*Entry, error)

	// SumCompletedByBooking sums the amounts of completed entries
	SumCompletedByBooking(ctx context.Context, bookingID string) (decimal.Decimal, error)

	ListByBooking(ctx context.Context, bookingID string) ([]*Entry, error)
}
