package booking

import (
	"context"

	"github.com/shopspring/decimal"
)

// Totals is the payment summary of a booking row owned by the PMS. The payment
// core only ever writes PaidAmount; Balance is derived.
type Totals struct {
	BookingID   string          `json:"booking_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Balance     decimal.Decimal `json:"balance"`
}

// WithPaid returns a copy with PaidAmount set and Balance recomputed
func (t Totals) WithPaid(paid decimal.Decimal) *Totals {
	t.PaidAmount = paid
	t.Balance = t.TotalAmount.Sub(paid)
	return &t
}

// Repository is the narrow write path into bookings
type Repository interface {
	Get(ctx context.Context, bookingID string) (*Totals, error)

	// UpdatePaidAmount stores paid and the resulting balance. It returns a not
	// found error when the booking does not exist.
	UpdatePaidAmount(ctx context.Context, bookingID string, paid decimal.Decimal) (*Totals, error)
}
