package ledger

import (
	"time"

	"github.com/funduq/funduq/internal/types"
	"github.com/shopspring/decimal"
)

// Entry is one payment outcome applied against a booking. GatewayPaymentID is
// unique across the ledger.
type Entry struct {
	ID               string                     `json:"id"`
	BookingID        string                     `json:"booking_id"`
	Amount           decimal.Decimal            `json:"amount"`
	Currency         string                     `json:"currency"`
	Method           string                     `json:"method"`
	Status           types.BookingPaymentStatus `json:"status"`
	GatewayPaymentID string                     `json:"gateway_payment_id"`
	Note             string                     `json:"note,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// IsCompleted reports whether the entry counts towards the booking's paid total
func (e *Entry) IsCompleted() bool {
	return e.Status == types.BookingPaymentStatusCompleted
}

// SumCompleted adds up the completed entries
func SumCompleted(entries []*Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.IsCompleted() {
			total = total.Add(e.Amount)
		}
	}
	return total
}
