package subscription

import (
	"time"

	"github.com/funduq/funduq/internal/types"
)

// Subscription is the premium plan record of a user. There is one per user.
type Subscription struct {
	ID                 string                   `json:"id"`
	UserID             string                   `json:"user_id"`
	PlanID             types.SubscriptionPlan   `json:"plan_id"`
	Status             types.SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	GatewayPaymentID   string                   `json:"gateway_payment_id"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// IsActiveAt reports whether the subscription grants premium at t
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == types.SubscriptionStatusActive && t.Before(s.CurrentPeriodEnd)
}

// AppliedBy reports whether the record already reflects paymentID with status
func (s *Subscription) AppliedBy(paymentID string, status types.SubscriptionStatus) bool {
	return s.GatewayPaymentID == paymentID && s.Status == status
}

// AppliedPayment records that a gateway payment has been applied to a user's
// subscription with a given status. The record only remembers the latest
// payment, so older payments are deduplicated here.
type AppliedPayment struct {
	GatewayPaymentID string                   `json:"gateway_payment_id"`
	UserID           string                   `json:"user_id"`
	Status           types.SubscriptionStatus `json:"status"`
	AppliedAt        time.Time                `json:"applied_at"`
}
