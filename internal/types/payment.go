package types

import (
	"time"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/samber/lo"
)

// BookingPaymentStatus is the status of a booking payment ledger entry
type BookingPaymentStatus string

const (
	BookingPaymentStatusCompleted BookingPaymentStatus = "completed"
	BookingPaymentStatusFailed    BookingPaymentStatus = "failed"
	BookingPaymentStatusRefunded  BookingPaymentStatus = "refunded"
)

func (s BookingPaymentStatus) String() string {
	return string(s)
}

func (s BookingPaymentStatus) Validate() error {
	allowed := []BookingPaymentStatus{
		BookingPaymentStatusCompleted,
		BookingPaymentStatusFailed,
		BookingPaymentStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewErrorf("invalid booking payment status: %s", s).
			WithHint("Booking payment status must be completed, failed or refunded").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionStatus is the status of a premium subscription record
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusRefunded SubscriptionStatus = "refunded"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// SubscriptionPlan identifies a premium plan. The plan decides the period length.
type SubscriptionPlan string

const (
	SubscriptionPlanMonthly SubscriptionPlan = "monthly"
	SubscriptionPlanYearly  SubscriptionPlan = "yearly"
)

func (p SubscriptionPlan) String() string {
	return string(p)
}

func (p SubscriptionPlan) Validate() error {
	switch p {
	case SubscriptionPlanMonthly, SubscriptionPlanYearly:
		return nil
	default:
		return ierr.NewErrorf("unsupported plan id: %q", string(p)).
			WithHint("Plan must be monthly or yearly").
			WithReportableDetails(map[string]interface{}{
				"plan_id": string(p),
			}).
			Mark(ierr.ErrValidation)
	}
}

// PeriodEnd returns the end of a period starting at start.
func (p SubscriptionPlan) PeriodEnd(start time.Time) (time.Time, error) {
	if err := p.Validate(); err != nil {
		return time.Time{}, err
	}
	if p == SubscriptionPlanYearly {
		return start.AddDate(1, 0, 0), nil
	}
	return start.AddDate(0, 1, 0), nil
}

// PaymentMethod is the gateway source type used to pay
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "creditcard"
	PaymentMethodSTCPay     PaymentMethod = "stcpay"
	PaymentMethodApplePay   PaymentMethod = "applepay"
	PaymentMethodRedirect   PaymentMethod = "redirect"
)

// Metadata keys carried on a gateway payment to tie it back to our domain.
const (
	MetadataKeyBookingID = "booking_id"
	MetadataKeyUserID    = "user_id"
	MetadataKeyPlanID    = "plan_id"
)
