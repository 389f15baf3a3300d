package webhook

import (
	"context"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/types"
	"github.com/shopspring/decimal"
)

// BookingPaymentInput is one payment outcome to record against a booking
type BookingPaymentInput struct {
	BookingID        string
	GatewayPaymentID string
	Amount           decimal.Decimal
	Currency         string
	Method           string
	Status           types.BookingPaymentStatus
	Note             string
}

// SubscriptionActivation activates or extends the user's premium plan
type SubscriptionActivation struct {
	UserID           string
	PlanID           string
	GatewayPaymentID string
}

// SubscriptionRevocation ends the user's premium plan after a refund
type SubscriptionRevocation struct {
	UserID           string
	GatewayPaymentID string
}

// ApplyResult is what an applier did with an outcome
type ApplyResult struct {
	AlreadyApplied bool
}

// BookingApplier must be re-entrant for the same gateway payment id
type BookingApplier interface {
	ApplyBookingPayment(ctx context.Context, input *BookingPaymentInput) (*ApplyResult, error)
}

// SubscriptionApplier must be re-entrant for the same user id
type SubscriptionApplier interface {
	Activate(ctx context.Context, input *SubscriptionActivation) (*ApplyResult, error)
	Revoke(ctx context.Context, input *SubscriptionRevocation) (*ApplyResult, error)
}

// Action names the branch the router took
type Action string

const (
	ActionLedgerCompleted       Action = "ledger_completed"
	ActionLedgerFailed          Action = "ledger_failed"
	ActionLedgerRefunded        Action = "ledger_refunded"
	ActionSubscriptionActivated Action = "subscription_activated"
	ActionSubscriptionRevoked   Action = "subscription_revoked"
	ActionLogged                Action = "logged"
	ActionIgnored               Action = "ignored"
)

// Outcome describes a routed event
type Outcome struct {
	EventType      EventType
	PaymentID      string
	Action         Action
	AlreadyApplied bool
}

// Mutated reports whether the event reached an applier
func (o *Outcome) Mutated() bool {
	return o.Action != ActionLogged && o.Action != ActionIgnored
}

// Router dispatches verified events by declared type and decoded metadata
type Router struct {
	bookings      BookingApplier
	subscriptions SubscriptionApplier
	logger        *logger.Logger
}

func NewRouter(bookings BookingApplier, subscriptions SubscriptionApplier, logger *logger.Logger) *Router {
	return &Router{
		bookings:      bookings,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// Route applies event. Only verified events may be passed in. Events that
// need no state change return an Outcome with ActionLogged or ActionIgnored.
func (r *Router) Route(ctx context.Context, event *Event) (*Outcome, error) {
	payment := &event.Payment
	meta := DecodeMetadata(payment.Metadata)
	log := r.logger.WithContext(ctx).With(
		"event_type", event.RawType,
		"payment_id", payment.ID,
	)

	switch event.Type {
	case EventPaymentSucceeded:
		switch m := meta.(type) {
		case BookingPaymentMetadata:
			return r.applyBooking(ctx, event, m, types.BookingPaymentStatusCompleted, "", ActionLedgerCompleted)
		case SubscriptionPaymentMetadata:
			// without a plan there is nothing to activate, and a retry cannot add one
			if m.PlanID != "" {
				return r.activate(ctx, event, m)
			}
		}
	case EventPaymentFailed:
		if m, ok := meta.(BookingPaymentMetadata); ok {
			return r.applyBooking(ctx, event, m, types.BookingPaymentStatusFailed, payment.Reason(), ActionLedgerFailed)
		}
	case EventPaymentCaptured:
		if m, ok := meta.(BookingPaymentMetadata); ok {
			return r.applyBooking(ctx, event, m, types.BookingPaymentStatusCompleted, "", ActionLedgerCompleted)
		}
	case EventPaymentRefunded:
		switch m := meta.(type) {
		case BookingPaymentMetadata:
			return r.applyBooking(ctx, event, m, types.BookingPaymentStatusRefunded, "", ActionLedgerRefunded)
		case SubscriptionPaymentMetadata:
			return r.revoke(ctx, event, m)
		}
	case EventPaymentProcessing, EventPaymentPartiallyRefunded:
		log.Infow("payment event needs no state change", "status", payment.Status)
		return r.outcome(event, ActionLogged), nil
	case EventUnknown:
		log.Warnw("ignoring unrecognized webhook event")
		return r.outcome(event, ActionIgnored), nil
	default:
		log.Warnw("ignoring webhook event with no handler")
		return r.outcome(event, ActionIgnored), nil
	}

	log.Warnw("webhook event metadata matches no applier, ignoring", "metadata", meta)
	return r.outcome(event, ActionIgnored), nil
}

func (r *Router) applyBooking(
	ctx context.Context,
	event *Event,
	meta BookingPaymentMetadata,
	status types.BookingPaymentStatus,
	note string,
	action Action,
) (*Outcome, error) {
	if err := requirePaymentID(event); err != nil {
		return nil, err
	}

	payment := &event.Payment
	res, err := r.bookings.ApplyBookingPayment(ctx, &BookingPaymentInput{
		BookingID:        meta.BookingID,
		GatewayPaymentID: payment.ID,
		Amount:           moyasar.FromMinorUnits(payment.Amount),
		Currency:         payment.Currency,
		Method:           paymentMethod(payment),
		Status:           status,
		Note:             note,
	})
	if err != nil {
		return nil, err
	}

	out := r.outcome(event, action)
	out.AlreadyApplied = res.AlreadyApplied
	return out, nil
}

func (r *Router) activate(ctx context.Context, event *Event, meta SubscriptionPaymentMetadata) (*Outcome, error) {
	if err := requirePaymentID(event); err != nil {
		return nil, err
	}

	res, err := r.subscriptions.Activate(ctx, &SubscriptionActivation{
		UserID:           meta.UserID,
		PlanID:           meta.PlanID,
		GatewayPaymentID: event.Payment.ID,
	})
	if err != nil {
		return nil, err
	}

	out := r.outcome(event, ActionSubscriptionActivated)
	out.AlreadyApplied = res.AlreadyApplied
	return out, nil
}

func (r *Router) revoke(ctx context.Context, event *Event, meta SubscriptionPaymentMetadata) (*Outcome, error) {
	if err := requirePaymentID(event); err != nil {
		return nil, err
	}

	res, err := r.subscriptions.Revoke(ctx, &SubscriptionRevocation{
		UserID:           meta.UserID,
		GatewayPaymentID: event.Payment.ID,
	})
	if err != nil {
		return nil, err
	}

	out := r.outcome(event, ActionSubscriptionRevoked)
	out.AlreadyApplied = res.AlreadyApplied
	return out, nil
}

func (r *Router) outcome(event *Event, action Action) *Outcome {
	return &Outcome{
		EventType: event.Type,
		PaymentID: event.Payment.ID,
		Action:    action,
	}
}

func requirePaymentID(event *Event) error {
	if event.Payment.ID != "" {
		return nil
	}
	return ierr.NewError("webhook payment has no id").
		WithHint("Webhook payment id is missing").
		WithReportableDetails(map[string]interface{}{
			"event_type": event.RawType,
		}).
		Mark(ierr.ErrValidation)
}

func paymentMethod(p *moyasar.PaymentRecord) string {
	if p.Source == nil || p.Source.Type == "" {
		return string(types.PaymentMethodRedirect)
	}
	return string(p.Source.Type)
}
