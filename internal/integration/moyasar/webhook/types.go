package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
)

// EventType is the closed set of webhook events the router understands
type EventType string

const (
	EventPaymentSucceeded         EventType = "payment.succeeded"
	EventPaymentFailed            EventType = "payment.failed"
	EventPaymentProcessing        EventType = "payment.processing"
	EventPaymentCaptured          EventType = "payment.captured"
	EventPaymentRefunded          EventType = "payment.refunded"
	EventPaymentPartiallyRefunded EventType = "payment.partially_refunded"

	// EventUnknown is any declared type outside the set above
	EventUnknown EventType = "unknown"
)

// nativeEventTypes maps the gateway's own underscore event names
var nativeEventTypes = map[string]EventType{
	"payment_paid":               EventPaymentSucceeded,
	"payment_failed":             EventPaymentFailed,
	"payment_captured":           EventPaymentCaptured,
	"payment_refunded":           EventPaymentRefunded,
	"payment_partially_refunded": EventPaymentPartiallyRefunded,
}

// ParseEventType returns EventUnknown for anything it does not recognize
func ParseEventType(s string) EventType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch EventType(s) {
	case EventPaymentSucceeded,
		EventPaymentFailed,
		EventPaymentProcessing,
		EventPaymentCaptured,
		EventPaymentRefunded,
		EventPaymentPartiallyRefunded:
		return EventType(s)
	}
	if t, ok := nativeEventTypes[s]; ok {
		return t
	}
	return EventUnknown
}

func (t EventType) String() string {
	return string(t)
}

// Event is one inbound notification. It lives only for the request that
// delivered it.
type Event struct {
	ID        string
	Type      EventType
	RawType   string
	Payment   moyasar.PaymentRecord
	Raw       []byte
	Signature string
	Timestamp string
}

// DeliveryID identifies the delivery for the audit log. Events without an id
// fall back to type and payment id, which is stable across redeliveries.
func (e *Event) DeliveryID() string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s:%s:%s", e.RawType, e.Payment.ID, e.Payment.Status)
}

// envelope accepts both {event, payment} and the native {type, data} shape
type envelope struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	Type      string                 `json:"type"`
	Payment   *moyasar.PaymentRecord `json:"payment"`
	Data      *moyasar.PaymentRecord `json:"data"`
	Signature string                 `json:"signature"`
	Timestamp json.RawMessage        `json:"timestamp"`
}

// ParseEvent decodes a raw webhook body. Only malformed JSON or a missing
// event type is an error; unknown types parse to EventUnknown.
func ParseEvent(raw []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook body is not valid JSON").
			Mark(ierr.ErrValidation)
	}

	rawType := env.Event
	if rawType == "" {
		rawType = env.Type
	}
	if rawType == "" {
		return nil, ierr.NewError("webhook event type is missing").
			WithHint("Webhook body has no event type").
			Mark(ierr.ErrValidation)
	}

	event := &Event{
		ID:        env.ID,
		Type:      ParseEventType(rawType),
		RawType:   rawType,
		Raw:       raw,
		Signature: env.Signature,
		Timestamp: rawScalar(env.Timestamp),
	}
	switch {
	case env.Payment != nil:
		event.Payment = *env.Payment
	case env.Data != nil:
		event.Payment = *env.Data
	}
	return event, nil
}

// rawScalar returns a JSON string or number as text
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if s, err := strconv.Unquote(string(raw)); err == nil {
		return s
	}
	return string(raw)
}

// EventTypeForStatus returns the event a payment in status would have been
// delivered with. Statuses with no settled outcome map to EventUnknown.
func EventTypeForStatus(status moyasar.PaymentStatus) EventType {
	switch status {
	case moyasar.PaymentStatusPaid, moyasar.PaymentStatusCompleted:
		return EventPaymentSucceeded
	case moyasar.PaymentStatusFailed:
		return EventPaymentFailed
	case moyasar.PaymentStatusCaptured:
		return EventPaymentCaptured
	case moyasar.PaymentStatusRefunded:
		return EventPaymentRefunded
	case moyasar.PaymentStatusPartiallyRefunded:
		return EventPaymentPartiallyRefunded
	case moyasar.PaymentStatusInitiated, moyasar.PaymentStatusProcessing, moyasar.PaymentStatusAuthorized:
		return EventPaymentProcessing
	default:
		return EventUnknown
	}
}

// EventFromPayment builds a synthetic event for a payment fetched from the
// gateway rather than delivered by webhook.
func EventFromPayment(payment *moyasar.PaymentRecord) *Event {
	t := EventTypeForStatus(payment.Status)
	return &Event{
		Type:    t,
		RawType: t.String(),
		Payment: *payment,
	}
}
