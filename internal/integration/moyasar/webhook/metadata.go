package webhook

import (
	"sort"
	"strings"

	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/types"
	"github.com/samber/lo"
)

// PaymentMetadata is what a payment was for, decoded once from the string map.
// It is one of BookingPaymentMetadata, SubscriptionPaymentMetadata or
// UnrecognizedMetadata.
type PaymentMetadata interface {
	isPaymentMetadata()
}

type BookingPaymentMetadata struct {
	BookingID string
}

// SubscriptionPaymentMetadata may carry an empty PlanID; refunds only need the user
type SubscriptionPaymentMetadata struct {
	UserID string
	PlanID string
}

// UnrecognizedMetadata keeps the key names for logging
type UnrecognizedMetadata struct {
	Keys []string
}

func (BookingPaymentMetadata) isPaymentMetadata()      {}
func (SubscriptionPaymentMetadata) isPaymentMetadata() {}
func (UnrecognizedMetadata) isPaymentMetadata()        {}

// DecodeMetadata picks the variant. booking_id wins when both booking and
// user keys are present.
func DecodeMetadata(md moyasar.Metadata) PaymentMetadata {
	value := func(key string) string {
		return strings.TrimSpace(md[key])
	}

	if bookingID := value(types.MetadataKeyBookingID); bookingID != "" {
		return BookingPaymentMetadata{BookingID: bookingID}
	}
	if userID := value(types.MetadataKeyUserID); userID != "" {
		return SubscriptionPaymentMetadata{
			UserID: userID,
			PlanID: strings.ToLower(value(types.MetadataKeyPlanID)),
		}
	}

	keys := lo.Keys(md)
	sort.Strings(keys)
	return UnrecognizedMetadata{Keys: keys}
}
