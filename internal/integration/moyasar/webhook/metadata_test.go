package webhook

import (
	"testing"

	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/stretchr/testify/assert"
)

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		name string
		md   moyasar.Metadata
		want PaymentMetadata
	}{
		{
			name: "booking",
			md:   moyasar.Metadata{"booking_id": "B1"},
			want: BookingPaymentMetadata{BookingID: "B1"},
		},
		{
			name: "subscription",
			md:   moyasar.Metadata{"user_id": "U1", "plan_id": "Yearly"},
			want: SubscriptionPaymentMetadata{UserID: "U1", PlanID: "yearly"},
		},
		{
			name: "refund needs only user",
			md:   moyasar.Metadata{"user_id": "U1"},
			want: SubscriptionPaymentMetadata{UserID: "U1"},
		},
		{
			name: "booking wins",
			md:   moyasar.Metadata{"booking_id": "B1", "user_id": "U1", "plan_id": "monthly"},
			want: BookingPaymentMetadata{BookingID: "B1"},
		},
		{
			name: "blank booking id",
			md:   moyasar.Metadata{"booking_id": "  ", "order": "7"},
			want: UnrecognizedMetadata{Keys: []string{"booking_id", "order"}},
		},
		{
			name: "nil",
			md:   nil,
			want: UnrecognizedMetadata{Keys: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeMetadata(tt.md))
		})
	}
}
