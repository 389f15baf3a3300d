package testutil

import (
	"context"

	"github.com/funduq/funduq/internal/domain/booking"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/shopspring/decimal"
)

// InMemoryBookingStore implements booking.Repository
type InMemoryBookingStore struct {
	*InMemoryStore[*booking.Totals]

	// UpdateErr, when set, fails every UpdatePaidAmount
	UpdateErr error
}

func NewInMemoryBookingStore() *InMemoryBookingStore {
	return &InMemoryBookingStore{
		InMemoryStore: NewInMemoryStore[*booking.Totals](),
	}
}

// AddBooking seeds a booking with nothing paid
func (s *InMemoryBookingStore) AddBooking(bookingID string, total decimal.Decimal) {
	_ = s.InMemoryStore.Create(context.Background(), bookingID, &booking.Totals{
		BookingID:   bookingID,
		TotalAmount: total,
		PaidAmount:  decimal.Zero,
		Balance:     total,
	})
}

func (s *InMemoryBookingStore) Get(ctx context.Context, bookingID string) (*booking.Totals, error) {
	t, err := s.InMemoryStore.Get(ctx, bookingID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("booking not found").
			Mark(ierr.ErrNotFound)
	}
	c := *t
	return &c, nil
}

func (s *InMemoryBookingStore) UpdatePaidAmount(ctx context.Context, bookingID string, paid decimal.Decimal) (*booking.Totals, error) {
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}

	t, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	next := t.WithPaid(paid)
	if err := s.InMemoryStore.Update(ctx, bookingID, next); err != nil {
		return nil, err
	}
	c := *next
	return &c, nil
}
