package testutil

import (
	"context"

	"github.com/funduq/funduq/internal/domain/ledger"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/shopspring/decimal"
)

// InMemoryLedgerStore implements ledger.Repository keyed by gateway payment id
type InMemoryLedgerStore struct {
	*InMemoryStore[*ledger.Entry]

	// UpsertErr, when set, fails every Upsert
	UpsertErr error
}

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		InMemoryStore: NewInMemoryStore[*ledger.Entry](),
	}
}

func copyEntry(e *ledger.Entry) *ledger.Entry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func (s *InMemoryLedgerStore) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*ledger.Entry, error) {
	e, err := s.InMemoryStore.Get(ctx, gatewayPaymentID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("booking payment not found").
			Mark(ierr.ErrNotFound)
	}
	return copyEntry(e), nil
}

// Upsert mirrors the SQL upsert: the stored id, booking id and created_at
// survive, and an empty note keeps the stored one
func (s *InMemoryLedgerStore) Upsert(ctx context.Context, entry *ledger.Entry) (*ledger.Entry, error) {
	if s.UpsertErr != nil {
		return nil, s.UpsertErr
	}
	if entry == nil {
		return nil, ierr.NewError("booking payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	stored := s.InMemoryStore.Upsert(ctx, entry.GatewayPaymentID, func(existing *ledger.Entry, found bool) *ledger.Entry {
		next := copyEntry(entry)
		if found {
			next.ID = existing.ID
			next.BookingID = existing.BookingID
			next.CreatedAt = existing.CreatedAt
			if next.Note == "" {
				next.Note = existing.Note
			}
		}
		return next
	})
	return copyEntry(stored), nil
}

func (s *InMemoryLedgerStore) SumCompletedByBooking(ctx context.Context, bookingID string) (decimal.Decimal, error) {
	entries, err := s.ListByBooking(ctx, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.SumCompleted(entries), nil
}

func (s *InMemoryLedgerStore) ListByBooking(ctx context.Context, bookingID string) ([]*ledger.Entry, error) {
	entries, err := s.InMemoryStore.List(ctx, bookingID, ledgerBookingFilterFn, ledgerSortFn)
	if err != nil {
		return nil, err
	}
	out := make([]*ledger.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, copyEntry(e))
	}
	return out, nil
}

func ledgerBookingFilterFn(_ context.Context, e *ledger.Entry, filter interface{}) bool {
	bookingID, ok := filter.(string)
	return !ok || e.BookingID == bookingID
}

func ledgerSortFn(i, j *ledger.Entry) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.GatewayPaymentID < j.GatewayPaymentID
	}
	return i.CreatedAt.Before(j.CreatedAt)
}
