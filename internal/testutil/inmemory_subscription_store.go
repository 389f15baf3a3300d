package testutil

import (
	"context"

	"github.com/funduq/funduq/internal/domain/subscription"
	ierr "github.com/funduq/funduq/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository keyed by user id
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
	claims *InMemoryStore[*subscription.AppliedPayment]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		claims:        NewInMemoryStore[*subscription.AppliedPayment](),
	}
}

func (s *InMemorySubscriptionStore) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, userID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("subscription not found").
			Mark(ierr.ErrNotFound)
	}
	c := *sub
	return &c, nil
}

func (s *InMemorySubscriptionStore) UpsertByUser(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	stored := s.InMemoryStore.Upsert(ctx, sub.UserID, func(existing *subscription.Subscription, found bool) *subscription.Subscription {
		next := *sub
		if found {
			next.ID = existing.ID
			next.CreatedAt = existing.CreatedAt
		}
		return &next
	})
	c := *stored
	return &c, nil
}

func (s *InMemorySubscriptionStore) ClaimPayment(ctx context.Context, payment *subscription.AppliedPayment) (bool, error) {
	c := *payment
	err := s.claims.Create(ctx, payment.GatewayPaymentID+"|"+string(payment.Status), &c)
	if ierr.IsAlreadyExists(err) {
		return false, nil
	}
	return err == nil, err
}

// ClaimCount returns the number of applied payment rows
func (s *InMemorySubscriptionStore) ClaimCount() int {
	return s.claims.Len()
}
