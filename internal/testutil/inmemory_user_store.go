package testutil

import (
	"context"

	ierr "github.com/funduq/funduq/internal/errors"
)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[bool]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[bool](),
	}
}

func (s *InMemoryUserStore) AddUser(userID string, premium bool) {
	_ = s.InMemoryStore.Create(context.Background(), userID, premium)
}

func (s *InMemoryUserStore) SetPremium(ctx context.Context, userID string, premium bool) error {
	if err := s.InMemoryStore.Update(ctx, userID, premium); err != nil {
		return ierr.WithError(err).
			WithHint("user not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryUserStore) IsPremium(ctx context.Context, userID string) (bool, error) {
	premium, err := s.InMemoryStore.Get(ctx, userID)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("user not found").
			Mark(ierr.ErrNotFound)
	}
	return premium, nil
}
