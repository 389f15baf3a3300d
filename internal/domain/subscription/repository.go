package subscription

import "context"

// Repository stores subscription records keyed by user
type Repository interface {
	// GetByUserID returns a not found error when the user has no subscription
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)

	// UpsertByUser inserts or replaces the user's subscription and returns the
	// stored row
	UpsertByUser(ctx context.Context, sub *Subscription) (*Subscription, error)

	// ClaimPayment stores an applied payment. It returns false when the same
	// payment id and status was already claimed.
	ClaimPayment(ctx context.Context, payment *AppliedPayment) (bool, error)
}
