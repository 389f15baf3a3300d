package user

import "context"

// Repository is the narrow write path into the PMS users table
type Repository interface {
	// SetPremium sets the premium flag. It returns a not found error when the
	// user does not exist.
	SetPremium(ctx context.Context, userID string, premium bool) error

	IsPremium(ctx context.Context, userID string) (bool, error)
}
