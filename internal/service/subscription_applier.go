package service

import (
	"context"
	"time"

	"github.com/funduq/funduq/internal/domain/subscription"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/funduq/funduq/internal/types"
)

// SubscriptionApplier grants and revokes premium from subscription payments
type SubscriptionApplier interface {
	webhook.SubscriptionApplier
}

type subscriptionApplier struct {
	ServiceParams
}

func NewSubscriptionApplier(params ServiceParams) SubscriptionApplier {
	return &subscriptionApplier{
		ServiceParams: params,
	}
}

// Activate starts a new period from now and sets the premium flag. Any
// payment that already activated a subscription is a no-op, including one
// older than the payment the record currently holds.
func (s *subscriptionApplier) Activate(ctx context.Context, input *webhook.SubscriptionActivation) (*webhook.ApplyResult, error) {
	if input == nil || input.UserID == "" || input.GatewayPaymentID == "" {
		return nil, ierr.NewError("user id and gateway payment id are required").
			WithHint("Subscription payment is missing its user or payment id").
			Mark(ierr.ErrValidation)
	}

	plan := types.SubscriptionPlan(input.PlanID)
	now := s.now()
	periodEnd, err := plan.PeriodEnd(now)
	if err != nil {
		return nil, err
	}

	log := s.Logger.WithContext(ctx).With(
		"user_id", input.UserID,
		"plan_id", plan,
		"gateway_payment_id", input.GatewayPaymentID,
	)

	result := &webhook.ApplyResult{}
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		claimed, err := s.claimPayment(ctx, input.UserID, input.GatewayPaymentID, types.SubscriptionStatusActive, now)
		if err != nil {
			return err
		}
		if !claimed {
			result.AlreadyApplied = true
			return nil
		}

		existing, err := s.getSubscription(ctx, input.UserID)
		if err != nil {
			return err
		}

		sub := &subscription.Subscription{
			ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
			UserID:             input.UserID,
			PlanID:             plan,
			Status:             types.SubscriptionStatusActive,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   periodEnd,
			GatewayPaymentID:   input.GatewayPaymentID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if existing != nil {
			sub.ID = existing.ID
			sub.CreatedAt = existing.CreatedAt
		}

		if _, err := s.SubscriptionRepo.UpsertByUser(ctx, sub); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to activate subscription").
				Mark(ierr.ErrApplier)
		}
		return s.setPremium(ctx, input.UserID, true)
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyApplied {
		log.Infow("subscription already activated by this payment")
	} else {
		log.Infow("subscription activated", "period_end", periodEnd)
	}
	return result, nil
}

// Revoke marks the record refunded and clears the premium flag. A user with no
// record still has the flag cleared.
func (s *subscriptionApplier) Revoke(ctx context.Context, input *webhook.SubscriptionRevocation) (*webhook.ApplyResult, error) {
	if input == nil || input.UserID == "" {
		return nil, ierr.NewError("user id is required").
			WithHint("Subscription refund is missing its user id").
			Mark(ierr.ErrValidation)
	}

	log := s.Logger.WithContext(ctx).With(
		"user_id", input.UserID,
		"gateway_payment_id", input.GatewayPaymentID,
	)

	now := s.now()
	result := &webhook.ApplyResult{}
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if input.GatewayPaymentID != "" {
			claimed, err := s.claimPayment(ctx, input.UserID, input.GatewayPaymentID, types.SubscriptionStatusRefunded, now)
			if err != nil {
				return err
			}
			if !claimed {
				result.AlreadyApplied = true
				return nil
			}
		}

		existing, err := s.getSubscription(ctx, input.UserID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			log.Warnw("refund for user without a subscription record, clearing premium only")
		case existing.AppliedBy(input.GatewayPaymentID, types.SubscriptionStatusRefunded):
			result.AlreadyApplied = true
			return nil
		default:
			existing.Status = types.SubscriptionStatusRefunded
			existing.GatewayPaymentID = input.GatewayPaymentID
			existing.UpdatedAt = now
			if _, err := s.SubscriptionRepo.UpsertByUser(ctx, existing); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to revoke subscription").
					Mark(ierr.ErrApplier)
			}
		}
		return s.setPremium(ctx, input.UserID, false)
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyApplied {
		log.Infow("subscription revoked")
	}
	return result, nil
}

// claimPayment records paymentID as applied with status. The claim is part of
// the caller's transaction and is released when the apply fails.
func (s *subscriptionApplier) claimPayment(ctx context.Context, userID, paymentID string, status types.SubscriptionStatus, now time.Time) (bool, error) {
	claimed, err := s.SubscriptionRepo.ClaimPayment(ctx, &subscription.AppliedPayment{
		GatewayPaymentID: paymentID,
		UserID:           userID,
		Status:           status,
		AppliedAt:        now,
	})
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to record subscription payment").
			Mark(ierr.ErrApplier)
	}
	return claimed, nil
}

func (s *subscriptionApplier) getSubscription(ctx context.Context, userID string) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to read subscription").
			Mark(ierr.ErrApplier)
	}
	return sub, nil
}

// setPremium treats a missing user as an applier failure so the gateway
// redelivers once the user row exists
func (s *subscriptionApplier) setPremium(ctx context.Context, userID string, premium bool) error {
	err := s.UserRepo.SetPremium(ctx, userID, premium)
	if err == nil {
		return nil
	}
	return ierr.WithError(err).
		WithHint("Failed to update premium status").
		WithReportableDetails(map[string]interface{}{
			"user_id": userID,
		}).
		Mark(ierr.ErrApplier)
}
