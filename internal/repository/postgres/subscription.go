package postgres

import (
	"context"

	"github.com/funduq/funduq/internal/domain/subscription"
	"github.com/funduq/funduq/internal/logger"
	pg "github.com/funduq/funduq/internal/postgres"
)

const subscriptionColumns = `id, user_id, plan_id, status, current_period_start, current_period_end, gateway_payment_id, created_at, updated_at`

type subscriptionRepository struct {
	client pg.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client pg.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{
		client: client,
		logger: logger,
	}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID)

	sub, err := scanSubscription(row)
	if err != nil {
		return nil, pg.WrapError(err, "subscription", "get")
	}
	return sub, nil
}

// UpsertByUser keys on user id; the row id and created_at of an existing row
// are kept
func (r *subscriptionRepository) UpsertByUser(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT subscriptions_user_id_key DO UPDATE SET
			plan_id              = EXCLUDED.plan_id,
			status               = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end   = EXCLUDED.current_period_end,
			gateway_payment_id   = EXCLUDED.gateway_payment_id,
			updated_at           = EXCLUDED.updated_at
		RETURNING `+subscriptionColumns,
		sub.ID,
		sub.UserID,
		string(sub.PlanID),
		string(sub.Status),
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.GatewayPaymentID,
		sub.CreatedAt,
		sub.UpdatedAt,
	)

	stored, err := scanSubscription(row)
	if err != nil {
		r.logger.WithContext(ctx).Errorw("failed to upsert subscription",
			"user_id", sub.UserID,
			"gateway_payment_id", sub.GatewayPaymentID,
			"error", err)
		return nil, pg.WrapError(err, "subscription", "upsert")
	}
	return stored, nil
}

func scanSubscription(s scanner) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	if err := s.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.GatewayPaymentID,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ClaimPayment inserts the applied payment and reports whether a row was
// written. Run it inside the applier transaction so a failed apply releases
// the claim.
func (r *subscriptionRepository) ClaimPayment(ctx context.Context, payment *subscription.AppliedPayment) (bool, error) {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO subscription_payments (gateway_payment_id, user_id, status, applied_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT subscription_payments_gateway_payment_id_status_key DO NOTHING`,
		payment.GatewayPaymentID,
		payment.UserID,
		string(payment.Status),
		payment.AppliedAt,
	)
	if err != nil {
		return false, pg.WrapError(err, "subscription payment", "claim")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, pg.WrapError(err, "subscription payment", "claim")
	}
	return n == 1, nil
}
