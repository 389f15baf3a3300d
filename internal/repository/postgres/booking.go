package postgres

import (
	"context"

	"github.com/funduq/funduq/internal/domain/booking"
	"github.com/funduq/funduq/internal/logger"
	pg "github.com/funduq/funduq/internal/postgres"
	"github.com/shopspring/decimal"
)

type bookingRepository struct {
	client pg.IClient
	logger *logger.Logger
}

func NewBookingRepository(client pg.IClient, logger *logger.Logger) booking.Repository {
	return &bookingRepository{
		client: client,
		logger: logger,
	}
}

func (r *bookingRepository) Get(ctx context.Context, bookingID string) (*booking.Totals, error) {
	var t booking.Totals
	err := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT id, total_amount, paid_amount, balance FROM bookings WHERE id = $1`,
		bookingID,
	).Scan(&t.BookingID, &t.TotalAmount, &t.PaidAmount, &t.Balance)
	if err != nil {
		return nil, pg.WrapError(err, "booking", "get")
	}
	return &t, nil
}

func (r *bookingRepository) UpdatePaidAmount(ctx context.Context, bookingID string, paid decimal.Decimal) (*booking.Totals, error) {
	var t booking.Totals
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		UPDATE bookings
		SET paid_amount = $2, balance = total_amount - $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, total_amount, paid_amount, balance`,
		bookingID, paid,
	).Scan(&t.BookingID, &t.TotalAmount, &t.PaidAmount, &t.Balance)
	if err != nil {
		return nil, pg.WrapError(err, "booking", "update")
	}

	r.logger.WithContext(ctx).Debugw("updated booking paid amount",
		"booking_id", bookingID,
		"paid_amount", t.PaidAmount,
		"balance", t.Balance)
	return &t, nil
}
