package postgres

import (
	"context"

	"github.com/funduq/funduq/internal/domain/ledger"
	"github.com/funduq/funduq/internal/logger"
	pg "github.com/funduq/funduq/internal/postgres"
	"github.com/shopspring/decimal"
)

const ledgerColumns = `id, booking_id, amount, currency, method, status, gateway_payment_id, note, created_at, updated_at`

type ledgerRepository struct {
	client pg.IClient
	logger *logger.Logger
}

func NewLedgerRepository(client pg.IClient, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{
		client: client,
		logger: logger,
	}
}

func (r *ledgerRepository) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*ledger.Entry, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM booking_payments WHERE gateway_payment_id = $1`,
		gatewayPaymentID)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, pg.WrapError(err, "booking payment", "get")
	}
	return entry, nil
}

// Upsert keys on the gateway payment id. The booking id of an existing row is
// never changed, and an empty note keeps the stored one.
func (r *ledgerRepository) Upsert(ctx context.Context, entry *ledger.Entry) (*ledger.Entry, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		INSERT INTO booking_payments (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT booking_payments_gateway_payment_id_key DO UPDATE SET
			amount     = EXCLUDED.amount,
			currency   = EXCLUDED.currency,
			method     = EXCLUDED.method,
			status     = EXCLUDED.status,
			note       = CASE WHEN EXCLUDED.note <> '' THEN EXCLUDED.note ELSE booking_payments.note END,
			updated_at = EXCLUDED.updated_at
		RETURNING `+ledgerColumns,
		entry.ID,
		entry.BookingID,
		entry.Amount,
		entry.Currency,
		entry.Method,
		string(entry.Status),
		entry.GatewayPaymentID,
		entry.Note,
		entry.CreatedAt,
		entry.UpdatedAt,
	)

	stored, err := scanEntry(row)
	if err != nil {
		r.logger.WithContext(ctx).Errorw("failed to upsert booking payment",
			"gateway_payment_id", entry.GatewayPaymentID,
			"booking_id", entry.BookingID,
			"error", err)
		return nil, pg.WrapError(err, "booking payment", "upsert")
	}
	return stored, nil
}

func (r *ledgerRepository) SumCompletedByBooking(ctx context.Context, bookingID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM booking_payments
		WHERE booking_id = $1 AND status = 'completed'`,
		bookingID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, pg.WrapError(err, "booking payment", "sum")
	}
	return total, nil
}

func (r *ledgerRepository) ListByBooking(ctx context.Context, bookingID string) ([]*ledger.Entry, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM booking_payments WHERE booking_id = $1 ORDER BY created_at, id`,
		bookingID)
	if err != nil {
		return nil, pg.WrapError(err, "booking payment", "list")
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, pg.WrapError(err, "booking payment", "list")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, pg.WrapError(err, "booking payment", "list")
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*ledger.Entry, error) {
	var e ledger.Entry
	if err := s.Scan(
		&e.ID,
		&e.BookingID,
		&e.Amount,
		&e.Currency,
		&e.Method,
		&e.Status,
		&e.GatewayPaymentID,
		&e.Note,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
