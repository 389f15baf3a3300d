package service

import (
	"context"
	"strings"

	"github.com/funduq/funduq/internal/domain/ledger"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/funduq/funduq/internal/types"
)

const savepointBookingTotals = "booking_totals"

// BookingPaymentApplier records booking payment outcomes in the ledger and
// keeps the booking paid totals in step with it
type BookingPaymentApplier interface {
	webhook.BookingApplier
}

type bookingPaymentApplier struct {
	ServiceParams
}

func NewBookingPaymentApplier(params ServiceParams) BookingPaymentApplier {
	return &bookingPaymentApplier{
		ServiceParams: params,
	}
}

// ApplyBookingPayment writes the ledger entry for the gateway payment and
// recomputes the booking totals from completed entries. The totals are
// recomputed on every call, including redeliveries, so a stale aggregate is
// repaired by the next delivery. When only the totals fail the ledger write
// still commits and an applier error is returned.
func (s *bookingPaymentApplier) ApplyBookingPayment(ctx context.Context, input *webhook.BookingPaymentInput) (*webhook.ApplyResult, error) {
	if err := validateBookingPaymentInput(input); err != nil {
		return nil, err
	}

	log := s.Logger.WithContext(ctx).With(
		"booking_id", input.BookingID,
		"gateway_payment_id", input.GatewayPaymentID,
		"status", input.Status,
	)

	result := &webhook.ApplyResult{}
	var totalsErr error

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.LedgerRepo.GetByGatewayPaymentID(ctx, input.GatewayPaymentID)
		if err != nil && !ierr.IsNotFound(err) {
			return ierr.WithError(err).
				WithHint("Failed to read booking payment").
				Mark(ierr.ErrApplier)
		}

		bookingID := input.BookingID
		if existing != nil {
			bookingID = existing.BookingID
		}

		if existing != nil && existing.Status == input.Status {
			result.AlreadyApplied = true
			log.Infow("booking payment already recorded with this status")
		} else {
			now := s.now()
			entry := &ledger.Entry{
				ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BOOKING_PAYMENT),
				BookingID:        input.BookingID,
				Amount:           input.Amount,
				Currency:         strings.ToUpper(input.Currency),
				Method:           input.Method,
				Status:           input.Status,
				GatewayPaymentID: input.GatewayPaymentID,
				Note:             input.Note,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			stored, err := s.LedgerRepo.Upsert(ctx, entry)
			if err != nil {
				return ierr.WithError(err).
					WithHint("Failed to record booking payment").
					Mark(ierr.ErrApplier)
			}
			bookingID = stored.BookingID
			log.Infow("recorded booking payment", "ledger_entry_id", stored.ID)
		}

		totalsErr = s.DB.WithSavepoint(ctx, savepointBookingTotals, func(ctx context.Context) error {
			return s.recomputeTotals(ctx, bookingID)
		})
		if totalsErr != nil {
			log.Errorw("failed to update booking totals, ledger entry kept", "error", totalsErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if totalsErr != nil {
		s.SentryService.CaptureExceptionWithTags(ctx, totalsErr, map[string]string{
			"component":          "booking_payment_applier",
			"gateway_payment_id": input.GatewayPaymentID,
		})
		return nil, ierr.WithError(totalsErr).
			WithHint("Payment was recorded but the booking balance could not be updated").
			WithReportableDetails(map[string]interface{}{
				"booking_id":         input.BookingID,
				"gateway_payment_id": input.GatewayPaymentID,
			}).
			Mark(ierr.ErrApplier)
	}

	return result, nil
}

func (s *bookingPaymentApplier) recomputeTotals(ctx context.Context, bookingID string) error {
	paid, err := s.LedgerRepo.SumCompletedByBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	totals, err := s.BookingRepo.UpdatePaidAmount(ctx, bookingID, paid)
	if err != nil {
		return err
	}

	s.Logger.WithContext(ctx).Debugw("booking totals updated",
		"booking_id", bookingID,
		"paid_amount", totals.PaidAmount,
		"balance", totals.Balance)
	return nil
}

func validateBookingPaymentInput(input *webhook.BookingPaymentInput) error {
	if input == nil || input.BookingID == "" || input.GatewayPaymentID == "" {
		return ierr.NewError("booking id and gateway payment id are required").
			WithHint("Booking payment is missing its booking or payment id").
			Mark(ierr.ErrValidation)
	}
	if err := input.Status.Validate(); err != nil {
		return err
	}
	if input.Amount.IsNegative() {
		return ierr.NewError("booking payment amount is negative").
			WithHint("Booking payment amount must not be negative").
			WithReportableDetails(map[string]interface{}{
				"amount": input.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
