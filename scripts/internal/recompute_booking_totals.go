package internal

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

type bookingRow struct {
	BookingID string `csv:"booking_id"`
}

// RecomputeBookingTotals rewrites paid amount and balance from the completed
// ledger entries of each booking in FILE_PATH.
func RecomputeBookingTotals() error {
	rows, err := readCSV[bookingRow]()
	if err != nil {
		return err
	}

	ids := lo.Uniq(lo.Compact(lo.Map(rows, func(r *bookingRow, _ int) string { return r.BookingID })))

	deps, err := newScriptDeps()
	if err != nil {
		return err
	}
	defer deps.close()

	log := deps.params.Logger
	ctx := context.Background()
	dryRun := isDryRun()

	var updated, unchanged, failed int
	for _, id := range ids {
		current, err := deps.params.BookingRepo.Get(ctx, id)
		if err != nil {
			log.Warnw("failed to load booking", "booking_id", id, "error", err)
			failed++
			continue
		}

		paid, err := deps.params.LedgerRepo.SumCompletedByBooking(ctx, id)
		if err != nil {
			log.Warnw("failed to sum ledger", "booking_id", id, "error", err)
			failed++
			continue
		}

		if current.PaidAmount.Equal(paid) {
			unchanged++
			continue
		}

		log.Infow("booking totals differ",
			"booking_id", id,
			"stored_paid", current.PaidAmount,
			"ledger_paid", paid,
			"dry_run", dryRun)
		if dryRun {
			updated++
			continue
		}

		if _, err := deps.params.BookingRepo.UpdatePaidAmount(ctx, id, paid); err != nil {
			log.Warnw("failed to update booking", "booking_id", id, "error", err)
			failed++
			continue
		}
		updated++
	}

	log.Infow("booking totals recomputed", "updated", updated, "unchanged", unchanged, "failed", failed, "dry_run", dryRun)
	if failed > 0 {
		return fmt.Errorf("%d bookings failed", failed)
	}
	return nil
}
