package internal

import (
	"context"
	"fmt"

	"github.com/funduq/funduq/internal/api/dto"
	"github.com/funduq/funduq/internal/service"
	"github.com/funduq/funduq/internal/types"
	"github.com/samber/lo"
)

type paymentRow struct {
	PaymentID string `csv:"payment_id"`
}

// batchSize matches the reprocess request limit
const batchSize = 100

// ReprocessPayments re-applies every payment id in FILE_PATH through the same
// router the webhook endpoint uses. DRY_RUN=true only fetches and prints.
func ReprocessPayments() error {
	rows, err := readCSV[paymentRow]()
	if err != nil {
		return err
	}

	ids := lo.Uniq(lo.Compact(lo.Map(rows, func(r *paymentRow, _ int) string { return r.PaymentID })))
	if len(ids) == 0 {
		return fmt.Errorf("no payment ids in file")
	}

	deps, err := newScriptDeps()
	if err != nil {
		return err
	}
	defer deps.close()

	log := deps.params.Logger
	ctx := types.SetRequestID(context.Background(), types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST))
	dryRun := isDryRun()
	log.Infow("starting payment reprocess", "payments", len(ids), "dry_run", dryRun)

	if dryRun {
		for _, id := range ids {
			payment, err := deps.params.MoyasarClient.GetPayment(ctx, id)
			if err != nil {
				log.Warnw("failed to fetch payment", "payment_id", id, "error", err)
				continue
			}
			fmt.Printf("%s\t%s\t%d %s\n", payment.ID, payment.Status, payment.Amount, payment.Currency)
		}
		return nil
	}

	svc := service.NewReprocessService(deps.params, service.NewEventRouter(deps.params))

	var succeeded, failed int
	for _, batch := range lo.Chunk(ids, batchSize) {
		resp, err := svc.ReprocessPayments(ctx, &dto.ReprocessRequest{PaymentIDs: batch})
		if err != nil {
			return err
		}
		succeeded += resp.Succeeded
		failed += resp.Failed
		for _, r := range resp.Results {
			if r.Error != "" {
				log.Warnw("payment not reprocessed", "payment_id", r.PaymentID, "error", r.Error)
			}
		}
	}

	log.Infow("payment reprocess finished", "succeeded", succeeded, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d payments failed", failed, len(ids))
	}
	return nil
}
