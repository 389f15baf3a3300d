package service

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/funduq/funduq/internal/api/dto"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/sourcegraph/conc/pool"
)

// ReprocessService rebuilds local payment state from the gateway's current
// view of each payment. It is the repair path for missed or failed
// deliveries and stale booking totals.
type ReprocessService interface {
	ReprocessPayments(ctx context.Context, req *dto.ReprocessRequest) (*dto.ReprocessResponse, error)
}

type reprocessService struct {
	ServiceParams
	router *webhook.Router
}

func NewReprocessService(params ServiceParams, router *webhook.Router) ReprocessService {
	return &reprocessService{
		ServiceParams: params,
		router:        router,
	}
}

// ReprocessPayments fetches and routes each payment. A failure on one
// payment is reported in its result and does not stop the others.
func (s *reprocessService) ReprocessPayments(ctx context.Context, req *dto.ReprocessRequest) (*dto.ReprocessResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	concurrency := s.Config.Reprocess.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]*dto.ReprocessResult, len(req.PaymentIDs))
	p := pool.New().WithMaxGoroutines(concurrency)
	for i, paymentID := range req.PaymentIDs {
		i, paymentID := i, paymentID
		p.Go(func() {
			results[i] = s.reprocessOne(ctx, paymentID)
		})
	}
	p.Wait()

	resp := &dto.ReprocessResponse{Results: results}
	for _, r := range results {
		if r.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	s.Logger.WithContext(ctx).Infow("reprocessed payments",
		"requested", len(req.PaymentIDs),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed)

	return resp, nil
}

func (s *reprocessService) reprocessOne(ctx context.Context, paymentID string) *dto.ReprocessResult {
	result := &dto.ReprocessResult{PaymentID: paymentID}
	log := s.Logger.WithContext(ctx).With("payment_id", paymentID)

	payment, err := s.fetchWithRetry(ctx, paymentID)
	if err != nil {
		log.Errorw("failed to fetch payment for reprocessing", "error", err)
		result.Error = errorDisplay(err)
		return result
	}

	event := webhook.EventFromPayment(payment)
	result.EventType = event.Type.String()

	outcome, err := s.router.Route(ctx, event)
	if err != nil {
		log.Errorw("failed to reprocess payment", "error", err)
		s.SentryService.CaptureExceptionWithTags(ctx, err, map[string]string{
			"component":  "reprocess",
			"payment_id": paymentID,
		})
		result.Error = errorDisplay(err)
		return result
	}

	result.Action = string(outcome.Action)
	result.AlreadyApplied = outcome.AlreadyApplied
	return result
}

// fetchWithRetry retries only transport failures the client marks as
// retryable. Gateway API errors fail on the first attempt.
func (s *reprocessService) fetchWithRetry(ctx context.Context, paymentID string) (*moyasar.PaymentRecord, error) {
	b := backoff.NewExponentialBackOff()
	if s.Config.Reprocess.InitialBackoff > 0 {
		b.InitialInterval = s.Config.Reprocess.InitialBackoff
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.Config.Reprocess.MaxRetries), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (*moyasar.PaymentRecord, error) {
		attempt++
		payment, err := s.MoyasarClient.GetPayment(ctx, paymentID)
		if err == nil {
			return payment, nil
		}

		var tErr *moyasar.TransportError
		if ierr.As(err, &tErr) && tErr.Retryable() {
			s.Logger.WithContext(ctx).Warnw("retrying payment fetch",
				"payment_id", paymentID,
				"attempt", attempt,
				"kind", tErr.Kind)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, policy)
}

func errorDisplay(err error) string {
	if hint := ierr.GetHint(err); hint != "" {
		return hint
	}
	return err.Error()
}
