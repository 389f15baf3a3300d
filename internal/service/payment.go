package service

import (
	"context"

	"github.com/funduq/funduq/internal/api/dto"
	"github.com/funduq/funduq/internal/cache"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentService is the API facing side of the gateway client
type PaymentService interface {
	CreateBookingPayment(ctx context.Context, req *dto.CreateBookingPaymentRequest) (*dto.PaymentResponse, error)
	CreateSubscriptionPayment(ctx context.Context, req *dto.CreateSubscriptionPaymentRequest) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, paymentID string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, req *dto.ListPaymentsRequest) (*dto.ListPaymentsResponse, error)
	CapturePayment(ctx context.Context, paymentID string, req *dto.CapturePaymentRequest) (*dto.PaymentResponse, error)
	RefundPayment(ctx context.Context, paymentID string, req *dto.RefundPaymentRequest) (*dto.PaymentResponse, error)
}

type paymentService struct {
	ServiceParams
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
	}
}

func (s *paymentService) CreateBookingPayment(ctx context.Context, req *dto.CreateBookingPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The booking must exist before money is taken for it
	totals, err := s.BookingRepo.Get(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	payment, err := s.MoyasarClient.CreatePayment(ctx, req.ToPaymentIntent())
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("created booking payment",
		"booking_id", req.BookingID,
		"payment_id", payment.ID,
		"amount", req.Amount,
		"balance", totals.Balance)

	return dto.NewPaymentResponse(payment), nil
}

func (s *paymentService) CreateSubscriptionPayment(ctx context.Context, req *dto.CreateSubscriptionPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	amount, err := s.planPrice(types.SubscriptionPlan(req.PlanID))
	if err != nil {
		return nil, err
	}

	payment, err := s.MoyasarClient.CreatePayment(ctx, req.ToPaymentIntent(amount, s.Config.Subscription.Description))
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("created subscription payment",
		"user_id", req.UserID,
		"plan_id", req.PlanID,
		"payment_id", payment.ID)

	return dto.NewPaymentResponse(payment), nil
}

func (s *paymentService) planPrice(plan types.SubscriptionPlan) (decimal.Decimal, error) {
	var price decimal.Decimal
	switch plan {
	case types.SubscriptionPlanMonthly:
		price = s.Config.Subscription.MonthlyPrice
	case types.SubscriptionPlanYearly:
		price = s.Config.Subscription.YearlyPrice
	default:
		return decimal.Zero, plan.Validate()
	}
	if !price.IsPositive() {
		return decimal.Zero, ierr.NewErrorf("no price configured for plan %s", plan).
			WithHint("This plan is not available for purchase").
			Mark(ierr.ErrConfiguration)
	}
	return price, nil
}

// GetPayment serves from the read cache when possible. Entries expire after
// ExpiryPayment and are dropped on capture and refund.
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*dto.PaymentResponse, error) {
	if paymentID == "" {
		return nil, ierr.NewError("payment id is required").
			WithHint("Please provide a valid payment id").
			Mark(ierr.ErrValidation)
	}

	key := cache.PaymentKey(paymentID)
	if value, found := s.Cache.Get(ctx, key); found {
		if payment, ok := cache.UnmarshalCacheValue[moyasar.PaymentRecord](value); ok {
			return dto.NewPaymentResponse(payment), nil
		}
	}

	payment, err := s.MoyasarClient.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, payment, cache.ExpiryPayment)
	return dto.NewPaymentResponse(payment), nil
}

func (s *paymentService) ListPayments(ctx context.Context, req *dto.ListPaymentsRequest) (*dto.ListPaymentsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	page, err := s.MoyasarClient.ListPayments(ctx, req.ToFilter())
	if err != nil {
		return nil, err
	}

	return &dto.ListPaymentsResponse{
		Items: lo.Map(page.Items, func(p moyasar.PaymentRecord, _ int) *dto.PaymentResponse {
			return dto.NewPaymentResponse(&p)
		}),
		HasMore: page.HasMore,
		Page:    lo.Max([]int{req.Page, 1}),
	}, nil
}

func (s *paymentService) CapturePayment(ctx context.Context, paymentID string, req *dto.CapturePaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payment, err := s.MoyasarClient.CapturePayment(ctx, paymentID, req.Amount)
	if err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, cache.PaymentKey(paymentID))
	return dto.NewPaymentResponse(payment), nil
}

func (s *paymentService) RefundPayment(ctx context.Context, paymentID string, req *dto.RefundPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payment, err := s.MoyasarClient.RefundPayment(ctx, paymentID, req.ToRefundOptions())
	if err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, cache.PaymentKey(paymentID))
	return dto.NewPaymentResponse(payment), nil
}
