package dto

import (
	"strings"
	"time"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/types"
	"github.com/funduq/funduq/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentSourceRequest is the payer's chosen method. Card fields are only read
// for creditcard and the mobile number only for stcpay.
type PaymentSourceRequest struct {
	Type   string `json:"type" validate:"required,oneof=creditcard stcpay redirect"`
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
	CVC    string `json:"cvc,omitempty"`
	Month  string `json:"month,omitempty"`
	Year   string `json:"year,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

func (r *PaymentSourceRequest) ToIntentSource() moyasar.IntentSource {
	switch r.Type {
	case string(types.PaymentMethodCreditCard):
		return moyasar.CreditCardSource{
			Number:      r.Number,
			CVC:         r.CVC,
			ExpiryMonth: r.Month,
			ExpiryYear:  r.Year,
			HolderName:  strings.TrimSpace(r.Name),
		}
	case string(types.PaymentMethodSTCPay):
		return moyasar.WalletPhoneSource{Phone: strings.TrimSpace(r.Mobile)}
	default:
		return moyasar.RedirectOnlySource{}
	}
}

type CreateBookingPaymentRequest struct {
	BookingID   string               `json:"booking_id" validate:"required"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    string               `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description string               `json:"description,omitempty"`
	CallbackURL string               `json:"callback_url" validate:"required,url"`
	ReturnURL   string               `json:"return_url,omitempty" validate:"omitempty,url"`
	Source      PaymentSourceRequest `json:"source"`
	Metadata    map[string]string    `json:"metadata,omitempty"`
}

func (r *CreateBookingPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	r.Currency = strings.ToUpper(r.Currency)
	return nil
}

// ToPaymentIntent builds the intent. The booking id always overrides any
// caller supplied metadata with the same key.
func (r *CreateBookingPaymentRequest) ToPaymentIntent() *moyasar.PaymentIntent {
	metadata := lo.Assign(
		lo.OmitByKeys(r.Metadata, []string{types.MetadataKeyUserID, types.MetadataKeyPlanID}),
		map[string]string{types.MetadataKeyBookingID: r.BookingID},
	)

	description := r.Description
	if description == "" {
		description = "Booking " + r.BookingID
	}

	return &moyasar.PaymentIntent{
		Amount:      r.Amount,
		Currency:    r.Currency,
		Source:      r.Source.ToIntentSource(),
		Description: description,
		Metadata:    metadata,
		CallbackURL: r.CallbackURL,
		ReturnURL:   r.ReturnURL,
		GivenID:     types.GenerateGivenID(),
	}
}

// CreateSubscriptionPaymentRequest starts a premium checkout. The amount comes
// from the configured plan price, never from the caller.
type CreateSubscriptionPaymentRequest struct {
	UserID      string               `json:"user_id" validate:"required"`
	PlanID      string               `json:"plan_id" validate:"required"`
	CallbackURL string               `json:"callback_url" validate:"required,url"`
	ReturnURL   string               `json:"return_url,omitempty" validate:"omitempty,url"`
	Source      PaymentSourceRequest `json:"source"`
}

func (r *CreateSubscriptionPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	r.PlanID = strings.ToLower(strings.TrimSpace(r.PlanID))
	return types.SubscriptionPlan(r.PlanID).Validate()
}

func (r *CreateSubscriptionPaymentRequest) ToPaymentIntent(amount decimal.Decimal, description string) *moyasar.PaymentIntent {
	return &moyasar.PaymentIntent{
		Amount:      amount,
		Source:      r.Source.ToIntentSource(),
		Description: strings.TrimSpace(description + " " + r.PlanID),
		Metadata: map[string]string{
			types.MetadataKeyUserID: r.UserID,
			types.MetadataKeyPlanID: r.PlanID,
		},
		CallbackURL: r.CallbackURL,
		ReturnURL:   r.ReturnURL,
		GivenID:     types.GenerateGivenID(),
	}
}

// CapturePaymentRequest captures in full when Amount is nil
type CapturePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

func (r *CapturePaymentRequest) Validate() error {
	if r.Amount != nil && !r.Amount.IsPositive() {
		return ierr.NewError("capture amount must be positive").
			WithHint("Enter a capture amount greater than zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RefundPaymentRequest refunds the remaining amount when Amount is nil
type RefundPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason,omitempty" validate:"max=255"`
}

func (r *RefundPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount != nil && !r.Amount.IsPositive() {
		return ierr.NewError("refund amount must be positive").
			WithHint("Enter a refund amount greater than zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *RefundPaymentRequest) ToRefundOptions() moyasar.RefundOptions {
	return moyasar.RefundOptions{
		Amount: r.Amount,
		Reason: r.Reason,
	}
}

type ListPaymentsRequest struct {
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Status     string     `form:"status"`
	SourceType string     `form:"source_type"`
	Page       int        `form:"page" validate:"omitempty,min=1"`
	PerPage    int        `form:"per_page" validate:"omitempty,min=1,max=100"`
}

func (r *ListPaymentsRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return ierr.NewError("to date is before from date").
			WithHint("The end date must not be before the start date").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *ListPaymentsRequest) ToFilter() *moyasar.ListFilter {
	return &moyasar.ListFilter{
		From:       r.From,
		To:         r.To,
		Status:     moyasar.PaymentStatus(strings.ToLower(r.Status)),
		SourceType: moyasar.PaymentSourceType(strings.ToLower(r.SourceType)),
		Page:       r.Page,
		PerPage:    r.PerPage,
	}
}

type PaymentResponse struct {
	*moyasar.PaymentRecord
	AmountMajor decimal.Decimal `json:"amount_major"`
	RedirectURL string          `json:"redirect_url,omitempty"`
}

func NewPaymentResponse(p *moyasar.PaymentRecord) *PaymentResponse {
	return &PaymentResponse{
		PaymentRecord: p,
		AmountMajor:   moyasar.FromMinorUnits(p.Amount),
		RedirectURL:   p.RedirectURL(),
	}
}

type ListPaymentsResponse struct {
	Items   []*PaymentResponse `json:"items"`
	HasMore bool               `json:"has_more"`
	Page    int                `json:"page"`
}

// ReprocessRequest names gateway payments whose local state should be
// rebuilt from the gateway's current view
type ReprocessRequest struct {
	PaymentIDs []string `json:"payment_ids" validate:"required,min=1,max=100,dive,required"`
}

func (r *ReprocessRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	r.PaymentIDs = lo.Compact(lo.Uniq(lo.Map(r.PaymentIDs, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))
	if len(r.PaymentIDs) == 0 {
		return ierr.NewError("no payment ids to reprocess").
			WithHint("Provide at least one payment id").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type ReprocessResult struct {
	PaymentID      string `json:"payment_id"`
	EventType      string `json:"event_type,omitempty"`
	Action         string `json:"action,omitempty"`
	AlreadyApplied bool   `json:"already_applied"`
	Error          string `json:"error,omitempty"`
}

type ReprocessResponse struct {
	Results   []*ReprocessResult `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// WebhookResponse is the body returned to the gateway for an accepted delivery
type WebhookResponse struct {
	Processed      bool   `json:"processed"`
	EventType      string `json:"event_type"`
	Action         string `json:"action"`
	AlreadyApplied bool   `json:"already_applied"`
}
