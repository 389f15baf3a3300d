package moyasar

import (
	"strings"
	"time"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentIntent is one purchase attempt. Build it once and do not mutate it
// after calling Validate.
type PaymentIntent struct {
	Amount      decimal.Decimal
	Currency    string
	Source      IntentSource
	Description string
	Metadata    map[string]string
	CallbackURL string
	ReturnURL   string

	// GivenID is forwarded as given_id so the gateway rejects duplicates
	GivenID string
}

// IntentSource is one of CreditCardSource, WalletPhoneSource or RedirectOnlySource.
type IntentSource interface {
	sourceType() string
}

type CreditCardSource struct {
	Number      string
	CVC         string
	ExpiryMonth string
	ExpiryYear  string
	HolderName  string
}

type WalletPhoneSource struct {
	Phone string
}

// RedirectOnlySource sends no source; the payer completes payment on the
// gateway's hosted page.
type RedirectOnlySource struct{}

func (CreditCardSource) sourceType() string   { return string(PaymentSourceTypeCreditCard) }
func (WalletPhoneSource) sourceType() string  { return string(PaymentSourceTypeSTCPay) }
func (RedirectOnlySource) sourceType() string { return "redirect" }

// SourceMethod returns the method name used in config and the ledger
func SourceMethod(src IntentSource) string {
	if src == nil {
		return RedirectOnlySource{}.sourceType()
	}
	return src.sourceType()
}

// Validate checks amount bounds and the source fields. Errors are marked
// ErrValidation and carry a plain language hint.
func (p *PaymentIntent) Validate(now time.Time) error {
	if !ValidateAmount(p.Amount) {
		return validationError("invalid amount", "Amount must be between 1 and 100000", "amount")
	}
	if p.Currency != "" && len(p.Currency) != 3 {
		return validationError("invalid currency", "Currency must be a three letter code", "currency")
	}

	switch src := p.Source.(type) {
	case CreditCardSource:
		if !ValidateCardNumber(src.Number) {
			return validationError("invalid card number", "The card number must contain 16 digits", "number")
		}
		if !ValidateExpiry(src.ExpiryMonth, src.ExpiryYear, now) {
			return validationError("invalid card expiry", "The card has expired or the expiry date is invalid", "expiry")
		}
		if !ValidateCVC(src.CVC) {
			return validationError("invalid card security code", "The security code must be 3 or 4 digits", "cvc")
		}
		if strings.TrimSpace(src.HolderName) == "" {
			return validationError("missing card holder name", "Enter the name printed on the card", "name")
		}
	case WalletPhoneSource:
		if !ValidateWalletPhone(src.Phone) {
			return validationError("invalid wallet phone number", "The phone number must look like 05XXXXXXXX", "mobile")
		}
	case RedirectOnlySource, nil:
	default:
		return validationError("unsupported payment source", "Choose card, wallet or redirect payment", "source")
	}
	return nil
}

func validationError(msg, hint, field string) error {
	return ierr.NewError(msg).
		WithHint(hint).
		WithReportableDetails(map[string]interface{}{
			"field": field,
		}).
		Mark(ierr.ErrValidation)
}

// toRequest builds the wire body. Card numbers are sent without whitespace.
func (p *PaymentIntent) toRequest(cfg gatewaySettings) *createPaymentRequest {
	req := &createPaymentRequest{
		GivenID:     p.GivenID,
		Amount:      ToMinorUnits(p.Amount),
		Currency:    lo.Ternary(p.Currency != "", strings.ToUpper(p.Currency), cfg.defaultCurrency),
		Description: p.Description,
		CallbackURL: p.CallbackURL,
		ReturnURL:   p.ReturnURL,
		Metadata:    Metadata(lo.Assign(map[string]string{}, p.Metadata)),
	}

	switch src := p.Source.(type) {
	case CreditCardSource:
		req.Source = &PaymentSource{
			Type:   PaymentSourceTypeCreditCard,
			Name:   src.HolderName,
			Number: stripWhitespace(src.Number),
			Month:  strings.TrimSpace(src.ExpiryMonth),
			Year:   strings.TrimSpace(src.ExpiryYear),
			CVC:    src.CVC,
		}
		req.SupportedNetworks = cfg.supportedNetworks
		req.Installments = cfg.installments
	case WalletPhoneSource:
		req.Source = &PaymentSource{
			Type:   PaymentSourceTypeSTCPay,
			Mobile: src.Phone,
		}
	}

	if len(req.Metadata) == 0 {
		req.Metadata = nil
	}
	return req
}
