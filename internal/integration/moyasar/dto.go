package moyasar

import (
	"encoding/json"
	"strconv"
)

const (
	// DefaultCurrency is the default currency for Moyasar (Saudi Riyal)
	DefaultCurrency = "SAR"

	// MinorUnitsPerMajor is the number of halalas in one riyal
	MinorUnitsPerMajor = 100
)

// PaymentStatus represents gateway payment status values
type PaymentStatus string

const (
	PaymentStatusInitiated         PaymentStatus = "initiated"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusCompleted         PaymentStatus = "completed"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusAuthorized        PaymentStatus = "authorized"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCaptured          PaymentStatus = "captured"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusVoided            PaymentStatus = "voided"
)

// PaymentSourceType represents the type of payment source
type PaymentSourceType string

const (
	PaymentSourceTypeCreditCard PaymentSourceType = "creditcard"
	PaymentSourceTypeApplePay   PaymentSourceType = "applepay"
	PaymentSourceTypeSTCPay     PaymentSourceType = "stcpay"
	PaymentSourceTypeToken      PaymentSourceType = "token"
)

// PaymentSource is the source object sent to and echoed by the gateway
type PaymentSource struct {
	Type        PaymentSourceType `json:"type"`
	Name        string            `json:"name,omitempty"`         // Cardholder name
	Number      string            `json:"number,omitempty"`       // Card number (masked in responses)
	Month       string            `json:"month,omitempty"`        // Expiry month
	Year        string            `json:"year,omitempty"`         // Expiry year
	CVC         string            `json:"cvc,omitempty"`          // Only in requests
	Mobile      string            `json:"mobile,omitempty"`       // Wallet phone for STC Pay
	Token       string            `json:"token,omitempty"`        // Token for tokenized payments
	Company     string            `json:"company,omitempty"`      // Card company (Visa, Mastercard, etc.)
	GatewayID   string            `json:"gateway_id,omitempty"`   // Gateway ID
	ReferenceID string            `json:"reference_id,omitempty"` // Reference ID
	Message     string            `json:"message,omitempty"`      // Response message, carries the failure reason

	// Set for 3DS and wallet flows that need a redirect
	TransactionURL string `json:"transaction_url,omitempty"`
}

// Metadata is the string map attached to a payment. Scalar values that arrive
// as JSON numbers or booleans are kept as their string form.
type Metadata map[string]string

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Metadata, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return err
			}
			out[k] = string(b)
		}
	}
	*m = out
	return nil
}

// PaymentRecord is the gateway payment object. The gateway owns it; we only
// keep derived copies.
type PaymentRecord struct {
	ID             string         `json:"id"`
	Status         PaymentStatus  `json:"status"`
	Amount         int64          `json:"amount"` // Minor units
	Fee            int64          `json:"fee,omitempty"`
	Currency       string         `json:"currency"`
	RefundedAmount int64          `json:"refunded,omitempty"`
	RefundedAt     string         `json:"refunded_at,omitempty"`
	CapturedAmount int64          `json:"captured,omitempty"`
	CapturedAt     string         `json:"captured_at,omitempty"`
	Description    string         `json:"description,omitempty"`
	CallbackURL    string         `json:"callback_url,omitempty"`
	TransactionURL string         `json:"transaction_url,omitempty"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at,omitempty"`
	Metadata       Metadata       `json:"metadata,omitempty"`
	Source         *PaymentSource `json:"source,omitempty"`
}

// RedirectURL returns where the payer must go to finish 3DS or wallet approval
func (p *PaymentRecord) RedirectURL() string {
	if p.TransactionURL != "" {
		return p.TransactionURL
	}
	if p.Source != nil {
		return p.Source.TransactionURL
	}
	return ""
}

// Reason returns the failure reason, falling back to the source message the
// gateway uses for declined cards.
func (p *PaymentRecord) Reason() string {
	if p.FailureReason != "" {
		return p.FailureReason
	}
	if p.Source != nil {
		return p.Source.Message
	}
	return ""
}

// createPaymentRequest is the POST /payments body
type createPaymentRequest struct {
	GivenID           string         `json:"given_id,omitempty"`
	Amount            int64          `json:"amount"`
	Currency          string         `json:"currency"`
	Description       string         `json:"description,omitempty"`
	CallbackURL       string         `json:"callback_url,omitempty"`
	ReturnURL         string         `json:"return_url,omitempty"`
	Source            *PaymentSource `json:"source,omitempty"`
	Metadata          Metadata       `json:"metadata,omitempty"`
	SupportedNetworks []string       `json:"supported_networks,omitempty"`
	Installments      int            `json:"installments,omitempty"`
}

// amountRequest is the body for capture and refund
type amountRequest struct {
	Amount *int64 `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ListMeta is the pagination block of list responses
type ListMeta struct {
	CurrentPage  int  `json:"current_page"`
	NextPage     *int `json:"next_page"`
	PreviousPage *int `json:"prev_page"`
	TotalPages   int  `json:"total_pages"`
	TotalCount   int  `json:"total_count"`
}

type paymentListResponse struct {
	Payments []PaymentRecord `json:"payments"`
	Meta     ListMeta        `json:"meta"`
}

// PaymentPage is one page of ListPayments
type PaymentPage struct {
	Items   []PaymentRecord
	HasMore bool
	Meta    ListMeta
}

// ErrorResponse is the gateway error body
type ErrorResponse struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}
