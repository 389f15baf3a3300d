package moyasar

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/logger"
	"github.com/funduq/funduq/internal/types"
	"github.com/shopspring/decimal"
)

const maxResponseBytes = 1 << 20

// Client defines the Moyasar payment operations used by the payment core.
// Implementations never retry; callers decide using TransportError.Retryable.
type Client interface {
	CreatePayment(ctx context.Context, intent *PaymentIntent) (*PaymentRecord, error)
	CapturePayment(ctx context.Context, paymentID string, amount *decimal.Decimal) (*PaymentRecord, error)
	RefundPayment(ctx context.Context, paymentID string, opts RefundOptions) (*PaymentRecord, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentRecord, error)
	ListPayments(ctx context.Context, filter *ListFilter) (*PaymentPage, error)
}

// RefundOptions are the optional refund fields. A nil Amount refunds the
// remaining captured amount.
type RefundOptions struct {
	Amount *decimal.Decimal
	Reason string
}

// ListFilter maps to the query string of GET /payments
type ListFilter struct {
	From       *time.Time
	To         *time.Time
	Status     PaymentStatus
	SourceType PaymentSourceType
	Page       int
	PerPage    int
}

func (f *ListFilter) query() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.From != nil {
		q.Set("from", f.From.UTC().Format(time.DateOnly))
	}
	if f.To != nil {
		q.Set("to", f.To.UTC().Format(time.DateOnly))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.SourceType != "" {
		q.Set("source_type", string(f.SourceType))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return q
}

type gatewaySettings struct {
	defaultCurrency   string
	supportedNetworks []string
	installments      int
}

// HTTPClient is the net/http implementation of Client
type HTTPClient struct {
	cfg        config.MoyasarConfig
	settings   gatewaySettings
	logger     *logger.Logger
	httpClient *http.Client
	now        func() time.Time
}

type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the default transport, mostly for tests
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithClock sets the clock used for card expiry checks
func WithClock(now func() time.Time) ClientOption {
	return func(c *HTTPClient) {
		c.now = now
	}
}

// NewClient creates a Moyasar client from the gateway configuration
func NewClient(cfg *config.Configuration, log *logger.Logger, opts ...ClientOption) (*HTTPClient, error) {
	mc := cfg.Moyasar
	if mc.SecretKey == "" {
		return nil, ierr.NewError("missing Moyasar secret key").
			WithHint("Configure the Moyasar secret key").
			Mark(ierr.ErrConfiguration)
	}
	if mc.ConnectTimeout <= 0 {
		mc.ConnectTimeout = 15 * time.Second
	}
	if mc.DefaultCurrency == "" {
		mc.DefaultCurrency = DefaultCurrency
	}

	c := &HTTPClient{
		cfg: mc,
		settings: gatewaySettings{
			defaultCurrency:   mc.DefaultCurrency,
			supportedNetworks: mc.SupportedNetworks,
			installments:      mc.DefaultInstallments,
		},
		logger:     log,
		httpClient: &http.Client{Transport: newTransport(mc)},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newTransport(cfg config.MoyasarConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, readTimeout: cfg.ReadTimeout, writeTimeout: cfg.WriteTimeout}, nil
		},
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}

// CreatePayment validates the intent and creates a payment in Moyasar
func (c *HTTPClient) CreatePayment(ctx context.Context, intent *PaymentIntent) (*PaymentRecord, error) {
	if intent == nil {
		return nil, ierr.NewError("payment intent is required").
			WithHint("Payment details are missing").
			Mark(ierr.ErrValidation)
	}
	if err := intent.Validate(c.now()); err != nil {
		return nil, err
	}

	method := SourceMethod(intent.Source)
	if !c.cfg.MethodEnabled(method) {
		return nil, ierr.NewErrorf("payment method %s is disabled", method).
			WithHint("This payment method is not available").
			WithReportableDetails(map[string]interface{}{"method": method}).
			Mark(ierr.ErrValidation)
	}

	req := intent.toRequest(c.settings)

	var payment PaymentRecord
	if err := c.do(ctx, "create_payment", http.MethodPost, "/payments", nil, req, &payment); err != nil {
		return nil, err
	}

	c.logger.Infow("successfully created payment in Moyasar",
		"payment_id", payment.ID,
		"status", payment.Status,
		"amount", payment.Amount,
		"method", method)

	return &payment, nil
}

// CapturePayment captures an authorized payment. A nil amount captures in full.
func (c *HTTPClient) CapturePayment(ctx context.Context, paymentID string, amount *decimal.Decimal) (*PaymentRecord, error) {
	path, err := paymentPath(paymentID, "capture")
	if err != nil {
		return nil, err
	}

	body := amountRequest{}
	if amount != nil {
		minor := ToMinorUnits(*amount)
		body.Amount = &minor
	}

	var payment PaymentRecord
	if err := c.do(ctx, "capture_payment", http.MethodPost, path, nil, body, &payment); err != nil {
		return nil, err
	}

	c.logger.Infow("successfully captured payment in Moyasar",
		"payment_id", payment.ID,
		"captured", payment.CapturedAmount)

	return &payment, nil
}

// RefundPayment refunds a payment in full or in part
func (c *HTTPClient) RefundPayment(ctx context.Context, paymentID string, opts RefundOptions) (*PaymentRecord, error) {
	path, err := paymentPath(paymentID, "refund")
	if err != nil {
		return nil, err
	}

	body := amountRequest{Reason: opts.Reason}
	if opts.Amount != nil {
		if !opts.Amount.IsPositive() {
			return nil, ierr.NewError("refund amount must be positive").
				WithHint("Enter a refund amount greater than zero").
				Mark(ierr.ErrValidation)
		}
		minor := ToMinorUnits(*opts.Amount)
		body.Amount = &minor
	}

	var payment PaymentRecord
	if err := c.do(ctx, "refund_payment", http.MethodPost, path, nil, body, &payment); err != nil {
		return nil, err
	}

	c.logger.Infow("successfully refunded payment in Moyasar",
		"payment_id", payment.ID,
		"refunded", payment.RefundedAmount)

	return &payment, nil
}

// GetPayment retrieves a payment from Moyasar by ID
func (c *HTTPClient) GetPayment(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	path, err := paymentPath(paymentID, "")
	if err != nil {
		return nil, err
	}

	var payment PaymentRecord
	if err := c.do(ctx, "get_payment", http.MethodGet, path, nil, nil, &payment); err != nil {
		return nil, err
	}

	c.logger.Debugw("fetched payment from Moyasar",
		"payment_id", payment.ID,
		"status", payment.Status)

	return &payment, nil
}

// ListPayments lists payments matching filter. HasMore is derived from the
// pagination block.
func (c *HTTPClient) ListPayments(ctx context.Context, filter *ListFilter) (*PaymentPage, error) {
	var resp paymentListResponse
	if err := c.do(ctx, "list_payments", http.MethodGet, "/payments", filter.query(), nil, &resp); err != nil {
		return nil, err
	}

	hasMore := resp.Meta.NextPage != nil || resp.Meta.TotalPages > resp.Meta.CurrentPage
	return &PaymentPage{
		Items:   resp.Payments,
		HasMore: hasMore,
		Meta:    resp.Meta,
	}, nil
}

func paymentPath(paymentID, action string) (string, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return "", ierr.NewError("payment id is required").
			WithHint("Payment id is required").
			Mark(ierr.ErrValidation)
	}
	path := "/payments/" + url.PathEscape(paymentID)
	if action != "" {
		path += "/" + action
	}
	return path, nil
}

// do sends one request. The call is bounded by the connect timeout; when the
// deadline fires the request context is cancelled and net/http closes the
// underlying connection.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Invalid payment request data").
				Mark(ierr.ErrInternal)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to create HTTP request").
			Mark(ierr.ErrInternal)
	}

	// Moyasar uses HTTP Basic Auth with the secret key as username
	httpReq.SetBasicAuth(c.cfg.SecretKey, "")
	httpReq.Header.Set(types.HeaderUserAgent, c.cfg.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		tErr := classifyTransportError(op, err)
		c.logger.WithContext(ctx).Errorw("Moyasar request failed",
			"operation", op,
			"kind", tErr.Kind,
			"retryable", tErr.Retryable(),
			"latency_ms", time.Since(start).Milliseconds(),
			"error", err)
		return tErr.toError()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransportError(op, err).toError()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		c.logger.WithContext(ctx).Errorw("Moyasar API error",
			"operation", op,
			"status", resp.StatusCode,
			"type", apiErr.Type,
			"message", apiErr.Message,
			"raw_body", apiErr.RawBody)
		return apiErr.toError(op)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return ierr.WithError(err).
			WithHint("failed to parse Moyasar response").
			Mark(ierr.ErrInternal)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
