package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// FakeMoyasarClient is an in-memory moyasar.Client. GetErrs are returned by
// successive GetPayment calls before the stored payment is served.
type FakeMoyasarClient struct {
	mu       sync.Mutex
	payments map[string]*moyasar.PaymentRecord
	seq      int

	Intents   []*moyasar.PaymentIntent
	GetCalls  int
	GetErrs   []error
	CreateErr error
}

func NewFakeMoyasarClient() *FakeMoyasarClient {
	return &FakeMoyasarClient{
		payments: make(map[string]*moyasar.PaymentRecord),
	}
}

// AddPayment seeds a gateway payment
func (c *FakeMoyasarClient) AddPayment(p *moyasar.PaymentRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.payments[p.ID] = &cp
}

func (c *FakeMoyasarClient) CreatePayment(_ context.Context, intent *moyasar.PaymentIntent) (*moyasar.PaymentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CreateErr != nil {
		return nil, c.CreateErr
	}
	c.Intents = append(c.Intents, intent)
	c.seq++

	currency := lo.Ternary(intent.Currency == "", moyasar.DefaultCurrency, intent.Currency)
	p := &moyasar.PaymentRecord{
		ID:             fmt.Sprintf("pay_%03d", c.seq),
		Status:         moyasar.PaymentStatusInitiated,
		Amount:         moyasar.ToMinorUnits(intent.Amount),
		Currency:       currency,
		Description:    intent.Description,
		CallbackURL:    intent.CallbackURL,
		TransactionURL: "https://api.moyasar.com/v1/transaction_auths/" + intent.GivenID,
		Metadata:       moyasar.Metadata(lo.Assign(intent.Metadata)),
	}
	c.payments[p.ID] = p
	cp := *p
	return &cp, nil
}

func (c *FakeMoyasarClient) CapturePayment(_ context.Context, paymentID string, amount *decimal.Decimal) (*moyasar.PaymentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.lookup(paymentID)
	if err != nil {
		return nil, err
	}
	p.Status = moyasar.PaymentStatusCaptured
	p.CapturedAmount = p.Amount
	if amount != nil {
		p.CapturedAmount = moyasar.ToMinorUnits(*amount)
	}
	cp := *p
	return &cp, nil
}

func (c *FakeMoyasarClient) RefundPayment(_ context.Context, paymentID string, opts moyasar.RefundOptions) (*moyasar.PaymentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.lookup(paymentID)
	if err != nil {
		return nil, err
	}
	p.RefundedAmount = p.Amount
	if opts.Amount != nil {
		p.RefundedAmount = moyasar.ToMinorUnits(*opts.Amount)
	}
	p.Status = lo.Ternary(p.RefundedAmount < p.Amount,
		moyasar.PaymentStatusPartiallyRefunded,
		moyasar.PaymentStatusRefunded)
	cp := *p
	return &cp, nil
}

func (c *FakeMoyasarClient) GetPayment(_ context.Context, paymentID string) (*moyasar.PaymentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GetCalls++
	if len(c.GetErrs) > 0 {
		err := c.GetErrs[0]
		c.GetErrs = c.GetErrs[1:]
		return nil, err
	}

	p, err := c.lookup(paymentID)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (c *FakeMoyasarClient) ListPayments(_ context.Context, filter *moyasar.ListFilter) (*moyasar.PaymentPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]moyasar.PaymentRecord, 0, len(c.payments))
	for _, p := range c.payments {
		if filter != nil && filter.Status != "" && p.Status != filter.Status {
			continue
		}
		items = append(items, *p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return &moyasar.PaymentPage{Items: items}, nil
}

func (c *FakeMoyasarClient) lookup(paymentID string) (*moyasar.PaymentRecord, error) {
	p, ok := c.payments[paymentID]
	if !ok {
		return nil, ierr.NewErrorf("payment %s not found", paymentID).
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

var _ moyasar.Client = (*FakeMoyasarClient)(nil)
