package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	v1 "github.com/funduq/funduq/internal/api/v1"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/funduq/funduq/internal/sentry"
	"github.com/funduq/funduq/internal/service"
	"github.com/funduq/funduq/internal/testutil"
	"github.com/funduq/funduq/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	gin.SetMode(gin.TestMode)
	s.GetStores().BookingRepo.AddBooking("bk_1", decimal.NewFromInt(500))
	s.build()
}

func (s *RouterSuite) build() {
	stores := s.GetStores()
	params := service.ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		LedgerRepo:       stores.LedgerRepo,
		BookingRepo:      stores.BookingRepo,
		UserRepo:         stores.UserRepo,
		SubscriptionRepo: stores.SubscriptionRepo,
		WebhookEventRepo: stores.WebhookEventRepo,
		MoyasarClient:    s.GetMoyasarClient(),
		Cache:            s.GetCache(),
		EventPublisher:   s.GetPublisher(),
		SentryService:    sentry.NewSentryService(s.GetConfig(), s.GetLogger()),
		Clock:            s.Clock,
	}
	router := service.NewEventRouter(params)

	s.router = NewRouter(Handlers{
		Health: v1.NewHealthHandler(),
		Payment: v1.NewPaymentHandler(
			service.NewPaymentService(params),
			service.NewReprocessService(params, router),
			s.GetLogger(),
		),
		Webhook: v1.NewWebhookHandler(service.NewWebhookService(params, router), s.GetConfig(), s.GetLogger()),
	}, s.GetConfig(), s.GetLogger())
}

func (s *RouterSuite) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestWebhookApplied() {
	body := []byte(`{"id":"evt_1","event":"payment.succeeded","payment":{"id":"P1","status":"paid","amount":20000,"currency":"SAR","metadata":{"booking_id":"bk_1"}}}`)
	w := s.do(http.MethodPost, "/v1/webhooks/moyasar", body, map[string]string{
		types.HeaderMoyasarSignature: webhook.Sign(body, "1718000000", testutil.TestWebhookSecret),
		types.HeaderMoyasarTimestamp: "1718000000",
	})
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	s.decode(w, &resp)
	s.Equal(true, resp["processed"])
	s.Equal(string(webhook.ActionLedgerCompleted), resp["action"])

	totals, err := s.GetStores().BookingRepo.Get(s.GetContext(), "bk_1")
	s.Require().NoError(err)
	s.True(totals.PaidAmount.Equal(decimal.NewFromInt(200)))
}

func (s *RouterSuite) TestWebhookBadSignature() {
	body := []byte(`{"id":"evt_1","event":"payment.succeeded","payment":{"id":"P1","status":"paid","amount":20000,"currency":"SAR","metadata":{"booking_id":"bk_1"}}}`)
	w := s.do(http.MethodPost, "/v1/webhooks/moyasar", body, map[string]string{
		types.HeaderMoyasarSignature: "deadbeef",
		types.HeaderMoyasarTimestamp: "1718000000",
	})
	s.Equal(http.StatusUnauthorized, w.Code)

	var resp ierr.ErrorResponse
	s.decode(w, &resp)
	s.False(resp.Success)
	s.NotEmpty(resp.Error.Display)
	s.Equal(0, s.GetStores().LedgerRepo.Len())
}

func (s *RouterSuite) TestWebhookBodyTooLarge() {
	s.GetConfig().Server.MaxBodyBytes = 16
	s.build()

	w := s.do(http.MethodPost, "/v1/webhooks/moyasar", []byte(strings.Repeat("x", 64)), nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Empty(s.GetStores().WebhookEventRepo.All())
}

func (s *RouterSuite) TestCreateBookingPayment() {
	body := []byte(`{"booking_id":"bk_1","amount":"150.25","callback_url":"https://pms.example.com/cb","source":{"type":"redirect"}}`)
	w := s.do(http.MethodPost, "/v1/payments", body, nil)
	s.Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]interface{}
	s.decode(w, &resp)
	s.Equal(float64(15025), resp["amount"])
	s.NotEmpty(resp["redirect_url"])
}

func (s *RouterSuite) TestCreateBookingPaymentErrors() {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"booking_id":`, http.StatusBadRequest},
		{"invalid source", `{"booking_id":"bk_1","amount":"10","callback_url":"https://x.example.com","source":{"type":"cash"}}`, http.StatusBadRequest},
		{"unknown booking", `{"booking_id":"bk_404","amount":"10","callback_url":"https://x.example.com","source":{"type":"redirect"}}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/v1/payments", []byte(tt.body), nil)
			s.Equal(tt.status, w.Code, w.Body.String())
		})
	}
}

func (s *RouterSuite) TestCreateBookingPaymentRateLimited() {
	s.GetConfig().RateLimit.PaymentsPerSecond = 0.001
	s.GetConfig().RateLimit.Burst = 1
	s.build()

	body := []byte(`{"booking_id":"bk_1","amount":"10","callback_url":"https://pms.example.com/cb","source":{"type":"redirect"}}`)
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/v1/payments", body, nil).Code)
	s.Equal(http.StatusTooManyRequests, s.do(http.MethodPost, "/v1/payments", body, nil).Code)

	// other routes share no bucket with payment creation
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/v1/payments", nil, nil).Code)
}

func (s *RouterSuite) TestGetPayment() {
	s.GetMoyasarClient().AddPayment(&moyasar.PaymentRecord{ID: "P1", Status: moyasar.PaymentStatusPaid, Amount: 1000, Currency: "SAR"})

	w := s.do(http.MethodGet, "/v1/payments/P1", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	s.decode(w, &resp)
	s.Equal("P1", resp["id"])
	s.Equal("paid", resp["status"])

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/v1/payments/P_missing", nil, nil).Code)
}

func (s *RouterSuite) TestCaptureAndRefundWithoutBody() {
	s.GetMoyasarClient().AddPayment(&moyasar.PaymentRecord{ID: "P1", Status: moyasar.PaymentStatusAuthorized, Amount: 1000, Currency: "SAR"})

	w := s.do(http.MethodPost, "/v1/payments/P1/capture", nil, nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/payments/P1/refund", []byte(`{"amount":"2.5"}`), nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	s.decode(w, &resp)
	s.Equal(string(moyasar.PaymentStatusPartiallyRefunded), resp["status"])
}

func (s *RouterSuite) TestSubscriptionCheckout() {
	w := s.do(http.MethodPost, "/v1/subscriptions/checkout",
		[]byte(`{"user_id":"usr_1","plan_id":"monthly","callback_url":"https://pms.example.com/cb","source":{"type":"redirect"}}`), nil)
	s.Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/subscriptions/checkout",
		[]byte(`{"user_id":"usr_1","plan_id":"lifetime","callback_url":"https://pms.example.com/cb","source":{"type":"redirect"}}`), nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestReprocess() {
	s.GetMoyasarClient().AddPayment(&moyasar.PaymentRecord{
		ID:       "P1",
		Status:   moyasar.PaymentStatusPaid,
		Amount:   10000,
		Currency: "SAR",
		Metadata: moyasar.Metadata{"booking_id": "bk_1"},
	})

	w := s.do(http.MethodPost, "/v1/payments/reprocess", []byte(`{"payment_ids":["P1","P_missing"]}`), nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	s.decode(w, &resp)
	s.Equal(float64(1), resp["succeeded"])
	s.Equal(float64(1), resp["failed"])

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/v1/payments/reprocess", []byte(`{"payment_ids":[]}`), nil).Code)
}
