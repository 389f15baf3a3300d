package service

import (
	"fmt"
	"testing"

	"github.com/funduq/funduq/internal/cache"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/funduq/funduq/internal/publisher"
	"github.com/funduq/funduq/internal/testutil"
	"github.com/funduq/funduq/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testTimestamp = "1718000000"

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service WebhookService
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.rebuild()
	s.GetStores().BookingRepo.AddBooking("bk_1", decimal.NewFromInt(500))
	s.GetStores().UserRepo.AddUser("usr_1", false)
}

func (s *WebhookServiceSuite) rebuild() {
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewWebhookService(params, NewEventRouter(params))
}

func paymentBody(eventID, eventType, paymentID, status, metadata string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"event":%q,"payment":{"id":%q,"status":%q,"amount":20000,"currency":"SAR","source":{"type":"creditcard","message":"DECLINED"},"metadata":%s}}`,
		eventID, eventType, paymentID, status, metadata))
}

func signed(body []byte) *WebhookDelivery {
	return &WebhookDelivery{
		Body:      body,
		Signature: webhook.Sign(body, testTimestamp, testutil.TestWebhookSecret),
		Timestamp: testTimestamp,
	}
}

func (s *WebhookServiceSuite) TestBookingPaymentSucceeded() {
	body := paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_1"}`)

	resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().NoError(err)
	s.True(resp.Processed)
	s.Equal(string(webhook.ActionLedgerCompleted), resp.Action)
	s.False(resp.AlreadyApplied)

	entry, err := s.GetStores().LedgerRepo.GetByGatewayPaymentID(s.GetContext(), "P1")
	s.Require().NoError(err)
	s.True(entry.Amount.Equal(decimal.NewFromInt(200)))
	s.Equal("creditcard", entry.Method)

	totals, err := s.GetStores().BookingRepo.Get(s.GetContext(), "bk_1")
	s.Require().NoError(err)
	s.True(totals.Balance.Equal(decimal.NewFromInt(300)))

	audits := s.GetStores().WebhookEventRepo.All()
	s.Require().Len(audits, 1)
	s.Equal("evt_1", audits[0].EventID)
	s.True(audits[0].SignatureValid)
	s.NotNil(audits[0].ProcessedAt)
	s.Empty(audits[0].ProcessingError)
	s.Equal(string(body), audits[0].Payload)

	events := s.GetPublisher().Events()
	s.Require().Len(events, 1)
	s.Equal(publisher.EventPaymentApplied, events[0].Type)
	s.Equal("P1", events[0].GatewayPaymentID)
}

func (s *WebhookServiceSuite) TestAppliedPaymentDropsCachedRecord() {
	key := cache.PaymentKey("P1")
	s.GetCache().Set(s.GetContext(), key, &moyasar.PaymentRecord{ID: "P1", Status: moyasar.PaymentStatusInitiated}, cache.ExpiryPayment)

	body := paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_1"}`)
	_, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().NoError(err)

	_, found := s.GetCache().Get(s.GetContext(), key)
	s.False(found)
}

func (s *WebhookServiceSuite) TestRejectedDeliveryKeepsCachedRecord() {
	key := cache.PaymentKey("P1")
	s.GetCache().Set(s.GetContext(), key, &moyasar.PaymentRecord{ID: "P1"}, cache.ExpiryPayment)

	body := paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_1"}`)
	_, err := s.service.HandleMoyasarWebhook(s.GetContext(), &WebhookDelivery{Body: body, Signature: "deadbeef", Timestamp: testTimestamp})
	s.Require().Error(err)

	_, found := s.GetCache().Get(s.GetContext(), key)
	s.True(found)
}

func (s *WebhookServiceSuite) TestRedelivery() {
	body := paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_1"}`)

	_, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().NoError(err)
	resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().NoError(err)
	s.True(resp.AlreadyApplied)

	s.Equal(1, s.GetStores().LedgerRepo.Len())
	audits := s.GetStores().WebhookEventRepo.All()
	s.Require().Len(audits, 1)
	s.Equal(2, audits[0].ReceivedCount)

	totals, _ := s.GetStores().BookingRepo.Get(s.GetContext(), "bk_1")
	s.True(totals.PaidAmount.Equal(decimal.NewFromInt(200)))
}

func (s *WebhookServiceSuite) TestBadSignatureNeverRoutes() {
	body := paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_1"}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"wrong", "deadbeef"},
		{"empty", ""},
		{"other secret", webhook.Sign(body, testTimestamp, "whsec_other")},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), &WebhookDelivery{
				Body:      body,
				Signature: tt.signature,
				Timestamp: testTimestamp,
			})
			s.Nil(resp)
			s.Require().Error(err)
			s.True(ierr.IsAuthentication(err))
			s.Equal(401, ierr.HTTPStatusFromErr(err))
		})
	}

	s.Equal(0, s.GetStores().LedgerRepo.Len())
	totals, _ := s.GetStores().BookingRepo.Get(s.GetContext(), "bk_1")
	s.True(totals.PaidAmount.IsZero())
	s.Empty(s.GetPublisher().Events())

	audits := s.GetStores().WebhookEventRepo.All()
	s.Require().Len(audits, 1)
	s.False(audits[0].SignatureValid)
	s.Nil(audits[0].ProcessedAt)
}

func (s *WebhookServiceSuite) TestTamperedBody() {
	body := paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_1"}`)
	delivery := signed(body)
	delivery.Body = paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_2"}`)

	_, err := s.service.HandleMoyasarWebhook(s.GetContext(), delivery)
	s.True(ierr.IsAuthentication(err))
	s.Equal(0, s.GetStores().LedgerRepo.Len())
}

func (s *WebhookServiceSuite) TestMissingWebhookSecret() {
	s.GetConfig().Moyasar.WebhookSecret = ""
	s.rebuild()

	body := paymentBody("evt_1", "payment.succeeded", "P1", "paid", `{"booking_id":"bk_1"}`)
	_, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().Error(err)
	s.True(ierr.IsConfiguration(err))
	s.Equal(0, s.GetStores().LedgerRepo.Len())
}

func (s *WebhookServiceSuite) TestTimestampFromBody() {
	body := []byte(`{"event":"payment.succeeded","timestamp":1718000000,"payment":{"id":"P1","status":"paid","amount":5000,"currency":"SAR","metadata":{"booking_id":"bk_1"}}}`)

	resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), &WebhookDelivery{
		Body:      body,
		Signature: webhook.SignaturePrefix + webhook.Sign(body, testTimestamp, testutil.TestWebhookSecret),
	})
	s.Require().NoError(err)
	s.True(resp.Processed)

	entry, err := s.GetStores().LedgerRepo.GetByGatewayPaymentID(s.GetContext(), "P1")
	s.Require().NoError(err)
	s.Equal(string(types.PaymentMethodRedirect), entry.Method)
}

func (s *WebhookServiceSuite) TestUnknownEventIsAccepted() {
	body := paymentBody("evt_9", "payment.something_new", "P1", "paid", `{"booking_id":"bk_1"}`)

	resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().NoError(err)
	s.True(resp.Processed)
	s.Equal(string(webhook.ActionIgnored), resp.Action)
	s.Equal("payment.something_new", resp.EventType)

	s.Equal(0, s.GetStores().LedgerRepo.Len())
	s.Empty(s.GetPublisher().Events())
	s.Len(s.GetStores().WebhookEventRepo.All(), 1)
}

func (s *WebhookServiceSuite) TestMalformedBody() {
	_, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed([]byte(`{"event":`)))
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetStores().WebhookEventRepo.All())
}

func (s *WebhookServiceSuite) TestFailedPaymentRecordsReason() {
	body := paymentBody("evt_2", "payment.failed", "P2", "failed", `{"booking_id":"bk_1"}`)

	resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().NoError(err)
	s.Equal(string(webhook.ActionLedgerFailed), resp.Action)

	entry, err := s.GetStores().LedgerRepo.GetByGatewayPaymentID(s.GetContext(), "P2")
	s.Require().NoError(err)
	s.Equal(types.BookingPaymentStatusFailed, entry.Status)
	s.Equal("DECLINED", entry.Note)
}

func (s *WebhookServiceSuite) TestSubscriptionLifecycle() {
	paid := paymentBody("evt_3", "payment_paid", "P3", "paid", `{"user_id":"usr_1","plan_id":"Monthly"}`)
	resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(paid))
	s.Require().NoError(err)
	s.Equal(string(webhook.ActionSubscriptionActivated), resp.Action)

	premium, _ := s.GetStores().UserRepo.IsPremium(s.GetContext(), "usr_1")
	s.True(premium)

	refunded := paymentBody("evt_4", "payment.refunded", "P3", "refunded", `{"user_id":"usr_1","plan_id":"monthly"}`)
	resp, err = s.service.HandleMoyasarWebhook(s.GetContext(), signed(refunded))
	s.Require().NoError(err)
	s.Equal(string(webhook.ActionSubscriptionRevoked), resp.Action)

	premium, _ = s.GetStores().UserRepo.IsPremium(s.GetContext(), "usr_1")
	s.False(premium)
	s.Len(s.GetPublisher().Events(), 2)
}

func (s *WebhookServiceSuite) TestApplierFailureIsAudited() {
	s.GetStores().BookingRepo.UpdateErr = ierr.NewError("lock timeout").Mark(ierr.ErrDatabase)
	body := paymentBody("evt_5", "payment.succeeded", "P5", "paid", `{"booking_id":"bk_1"}`)

	_, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().Error(err)
	s.True(ierr.IsApplier(err))
	s.Equal(500, ierr.HTTPStatusFromErr(err))

	audits := s.GetStores().WebhookEventRepo.All()
	s.Require().Len(audits, 1)
	s.NotNil(audits[0].ProcessedAt)
	s.Contains(audits[0].ProcessingError, "lock timeout")
	s.Empty(s.GetPublisher().Events())
}

func (s *WebhookServiceSuite) TestPublishFailureDoesNotFailDelivery() {
	s.GetPublisher().Err = ierr.NewError("broker down").Mark(ierr.ErrSystem)
	body := paymentBody("evt_6", "payment.succeeded", "P6", "paid", `{"booking_id":"bk_1"}`)

	resp, err := s.service.HandleMoyasarWebhook(s.GetContext(), signed(body))
	s.Require().NoError(err)
	s.True(resp.Processed)
}
