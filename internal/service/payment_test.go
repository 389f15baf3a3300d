package service

import (
	"testing"

	"github.com/funduq/funduq/internal/api/dto"
	"github.com/funduq/funduq/internal/cache"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar"
	"github.com/funduq/funduq/internal/testutil"
	"github.com/funduq/funduq/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PaymentService
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPaymentService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.GetStores().BookingRepo.AddBooking("bk_1", decimal.NewFromInt(500))
}

func cardSource() dto.PaymentSourceRequest {
	return dto.PaymentSourceRequest{
		Type:   "creditcard",
		Name:   "Guest Name",
		Number: "4111111111111111",
		CVC:    "123",
		Month:  "12",
		Year:   "30",
	}
}

func (s *PaymentServiceSuite) TestCreateBookingPayment() {
	resp, err := s.service.CreateBookingPayment(s.GetContext(), &dto.CreateBookingPaymentRequest{
		BookingID:   "bk_1",
		Amount:      decimal.RequireFromString("199.50"),
		Currency:    "sar",
		CallbackURL: "https://pms.example.com/payments/callback",
		Source:      cardSource(),
		Metadata: map[string]string{
			types.MetadataKeyBookingID: "bk_other",
			types.MetadataKeyUserID:    "usr_1",
			"room":                     "204",
		},
	})
	s.Require().NoError(err)
	s.Equal(int64(19950), resp.Amount)
	s.True(resp.AmountMajor.Equal(decimal.RequireFromString("199.5")))
	s.NotEmpty(resp.RedirectURL)

	intents := s.GetMoyasarClient().Intents
	s.Require().Len(intents, 1)
	intent := intents[0]
	s.Equal("SAR", intent.Currency)
	s.Equal(map[string]string{types.MetadataKeyBookingID: "bk_1", "room": "204"}, intent.Metadata)
	s.Equal("Booking bk_1", intent.Description)
	s.NotEmpty(intent.GivenID)
	s.IsType(moyasar.CreditCardSource{}, intent.Source)
}

func (s *PaymentServiceSuite) TestCreateBookingPaymentUnknownBooking() {
	_, err := s.service.CreateBookingPayment(s.GetContext(), &dto.CreateBookingPaymentRequest{
		BookingID:   "bk_missing",
		Amount:      decimal.NewFromInt(10),
		CallbackURL: "https://pms.example.com/cb",
		Source:      dto.PaymentSourceRequest{Type: "redirect"},
	})
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
	s.Empty(s.GetMoyasarClient().Intents)
}

func (s *PaymentServiceSuite) TestCreateBookingPaymentInvalidRequest() {
	tests := []struct {
		name string
		req  *dto.CreateBookingPaymentRequest
	}{
		{"missing booking", &dto.CreateBookingPaymentRequest{CallbackURL: "https://x.example.com", Source: cardSource()}},
		{"bad callback", &dto.CreateBookingPaymentRequest{BookingID: "bk_1", CallbackURL: "not a url", Source: cardSource()}},
		{"unknown source", &dto.CreateBookingPaymentRequest{BookingID: "bk_1", CallbackURL: "https://x.example.com", Source: dto.PaymentSourceRequest{Type: "cash"}}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.CreateBookingPayment(s.GetContext(), tt.req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}

func (s *PaymentServiceSuite) TestCreateSubscriptionPayment() {
	s.GetConfig().Subscription.YearlyPrice = decimal.NewFromInt(999)

	resp, err := s.service.CreateSubscriptionPayment(s.GetContext(), &dto.CreateSubscriptionPaymentRequest{
		UserID:      "usr_1",
		PlanID:      "Yearly",
		CallbackURL: "https://pms.example.com/cb",
		Source:      dto.PaymentSourceRequest{Type: "stcpay", Mobile: "0512345678"},
	})
	s.Require().NoError(err)
	s.Equal(int64(99900), resp.Amount)

	intent := s.GetMoyasarClient().Intents[0]
	s.Equal("usr_1", intent.Metadata[types.MetadataKeyUserID])
	s.Equal("yearly", intent.Metadata[types.MetadataKeyPlanID])
	s.Equal(moyasar.WalletPhoneSource{Phone: "0512345678"}, intent.Source)
}

func (s *PaymentServiceSuite) TestCreateSubscriptionPaymentRejectsPlan() {
	_, err := s.service.CreateSubscriptionPayment(s.GetContext(), &dto.CreateSubscriptionPaymentRequest{
		UserID:      "usr_1",
		PlanID:      "weekly",
		CallbackURL: "https://pms.example.com/cb",
		Source:      dto.PaymentSourceRequest{Type: "redirect"},
	})
	s.True(ierr.IsValidation(err))

	s.GetConfig().Subscription.MonthlyPrice = decimal.Zero
	_, err = s.service.CreateSubscriptionPayment(s.GetContext(), &dto.CreateSubscriptionPaymentRequest{
		UserID:      "usr_1",
		PlanID:      "monthly",
		CallbackURL: "https://pms.example.com/cb",
		Source:      dto.PaymentSourceRequest{Type: "redirect"},
	})
	s.True(ierr.IsConfiguration(err))
	s.Empty(s.GetMoyasarClient().Intents)
}

func (s *PaymentServiceSuite) TestGetPaymentIsCached() {
	s.GetMoyasarClient().AddPayment(&moyasar.PaymentRecord{ID: "P1", Status: moyasar.PaymentStatusPaid, Amount: 1000})

	for i := 0; i < 3; i++ {
		resp, err := s.service.GetPayment(s.GetContext(), "P1")
		s.Require().NoError(err)
		s.Equal(moyasar.PaymentStatusPaid, resp.Status)
	}
	s.Equal(1, s.GetMoyasarClient().GetCalls)

	_, found := s.GetCache().Get(s.GetContext(), cache.PaymentKey("P1"))
	s.True(found)
}

func (s *PaymentServiceSuite) TestRefundInvalidatesCache() {
	s.GetMoyasarClient().AddPayment(&moyasar.PaymentRecord{ID: "P1", Status: moyasar.PaymentStatusPaid, Amount: 1000})
	_, err := s.service.GetPayment(s.GetContext(), "P1")
	s.Require().NoError(err)

	resp, err := s.service.RefundPayment(s.GetContext(), "P1", &dto.RefundPaymentRequest{
		Amount: lo.ToPtr(decimal.NewFromInt(4)),
		Reason: "guest cancelled",
	})
	s.Require().NoError(err)
	s.Equal(moyasar.PaymentStatusPartiallyRefunded, resp.Status)
	s.Equal(int64(400), resp.RefundedAmount)

	_, found := s.GetCache().Get(s.GetContext(), cache.PaymentKey("P1"))
	s.False(found)

	got, err := s.service.GetPayment(s.GetContext(), "P1")
	s.Require().NoError(err)
	s.Equal(moyasar.PaymentStatusPartiallyRefunded, got.Status)
	s.Equal(2, s.GetMoyasarClient().GetCalls)
}

func (s *PaymentServiceSuite) TestCapture() {
	s.GetMoyasarClient().AddPayment(&moyasar.PaymentRecord{ID: "P1", Status: moyasar.PaymentStatusAuthorized, Amount: 1000})

	resp, err := s.service.CapturePayment(s.GetContext(), "P1", &dto.CapturePaymentRequest{})
	s.Require().NoError(err)
	s.Equal(moyasar.PaymentStatusCaptured, resp.Status)
	s.Equal(int64(1000), resp.CapturedAmount)

	_, err = s.service.CapturePayment(s.GetContext(), "P1", &dto.CapturePaymentRequest{Amount: lo.ToPtr(decimal.Zero)})
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestListPayments() {
	client := s.GetMoyasarClient()
	client.AddPayment(&moyasar.PaymentRecord{ID: "P1", Status: moyasar.PaymentStatusPaid, Amount: 1000})
	client.AddPayment(&moyasar.PaymentRecord{ID: "P2", Status: moyasar.PaymentStatusFailed, Amount: 2000})

	resp, err := s.service.ListPayments(s.GetContext(), &dto.ListPaymentsRequest{Status: "PAID"})
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal("P1", resp.Items[0].ID)
	s.Equal(1, resp.Page)

	_, err = s.service.ListPayments(s.GetContext(), &dto.ListPaymentsRequest{PerPage: 500})
	s.True(ierr.IsValidation(err))
}
