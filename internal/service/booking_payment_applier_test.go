package service

import (
	"testing"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/funduq/funduq/internal/testutil"
	"github.com/funduq/funduq/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BookingPaymentApplierSuite struct {
	testutil.BaseServiceTestSuite
	applier BookingPaymentApplier
}

func TestBookingPaymentApplier(t *testing.T) {
	suite.Run(t, new(BookingPaymentApplierSuite))
}

func (s *BookingPaymentApplierSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.applier = NewBookingPaymentApplier(newTestServiceParams(&s.BaseServiceTestSuite))
	s.GetStores().BookingRepo.AddBooking("bk_1", decimal.NewFromInt(500))
}

func bookingInput(paymentID, amount string, status types.BookingPaymentStatus) *webhook.BookingPaymentInput {
	return &webhook.BookingPaymentInput{
		BookingID:        "bk_1",
		GatewayPaymentID: paymentID,
		Amount:           decimal.RequireFromString(amount),
		Currency:         "sar",
		Method:           "creditcard",
		Status:           status,
	}
}

func (s *BookingPaymentApplierSuite) paid() decimal.Decimal {
	totals, err := s.GetStores().BookingRepo.Get(s.GetContext(), "bk_1")
	s.Require().NoError(err)
	s.True(totals.Balance.Equal(totals.TotalAmount.Sub(totals.PaidAmount)))
	return totals.PaidAmount
}

func (s *BookingPaymentApplierSuite) TestCompletedPaymentUpdatesTotals() {
	res, err := s.applier.ApplyBookingPayment(s.GetContext(), bookingInput("P1", "200", types.BookingPaymentStatusCompleted))
	s.NoError(err)
	s.False(res.AlreadyApplied)

	entry, err := s.GetStores().LedgerRepo.GetByGatewayPaymentID(s.GetContext(), "P1")
	s.Require().NoError(err)
	s.Equal(types.BookingPaymentStatusCompleted, entry.Status)
	s.Equal("SAR", entry.Currency)
	s.Equal(s.GetNow(), entry.CreatedAt)
	s.Contains(entry.ID, types.UUID_PREFIX_BOOKING_PAYMENT+"_")

	s.True(s.paid().Equal(decimal.NewFromInt(200)))
	s.Equal(int64(1), s.GetDB().TxCount())
	s.Equal(int64(1), s.GetDB().SavepointCount())
}

func (s *BookingPaymentApplierSuite) TestRedeliveryIsIdempotent() {
	input := bookingInput("P1", "200", types.BookingPaymentStatusCompleted)

	for i := 0; i < 3; i++ {
		res, err := s.applier.ApplyBookingPayment(s.GetContext(), input)
		s.Require().NoError(err)
		s.Equal(i > 0, res.AlreadyApplied)
	}

	s.Equal(1, s.GetStores().LedgerRepo.Len())
	s.True(s.paid().Equal(decimal.NewFromInt(200)))
}

func (s *BookingPaymentApplierSuite) TestRefundRemovesFromPaid() {
	_, err := s.applier.ApplyBookingPayment(s.GetContext(), bookingInput("P1", "200", types.BookingPaymentStatusCompleted))
	s.Require().NoError(err)

	res, err := s.applier.ApplyBookingPayment(s.GetContext(), bookingInput("P1", "200", types.BookingPaymentStatusRefunded))
	s.NoError(err)
	s.False(res.AlreadyApplied)

	entry, err := s.GetStores().LedgerRepo.GetByGatewayPaymentID(s.GetContext(), "P1")
	s.Require().NoError(err)
	s.Equal(types.BookingPaymentStatusRefunded, entry.Status)
	s.True(s.paid().IsZero())
	s.Equal(1, s.GetStores().LedgerRepo.Len())
}

func (s *BookingPaymentApplierSuite) TestFailedPaymentKeepsNote() {
	input := bookingInput("P1", "200", types.BookingPaymentStatusFailed)
	input.Note = "insufficient funds"

	_, err := s.applier.ApplyBookingPayment(s.GetContext(), input)
	s.NoError(err)

	entry, err := s.GetStores().LedgerRepo.GetByGatewayPaymentID(s.GetContext(), "P1")
	s.Require().NoError(err)
	s.Equal("insufficient funds", entry.Note)
	s.True(s.paid().IsZero())
}

func (s *BookingPaymentApplierSuite) TestPaidSumsOnlyCompleted() {
	inputs := []*webhook.BookingPaymentInput{
		bookingInput("P1", "200", types.BookingPaymentStatusCompleted),
		bookingInput("P2", "99.50", types.BookingPaymentStatusCompleted),
		bookingInput("P3", "50", types.BookingPaymentStatusFailed),
		bookingInput("P4", "25", types.BookingPaymentStatusRefunded),
	}
	for _, in := range inputs {
		_, err := s.applier.ApplyBookingPayment(s.GetContext(), in)
		s.Require().NoError(err)
	}

	s.True(s.paid().Equal(decimal.RequireFromString("299.50")))
}

func (s *BookingPaymentApplierSuite) TestRedeliveryRepairsStaleTotals() {
	input := bookingInput("P1", "200", types.BookingPaymentStatusCompleted)
	_, err := s.applier.ApplyBookingPayment(s.GetContext(), input)
	s.Require().NoError(err)

	_, err = s.GetStores().BookingRepo.UpdatePaidAmount(s.GetContext(), "bk_1", decimal.Zero)
	s.Require().NoError(err)

	res, err := s.applier.ApplyBookingPayment(s.GetContext(), input)
	s.NoError(err)
	s.True(res.AlreadyApplied)
	s.True(s.paid().Equal(decimal.NewFromInt(200)))
}

func (s *BookingPaymentApplierSuite) TestTotalsFailureKeepsLedgerEntry() {
	s.GetStores().BookingRepo.UpdateErr = ierr.NewError("statement timeout").Mark(ierr.ErrDatabase)

	res, err := s.applier.ApplyBookingPayment(s.GetContext(), bookingInput("P1", "200", types.BookingPaymentStatusCompleted))
	s.Nil(res)
	s.Require().Error(err)
	s.True(ierr.IsApplier(err))
	s.True(ierr.IsDatabase(err))

	entry, err := s.GetStores().LedgerRepo.GetByGatewayPaymentID(s.GetContext(), "P1")
	s.Require().NoError(err)
	s.Equal(types.BookingPaymentStatusCompleted, entry.Status)
}

func (s *BookingPaymentApplierSuite) TestUnknownBookingIsApplierError() {
	input := bookingInput("P1", "200", types.BookingPaymentStatusCompleted)
	input.BookingID = "bk_missing"

	_, err := s.applier.ApplyBookingPayment(s.GetContext(), input)
	s.Require().Error(err)
	s.True(ierr.IsApplier(err))
	s.Equal(500, ierr.HTTPStatusFromErr(err))
}

func (s *BookingPaymentApplierSuite) TestLedgerFailureLeavesTotals() {
	s.GetStores().LedgerRepo.UpsertErr = ierr.NewError("connection lost").Mark(ierr.ErrDatabase)

	_, err := s.applier.ApplyBookingPayment(s.GetContext(), bookingInput("P1", "200", types.BookingPaymentStatusCompleted))
	s.Require().Error(err)
	s.True(ierr.IsApplier(err))
	s.Equal(0, s.GetStores().LedgerRepo.Len())
	s.True(s.paid().IsZero())
	s.Equal(int64(0), s.GetDB().SavepointCount())
}

func (s *BookingPaymentApplierSuite) TestInvalidInput() {
	tests := []struct {
		name  string
		input *webhook.BookingPaymentInput
	}{
		{"nil", nil},
		{"missing booking", &webhook.BookingPaymentInput{GatewayPaymentID: "P1", Status: types.BookingPaymentStatusCompleted}},
		{"missing payment", &webhook.BookingPaymentInput{BookingID: "bk_1", Status: types.BookingPaymentStatusCompleted}},
		{"bad status", &webhook.BookingPaymentInput{BookingID: "bk_1", GatewayPaymentID: "P1", Status: "paid"}},
		{"negative amount", &webhook.BookingPaymentInput{BookingID: "bk_1", GatewayPaymentID: "P1", Status: types.BookingPaymentStatusCompleted, Amount: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.applier.ApplyBookingPayment(s.GetContext(), tt.input)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
	s.Equal(0, s.GetStores().LedgerRepo.Len())
}
