package service

import (
	"testing"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/integration/moyasar/webhook"
	"github.com/funduq/funduq/internal/testutil"
	"github.com/funduq/funduq/internal/types"
	"github.com/stretchr/testify/suite"
)

type SubscriptionApplierSuite struct {
	testutil.BaseServiceTestSuite
	applier SubscriptionApplier
}

func TestSubscriptionApplier(t *testing.T) {
	suite.Run(t, new(SubscriptionApplierSuite))
}

func (s *SubscriptionApplierSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.applier = NewSubscriptionApplier(newTestServiceParams(&s.BaseServiceTestSuite))
	s.GetStores().UserRepo.AddUser("usr_1", false)
}

func (s *SubscriptionApplierSuite) isPremium() bool {
	premium, err := s.GetStores().UserRepo.IsPremium(s.GetContext(), "usr_1")
	s.Require().NoError(err)
	return premium
}

func (s *SubscriptionApplierSuite) TestActivatePeriods() {
	tests := []struct {
		plan   string
		months int
		years  int
	}{
		{"monthly", 1, 0},
		{"yearly", 0, 1},
	}

	for _, tt := range tests {
		s.Run(tt.plan, func() {
			res, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{
				UserID:           "usr_1",
				PlanID:           tt.plan,
				GatewayPaymentID: "P_" + tt.plan,
			})
			s.Require().NoError(err)
			s.False(res.AlreadyApplied)

			sub, err := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")
			s.Require().NoError(err)
			s.Equal(types.SubscriptionPlan(tt.plan), sub.PlanID)
			s.Equal(types.SubscriptionStatusActive, sub.Status)
			s.Equal(s.GetNow(), sub.CurrentPeriodStart)
			s.Equal(s.GetNow().AddDate(tt.years, tt.months, 0), sub.CurrentPeriodEnd)
			s.True(s.isPremium())
		})
	}

	// one record per user across both activations
	s.Equal(1, s.GetStores().SubscriptionRepo.Len())
}

func (s *SubscriptionApplierSuite) TestActivateRedeliveryIsNoop() {
	input := &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "yearly", GatewayPaymentID: "P1"}

	_, err := s.applier.Activate(s.GetContext(), input)
	s.Require().NoError(err)
	first, err := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")
	s.Require().NoError(err)

	res, err := s.applier.Activate(s.GetContext(), input)
	s.NoError(err)
	s.True(res.AlreadyApplied)

	second, err := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *SubscriptionApplierSuite) TestRenewalKeepsRecordID() {
	_, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "monthly", GatewayPaymentID: "P1"})
	s.Require().NoError(err)
	first, _ := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")

	_, err = s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "yearly", GatewayPaymentID: "P2"})
	s.Require().NoError(err)
	second, _ := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")

	s.Equal(first.ID, second.ID)
	s.Equal("P2", second.GatewayPaymentID)
	s.Equal(types.SubscriptionPlanYearly, second.PlanID)
}

func (s *SubscriptionApplierSuite) TestOlderPaymentRedeliveryAfterRenewal() {
	_, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "monthly", GatewayPaymentID: "P1"})
	s.Require().NoError(err)
	_, err = s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "yearly", GatewayPaymentID: "P2"})
	s.Require().NoError(err)

	res, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "monthly", GatewayPaymentID: "P1"})
	s.Require().NoError(err)
	s.True(res.AlreadyApplied)

	sub, err := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")
	s.Require().NoError(err)
	s.Equal("P2", sub.GatewayPaymentID)
	s.Equal(types.SubscriptionPlanYearly, sub.PlanID)
	s.Equal(s.GetNow().AddDate(1, 0, 0), sub.CurrentPeriodEnd)
	s.Equal(2, s.GetStores().SubscriptionRepo.ClaimCount())
}

func (s *SubscriptionApplierSuite) TestActivationRedeliveryAfterRefund() {
	input := &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "monthly", GatewayPaymentID: "P1"}
	_, err := s.applier.Activate(s.GetContext(), input)
	s.Require().NoError(err)
	_, err = s.applier.Revoke(s.GetContext(), &webhook.SubscriptionRevocation{UserID: "usr_1", GatewayPaymentID: "P1"})
	s.Require().NoError(err)

	res, err := s.applier.Activate(s.GetContext(), input)
	s.Require().NoError(err)
	s.True(res.AlreadyApplied)
	s.False(s.isPremium())

	sub, err := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusRefunded, sub.Status)
}

func (s *SubscriptionApplierSuite) TestActivateRejectsUnknownPlan() {
	for _, plan := range []string{"", "weekly", "MONTHLY "} {
		_, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{
			UserID:           "usr_1",
			PlanID:           plan,
			GatewayPaymentID: "P1",
		})
		s.Require().Error(err, plan)
		s.True(ierr.IsValidation(err))
	}
	s.Equal(0, s.GetStores().SubscriptionRepo.Len())
	s.False(s.isPremium())
}

func (s *SubscriptionApplierSuite) TestActivateUnknownUser() {
	_, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{
		UserID:           "usr_missing",
		PlanID:           "monthly",
		GatewayPaymentID: "P1",
	})
	s.Require().Error(err)
	s.True(ierr.IsApplier(err))
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionApplierSuite) TestRevoke() {
	_, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "monthly", GatewayPaymentID: "P1"})
	s.Require().NoError(err)
	s.True(s.isPremium())

	res, err := s.applier.Revoke(s.GetContext(), &webhook.SubscriptionRevocation{UserID: "usr_1", GatewayPaymentID: "P1"})
	s.Require().NoError(err)
	s.False(res.AlreadyApplied)
	s.False(s.isPremium())

	sub, err := s.GetStores().SubscriptionRepo.GetByUserID(s.GetContext(), "usr_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusRefunded, sub.Status)
	s.False(sub.IsActiveAt(s.GetNow()))

	res, err = s.applier.Revoke(s.GetContext(), &webhook.SubscriptionRevocation{UserID: "usr_1", GatewayPaymentID: "P1"})
	s.Require().NoError(err)
	s.True(res.AlreadyApplied)
}

func (s *SubscriptionApplierSuite) TestRevokeWithoutRecordClearsPremium() {
	s.GetStores().UserRepo.AddUser("usr_2", true)

	res, err := s.applier.Revoke(s.GetContext(), &webhook.SubscriptionRevocation{UserID: "usr_2", GatewayPaymentID: "P9"})
	s.Require().NoError(err)
	s.False(res.AlreadyApplied)

	premium, err := s.GetStores().UserRepo.IsPremium(s.GetContext(), "usr_2")
	s.Require().NoError(err)
	s.False(premium)
	s.Equal(0, s.GetStores().SubscriptionRepo.Len())
}

func (s *SubscriptionApplierSuite) TestMissingIDs() {
	_, err := s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{PlanID: "monthly", GatewayPaymentID: "P1"})
	s.True(ierr.IsValidation(err))

	_, err = s.applier.Activate(s.GetContext(), &webhook.SubscriptionActivation{UserID: "usr_1", PlanID: "monthly"})
	s.True(ierr.IsValidation(err))

	_, err = s.applier.Revoke(s.GetContext(), &webhook.SubscriptionRevocation{GatewayPaymentID: "P1"})
	s.True(ierr.IsValidation(err))
}
