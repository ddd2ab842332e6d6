package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/domain/account"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/idempotency"
	"github.com/reportik/reportik/internal/testutil"
	"github.com/reportik/reportik/internal/types"
)

type BillingServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	billingService BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceTestSuite))
}

func (s *BillingServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.billingService = NewBillingService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		AccountRepo:      s.GetStores().AccountRepo,
		LedgerRepo:       s.GetStores().LedgerRepo,
		PaymentRepo:      s.GetStores().PaymentRepo,
		ClientRepo:       s.GetStores().ClientRepo,
		ReportRepo:       s.GetStores().ReportRepo,
		Cache:            s.GetCache(),
		Gateway:          s.GetGateway(),
		IdempotencyGen:   idempotency.NewGenerator(),
		WebhookPublisher: s.GetPublisher(),
	})
	s.seedAccount(types.PlanFree, 1000, 0)
}

func (s *BillingServiceTestSuite) seedAccount(plan types.PlanType, limit, used int64) {
	now := time.Now().UTC()
	s.GetStores().AccountRepo.Clear()
	s.NoError(s.GetStores().AccountRepo.Create(s.GetContext(), &account.Account{
		ID:                testutil.DefaultTenantID,
		Name:              "Test Agency",
		Plan:              plan,
		CreditLimit:       limit,
		CreditUsed:        used,
		CreditPeriodStart: now,
		Metadata:          types.Metadata{},
		BaseModel: types.BaseModel{
			TenantID:  testutil.DefaultTenantID,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}))
}

func (s *BillingServiceTestSuite) TestUpgradePlanOpensCheckout() {
	resp, err := s.billingService.UpgradePlan(s.GetContext(), &dto.UpgradePlanRequest{Plan: types.PlanPro})
	s.NoError(err)
	s.NotEmpty(resp.IntentID)
	s.Equal("checkout_test", resp.CheckoutID)
	s.Equal("https://checkout.test/init", resp.InitPoint)
	s.Equal(1, s.GetGateway().CheckoutCount())

	intent, err := s.GetStores().PaymentRepo.GetIntent(s.GetContext(), resp.IntentID)
	s.NoError(err)
	s.Equal(types.PaymentIntentKindSubscription, intent.Kind)
	s.Equal(types.PaymentIntentStatusPending, intent.IntentStatus)
	s.Equal("checkout_test", intent.ProviderRef)
	s.NotNil(intent.TargetPlan)
	s.Equal(types.PlanPro, *intent.TargetPlan)
	s.Equal("297", intent.Amount.String())
	s.Equal("BRL", intent.Currency)
	s.NotEmpty(intent.IdempotencyKey)

	// Upgrades are deferred until the provider confirms the payment
	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(types.PlanFree, acct.Plan)
}

func (s *BillingServiceTestSuite) TestUpgradePlanRejectsFreePlan() {
	_, err := s.billingService.UpgradePlan(s.GetContext(), &dto.UpgradePlanRequest{Plan: types.PlanFree})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceTestSuite) TestUpgradePlanRejectsCurrentPlan() {
	s.seedAccount(types.PlanPro, 20000, 0)

	_, err := s.billingService.UpgradePlan(s.GetContext(), &dto.UpgradePlanRequest{Plan: types.PlanPro})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(0, s.GetGateway().CheckoutCount())
}

func (s *BillingServiceTestSuite) TestPurchaseCreditsOpensCheckout() {
	resp, err := s.billingService.PurchaseCredits(s.GetContext(), &dto.PurchaseCreditsRequest{Credits: 3000})
	s.NoError(err)

	intent, err := s.GetStores().PaymentRepo.GetIntent(s.GetContext(), resp.IntentID)
	s.NoError(err)
	s.Equal(types.PaymentIntentKindCreditsPurchase, intent.Kind)
	s.NotNil(intent.CreditsRequested)
	s.Equal(int64(3000), *intent.CreditsRequested)
	s.Equal("79", intent.Amount.String())
}

func (s *BillingServiceTestSuite) TestPurchaseCreditsRejectsUnknownPackage() {
	_, err := s.billingService.PurchaseCredits(s.GetContext(), &dto.PurchaseCreditsRequest{Credits: 1234})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal(0, s.GetGateway().CheckoutCount())
}

func (s *BillingServiceTestSuite) TestCheckoutFailureLeavesNoIntent() {
	s.GetGateway().FailAll(true)

	_, err := s.billingService.UpgradePlan(s.GetContext(), &dto.UpgradePlanRequest{Plan: types.PlanPro})
	s.Error(err)
	s.True(ierr.IsIntegration(err))

	history, err := s.billingService.GetPaymentHistory(s.GetContext(), 10)
	s.NoError(err)
	s.Equal(0, history.Total)
}
