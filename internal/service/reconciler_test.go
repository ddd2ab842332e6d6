package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/billing"
	"github.com/reportik/reportik/internal/domain/account"
	"github.com/reportik/reportik/internal/domain/payment"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/testutil"
	"github.com/reportik/reportik/internal/types"
)

type ReconcilerServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	reconciler ReconcilerService
}

func TestReconcilerService(t *testing.T) {
	suite.Run(t, new(ReconcilerServiceTestSuite))
}

func (s *ReconcilerServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.reconciler = NewReconcilerService(ServiceParams{
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
		WebhookPublisher: s.GetPublisher(),
	})
}

func (s *ReconcilerServiceTestSuite) seedAccount(plan types.PlanType, limit, used int64) {
	now := time.Now().UTC()
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

func (s *ReconcilerServiceTestSuite) seedSubscriptionIntent(id string, targetPlan types.PlanType) *payment.Intent {
	now := time.Now().UTC()
	intent := &payment.Intent{
		ID:           id,
		Kind:         types.PaymentIntentKindSubscription,
		TargetPlan:   &targetPlan,
		ProviderRef:  "checkout_test",
		IntentStatus: types.PaymentIntentStatusPending,
		Amount:       decimal.NewFromInt(297),
		Currency:     "BRL",
		BaseModel: types.BaseModel{
			TenantID:  testutil.DefaultTenantID,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.NoError(s.GetStores().PaymentRepo.CreateIntent(s.GetContext(), intent))
	return intent
}

func (s *ReconcilerServiceTestSuite) seedCreditsIntent(id string, credits int64, amount int64) *payment.Intent {
	now := time.Now().UTC()
	intent := &payment.Intent{
		ID:               id,
		Kind:             types.PaymentIntentKindCreditsPurchase,
		CreditsRequested: &credits,
		ProviderRef:      "checkout_test",
		IntentStatus:     types.PaymentIntentStatusPending,
		Amount:           decimal.NewFromInt(amount),
		Currency:         "BRL",
		BaseModel: types.BaseModel{
			TenantID:  testutil.DefaultTenantID,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.NoError(s.GetStores().PaymentRepo.CreateIntent(s.GetContext(), intent))
	return intent
}

func (s *ReconcilerServiceTestSuite) seedProviderPayment(paymentID, status, externalReference string) {
	s.GetGateway().SeedPayment(&billing.ProviderPayment{
		ID:                paymentID,
		Status:            status,
		StatusDetail:      "accredited",
		ExternalReference: externalReference,
		TransactionAmount: decimal.NewFromInt(297),
		Currency:          "BRL",
		Metadata:          map[string]string{"tenant_id": testutil.DefaultTenantID},
	})
}

func (s *ReconcilerServiceTestSuite) notify(paymentID, requestID string) error {
	sig := billing.SignNotification(paymentID, requestID, fmt.Sprint(time.Now().Unix()), s.GetConfig().Billing.WebhookSecret)
	notification := &dto.ProviderNotification{Type: types.ProviderNotificationTypePayment}
	notification.Data.ID = paymentID
	return s.reconciler.ProcessNotification(s.GetContext(), notification, sig, requestID)
}

func (s *ReconcilerServiceTestSuite) TestRejectsBadSignature() {
	notification := &dto.ProviderNotification{Type: types.ProviderNotificationTypePayment}
	notification.Data.ID = "mp_1"

	err := s.reconciler.ProcessNotification(s.GetContext(), notification, "ts=1,v1=deadbeef", "req_1")
	s.Error(err)
	s.True(ierr.IsInvalidSignature(err))
}

func (s *ReconcilerServiceTestSuite) TestRejectsMissingSignature() {
	notification := &dto.ProviderNotification{Type: types.ProviderNotificationTypePayment}
	notification.Data.ID = "mp_1"

	err := s.reconciler.ProcessNotification(s.GetContext(), notification, "", "req_1")
	s.Error(err)
	s.True(ierr.IsInvalidSignature(err))
}

func (s *ReconcilerServiceTestSuite) TestRejectsPaymentNotificationWithoutID() {
	err := s.notify("", "req_1")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ReconcilerServiceTestSuite) TestIgnoresNonPaymentNotification() {
	// The gateway would fail if it were called
	s.GetGateway().FailAll(true)

	sig := billing.SignNotification("mo_1", "req_1", fmt.Sprint(time.Now().Unix()), s.GetConfig().Billing.WebhookSecret)
	notification := &dto.ProviderNotification{Type: "merchant_order"}
	notification.Data.ID = "mo_1"

	err := s.reconciler.ProcessNotification(s.GetContext(), notification, sig, "req_1")
	s.NoError(err)
}

func (s *ReconcilerServiceTestSuite) TestUnmatchedPaymentRecordedAndAcked() {
	s.seedAccount(types.PlanFree, 1000, 600)
	s.seedProviderPayment("mp_orphan", types.ProviderPaymentStatusApproved, "pi_unknown")

	err := s.notify("mp_orphan", "req_1")
	s.NoError(err)

	// No credit effect, but the payment left an audit record
	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(600), acct.CreditUsed)
	s.Equal(types.PlanFree, acct.Plan)

	records, err := s.GetStores().PaymentRepo.ListRecords(s.GetContext(), testutil.DefaultTenantID, 10)
	s.NoError(err)
	s.Len(records, 1)
	s.Equal("mp_orphan", records[0].ProviderPaymentID)
	s.Nil(records[0].IntentID)
}

func (s *ReconcilerServiceTestSuite) TestApprovedSubscriptionUpgradesPlan() {
	s.seedAccount(types.PlanFree, 1000, 600)
	s.seedSubscriptionIntent("pi_1", types.PlanPro)
	s.seedProviderPayment("mp_1", types.ProviderPaymentStatusApproved, "pi_1")

	err := s.notify("mp_1", "req_1")
	s.NoError(err)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(types.PlanPro, acct.Plan)
	s.Equal(int64(20000), acct.CreditLimit)
	s.Equal(int64(0), acct.CreditUsed)

	intent, err := s.GetStores().PaymentRepo.GetIntent(s.GetContext(), "pi_1")
	s.NoError(err)
	s.Equal(types.PaymentIntentStatusApproved, intent.IntentStatus)
	s.NotNil(intent.ExternalReference)
	s.Equal("mp_1", *intent.ExternalReference)

	entries, err := s.GetStores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "pi_1")
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerReasonPlanUpgrade, entries[0].Reason)
	s.Equal(int64(-600), entries[0].Delta)

	events := s.GetPublisher().EventsByName(types.WebhookEventPaymentApproved)
	s.Len(events, 1)
	s.Equal(testutil.DefaultTenantID, events[0].TenantID)
}

func (s *ReconcilerServiceTestSuite) TestApprovedCreditsPurchaseRaisesLimit() {
	s.seedAccount(types.PlanStarter, 5000, 4000)
	s.seedCreditsIntent("pi_2", 10000, 249)
	s.seedProviderPayment("mp_2", types.ProviderPaymentStatusApproved, "pi_2")

	err := s.notify("mp_2", "req_1")
	s.NoError(err)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(15000), acct.CreditLimit)
	s.Equal(int64(4000), acct.CreditUsed)
	s.Equal(types.PlanStarter, acct.Plan)

	entries, err := s.GetStores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "pi_2")
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerReasonCreditsPurchase, entries[0].Reason)
	s.Equal(int64(0), entries[0].Delta)
}

func (s *ReconcilerServiceTestSuite) TestReplayedNotificationAppliesOnce() {
	s.seedAccount(types.PlanStarter, 5000, 4000)
	s.seedCreditsIntent("pi_3", 10000, 249)
	s.seedProviderPayment("mp_3", types.ProviderPaymentStatusApproved, "pi_3")

	s.NoError(s.notify("mp_3", "req_1"))

	// Same delivery replayed, then a fresh retry with a new request id.
	// The first is caught by the replay cache, the second by the terminal
	// intent status.
	s.NoError(s.notify("mp_3", "req_1"))
	s.NoError(s.notify("mp_3", "req_2"))

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(15000), acct.CreditLimit)

	entries, err := s.GetStores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "pi_3")
	s.NoError(err)
	s.Len(entries, 1)
}

func (s *ReconcilerServiceTestSuite) TestConcurrentDuplicateDeliveryAppliesOnce() {
	// Provider retries carry fresh request ids, so the replay cache cannot
	// catch them; the intent status flip is the only gate
	s.seedAccount(types.PlanStarter, 5000, 4000)
	s.seedCreditsIntent("pi_dup", 10000, 249)
	s.seedProviderPayment("mp_dup", types.ProviderPaymentStatusApproved, "pi_dup")

	var wg conc.WaitGroup
	for i := 0; i < 4; i++ {
		requestID := fmt.Sprintf("req_%d", i)
		wg.Go(func() {
			s.NoError(s.notify("mp_dup", requestID))
		})
	}
	wg.Wait()

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(15000), acct.CreditLimit)
	s.Equal(int64(4000), acct.CreditUsed)

	entries, err := s.GetStores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "pi_dup")
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerReasonCreditsPurchase, entries[0].Reason)

	events := s.GetPublisher().EventsByName(types.WebhookEventPaymentApproved)
	s.Len(events, 1)
}

func (s *ReconcilerServiceTestSuite) TestRejectedPaymentLeavesCreditsUntouched() {
	s.seedAccount(types.PlanFree, 1000, 600)
	s.seedSubscriptionIntent("pi_4", types.PlanPro)
	s.seedProviderPayment("mp_4", types.ProviderPaymentStatusRejected, "pi_4")

	err := s.notify("mp_4", "req_1")
	s.NoError(err)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(types.PlanFree, acct.Plan)
	s.Equal(int64(600), acct.CreditUsed)

	intent, err := s.GetStores().PaymentRepo.GetIntent(s.GetContext(), "pi_4")
	s.NoError(err)
	s.Equal(types.PaymentIntentStatusRejected, intent.IntentStatus)

	events := s.GetPublisher().EventsByName(types.WebhookEventPaymentRejected)
	s.Len(events, 1)
}

func (s *ReconcilerServiceTestSuite) TestPendingPaymentOnlyRefreshesRecord() {
	s.seedAccount(types.PlanFree, 1000, 600)
	s.seedSubscriptionIntent("pi_5", types.PlanPro)
	s.seedProviderPayment("mp_5", types.ProviderPaymentStatusPending, "pi_5")

	err := s.notify("mp_5", "req_1")
	s.NoError(err)

	intent, err := s.GetStores().PaymentRepo.GetIntent(s.GetContext(), "pi_5")
	s.NoError(err)
	s.Equal(types.PaymentIntentStatusPending, intent.IntentStatus)

	records, err := s.GetStores().PaymentRepo.ListRecords(s.GetContext(), testutil.DefaultTenantID, 10)
	s.NoError(err)
	s.Len(records, 1)
	s.Equal(types.ProviderPaymentStatusPending, records[0].ProviderStatus)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(600), acct.CreditUsed)
}

func (s *ReconcilerServiceTestSuite) TestGatewayFailureSurfacesIntegrationError() {
	s.seedAccount(types.PlanFree, 1000, 600)
	s.GetGateway().FailAll(true)

	err := s.notify("mp_6", "req_1")
	s.Error(err)
	s.True(ierr.IsIntegration(err))
}
