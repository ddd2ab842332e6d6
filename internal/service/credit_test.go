package service

import (
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"

	"github.com/reportik/reportik/internal/domain/account"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/testutil"
	"github.com/reportik/reportik/internal/types"
)

type CreditServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	creditService CreditService
	testData      struct {
		account *account.Account
		now     time.Time
	}
}

func TestCreditService(t *testing.T) {
	suite.Run(t, new(CreditServiceTestSuite))
}

func (s *CreditServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupServices()
	s.setupTestData()
}

func (s *CreditServiceTestSuite) setupServices() {
	s.creditService = NewCreditService(s.serviceParams())
}

func (s *CreditServiceTestSuite) serviceParams() ServiceParams {
	return ServiceParams{
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
	}
}

func (s *CreditServiceTestSuite) setupTestData() {
	s.testData.now = time.Now().UTC()
	s.testData.account = s.seedAccount(types.PlanFree, 1000, 0, s.testData.now)
}

func (s *CreditServiceTestSuite) seedAccount(plan types.PlanType, limit, used int64, periodStart time.Time) *account.Account {
	acct := &account.Account{
		ID:                testutil.DefaultTenantID,
		Name:              "Test Agency",
		Plan:              plan,
		CreditLimit:       limit,
		CreditUsed:        used,
		CreditPeriodStart: periodStart,
		Metadata:          types.Metadata{},
		BaseModel: types.BaseModel{
			TenantID:  testutil.DefaultTenantID,
			Status:    types.StatusPublished,
			CreatedAt: periodStart,
			UpdatedAt: periodStart,
		},
	}
	s.stores().AccountRepo.Clear()
	s.NoError(s.stores().AccountRepo.Create(s.GetContext(), acct))
	return acct
}

func (s *CreditServiceTestSuite) stores() testutil.Stores {
	return s.GetStores()
}

func (s *CreditServiceTestSuite) TestGetBalance() {
	resp, err := s.creditService.GetBalance(s.GetContext())
	s.NoError(err)
	s.Equal(types.PlanFree, resp.Plan)
	s.Equal(int64(1000), resp.CreditLimit)
	s.Equal(int64(0), resp.CreditUsed)
	s.Equal(int64(1000), resp.Remaining)
	s.Equal(float64(0), resp.PercentageUsed)
	s.False(resp.IsLow)
}

func (s *CreditServiceTestSuite) TestGetBalanceLowCredits() {
	s.seedAccount(types.PlanFree, 1000, 850, s.testData.now)

	resp, err := s.creditService.GetBalance(s.GetContext())
	s.NoError(err)
	s.True(resp.IsLow)
	s.Equal(int64(150), resp.Remaining)
	s.Equal(float64(85), resp.PercentageUsed)
}

func (s *CreditServiceTestSuite) TestTryConsume() {
	acct, err := s.creditService.TryConsume(s.GetContext(), 120, types.LedgerReasonReportGeneration, "rep_1", "report generation")
	s.NoError(err)
	s.Equal(int64(120), acct.CreditUsed)

	entries, err := s.stores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "rep_1")
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(int64(120), entries[0].Delta)
	s.Equal(types.LedgerReasonReportGeneration, entries[0].Reason)
}

func (s *CreditServiceTestSuite) TestTryConsumeInsufficientCredits() {
	s.seedAccount(types.PlanFree, 1000, 990, s.testData.now)

	_, err := s.creditService.TryConsume(s.GetContext(), 50, types.LedgerReasonReportGeneration, "rep_1", "")
	s.Error(err)
	s.True(ierr.IsInsufficientCredits(err))

	// Nothing was debited and no ledger entry was written
	acct, err := s.stores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(990), acct.CreditUsed)

	entries, err := s.stores().LedgerRepo.List(s.GetContext(), testutil.DefaultTenantID, 10)
	s.NoError(err)
	s.Empty(entries)
}

func (s *CreditServiceTestSuite) TestConcurrentConsumeSingleWinner() {
	// 10 credits remain; five concurrent debits of 7 can only fit once
	s.seedAccount(types.PlanFree, 1000, 990, s.testData.now)

	results := make(chan error, 5)
	var wg conc.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Go(func() {
			_, err := s.creditService.TryConsume(s.GetContext(), 7, types.LedgerReasonReportGeneration, "", "")
			results <- err
		})
	}
	wg.Wait()
	close(results)

	var successes, insufficient int
	for err := range results {
		if err == nil {
			successes++
		} else if ierr.IsInsufficientCredits(err) {
			insufficient++
		} else {
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, successes)
	s.Equal(4, insufficient)

	acct, err := s.stores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(997), acct.CreditUsed)
}

func (s *CreditServiceTestSuite) TestLazyRollover() {
	periodStart := s.testData.now.AddDate(0, 0, -40)
	s.seedAccount(types.PlanFree, 1000, 800, periodStart)

	resp, err := s.creditService.GetBalance(s.GetContext())
	s.NoError(err)
	s.Equal(int64(0), resp.CreditUsed)
	s.Equal(int64(1000), resp.CreditLimit)
	s.True(resp.CreditPeriodStart.After(periodStart))

	entries, err := s.stores().LedgerRepo.List(s.GetContext(), testutil.DefaultTenantID, 10)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerReasonMonthlyReset, entries[0].Reason)
	s.Equal(int64(-800), entries[0].Delta)
}

func (s *CreditServiceTestSuite) TestConcurrentRolloverExactlyOnce() {
	periodStart := s.testData.now.AddDate(0, 0, -40)
	s.seedAccount(types.PlanFree, 1000, 800, periodStart)

	var wg conc.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Go(func() {
			_, err := s.creditService.GetBalance(s.GetContext())
			s.NoError(err)
		})
	}
	wg.Wait()

	var resets []int64
	entries, err := s.stores().LedgerRepo.List(s.GetContext(), testutil.DefaultTenantID, 50)
	s.NoError(err)
	for _, e := range entries {
		if e.Reason == types.LedgerReasonMonthlyReset {
			resets = append(resets, e.Delta)
		}
	}
	s.Len(resets, 1)
	s.Equal(int64(-800), resets[0])
}

func (s *CreditServiceTestSuite) TestLedgerSumMatchesUsage() {
	for _, amount := range []int64{100, 250, 40} {
		_, err := s.creditService.TryConsume(s.GetContext(), amount, types.LedgerReasonReportGeneration, "", "")
		s.NoError(err)
	}

	acct, err := s.stores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)

	sum, err := s.stores().LedgerRepo.SumSince(s.GetContext(), testutil.DefaultTenantID, acct.CreditPeriodStart)
	s.NoError(err)
	s.Equal(acct.CreditUsed, sum)
}

func (s *CreditServiceTestSuite) TestReleaseReservation() {
	_, err := s.creditService.TryConsume(s.GetContext(), 200, types.LedgerReasonReportGeneration, "rep_1", "reserve")
	s.NoError(err)

	err = s.creditService.ReleaseReservation(s.GetContext(), 50, "rep_1", "true-up")
	s.NoError(err)

	acct, err := s.stores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(150), acct.CreditUsed)

	entries, err := s.stores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "rep_1")
	s.NoError(err)
	s.Len(entries, 2)
}

func (s *CreditServiceTestSuite) TestReleaseReservationFloorsAtZero() {
	_, err := s.creditService.TryConsume(s.GetContext(), 30, types.LedgerReasonReportGeneration, "rep_1", "reserve")
	s.NoError(err)

	// Releasing more than is used only gives back what was consumed
	err = s.creditService.ReleaseReservation(s.GetContext(), 500, "rep_1", "release")
	s.NoError(err)

	acct, err := s.stores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(0), acct.CreditUsed)
}

func (s *CreditServiceTestSuite) TestApplyPlanUpgrade() {
	s.seedAccount(types.PlanFree, 1000, 600, s.testData.now)

	err := s.creditService.ApplyPlanUpgrade(s.GetContext(), types.PlanPro, "pi_1")
	s.NoError(err)

	acct, err := s.stores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(types.PlanPro, acct.Plan)
	s.Equal(int64(20000), acct.CreditLimit)
	s.Equal(int64(0), acct.CreditUsed)

	entries, err := s.stores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "pi_1")
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerReasonPlanUpgrade, entries[0].Reason)
	s.Equal(int64(-600), entries[0].Delta)
}

func (s *CreditServiceTestSuite) TestApplyCreditTopUp() {
	s.seedAccount(types.PlanStarter, 5000, 4000, s.testData.now)

	err := s.creditService.ApplyCreditTopUp(s.GetContext(), 10000, "pi_1")
	s.NoError(err)

	acct, err := s.stores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(15000), acct.CreditLimit)
	s.Equal(int64(4000), acct.CreditUsed)

	entries, err := s.stores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, "pi_1")
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerReasonCreditsPurchase, entries[0].Reason)
	s.Equal(int64(0), entries[0].Delta)
}

func (s *CreditServiceTestSuite) TestCreditsLowEventPublished() {
	s.seedAccount(types.PlanFree, 1000, 700, s.testData.now)

	// Crossing the threshold fires the event once
	_, err := s.creditService.TryConsume(s.GetContext(), 150, types.LedgerReasonReportGeneration, "", "")
	s.NoError(err)

	events := s.GetPublisher().EventsByName(types.WebhookEventCreditsLow)
	s.Len(events, 1)

	// Consuming more while already low stays quiet
	_, err = s.creditService.TryConsume(s.GetContext(), 50, types.LedgerReasonReportGeneration, "", "")
	s.NoError(err)

	events = s.GetPublisher().EventsByName(types.WebhookEventCreditsLow)
	s.Len(events, 1)
}
