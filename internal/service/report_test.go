package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reportik/reportik/internal/ai"
	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/domain/account"
	"github.com/reportik/reportik/internal/domain/client"
	"github.com/reportik/reportik/internal/domain/report"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/metrics"
	"github.com/reportik/reportik/internal/testutil"
	"github.com/reportik/reportik/internal/types"
)

type stubProvider struct {
	name    string
	cost    int64
	summary string
	fail    bool
	calls   int
}

func (p *stubProvider) Name() string       { return p.name }
func (p *stubProvider) EstimateCost() int64 { return p.cost }

func (p *stubProvider) Summarize(ctx context.Context, m *metrics.Metrics, periodStart, periodEnd time.Time) (string, error) {
	p.calls++
	if p.fail {
		return "", ierr.NewError("provider unavailable").
			Mark(ierr.ErrIntegration)
	}
	return p.summary, nil
}

type stubMetricsSource struct {
	fail bool
}

func (s *stubMetricsSource) Fetch(ctx context.Context, clientID string, periodStart, periodEnd time.Time) (*metrics.Metrics, error) {
	if s.fail {
		return nil, ierr.NewError("metrics backend unavailable").
			Mark(ierr.ErrIntegration)
	}
	return &metrics.Metrics{
		Totals: metrics.Totals{
			Impressions: 12000,
			Clicks:      480,
			CTR:         4.0,
			Conversions: 32,
			Cost:        1500.50,
		},
	}, nil
}

type ReportServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	metricsSource *stubMetricsSource
}

func TestReportService(t *testing.T) {
	suite.Run(t, new(ReportServiceTestSuite))
}

func (s *ReportServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.metricsSource = &stubMetricsSource{}
}

func (s *ReportServiceTestSuite) newService(providers ...ai.Provider) ReportService {
	return NewReportService(ServiceParams{
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
		AIChain:          ai.NewChain(providers, s.GetLogger()),
		MetricsSource:    s.metricsSource,
		WebhookPublisher: s.GetPublisher(),
	})
}

func (s *ReportServiceTestSuite) seedAccount(plan types.PlanType, limit, used int64) {
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

func (s *ReportServiceTestSuite) seedClient(id string) {
	now := time.Now().UTC()
	s.NoError(s.GetStores().ClientRepo.Create(s.GetContext(), &client.Client{
		ID:        id,
		Name:      "Acme Store",
		Segment:   "ecommerce",
		Objective: "conversions",
		Channels:  []string{"meta_ads", "google_ads"},
		BaseModel: types.BaseModel{
			TenantID:  testutil.DefaultTenantID,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}))
}

func (s *ReportServiceTestSuite) seedReport(id string) *report.Report {
	now := time.Now().UTC()
	rep := &report.Report{
		ID:          id,
		ClientID:    "client_1",
		PeriodStart: now.AddDate(0, -1, 0),
		PeriodEnd:   now,
		Summary:     "steady growth",
		Provider:    "openai",
		CostCredits: 100,
		BaseModel: types.BaseModel{
			TenantID:  testutil.DefaultTenantID,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.NoError(s.GetStores().ReportRepo.Create(s.GetContext(), rep))
	return rep
}

func (s *ReportServiceTestSuite) createRequest() *dto.CreateReportRequest {
	now := time.Now().UTC()
	return &dto.CreateReportRequest{
		ClientID:    "client_1",
		PeriodStart: now.AddDate(0, -1, 0),
		PeriodEnd:   now,
	}
}

func (s *ReportServiceTestSuite) TestCreateReport() {
	s.seedAccount(types.PlanStarter, 5000, 0)
	s.seedClient("client_1")

	provider := &stubProvider{name: "openai", cost: 120, summary: "strong month"}
	svc := s.newService(provider)

	resp, err := svc.CreateReport(s.GetContext(), s.createRequest())
	s.NoError(err)
	s.Equal("strong month", resp.Summary)
	s.Equal("openai", resp.Provider)
	s.Equal(int64(120), resp.CostCredits)
	s.Equal(1, provider.calls)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(120), acct.CreditUsed)

	events := s.GetPublisher().EventsByName(types.WebhookEventReportGenerated)
	s.Len(events, 1)
}

func (s *ReportServiceTestSuite) TestCreateReportFallbackTruesUp() {
	s.seedAccount(types.PlanStarter, 5000, 0)
	s.seedClient("client_1")

	primary := &stubProvider{name: "openai", cost: 100, fail: true}
	fallback := &stubProvider{name: "anthropic", cost: 60, summary: "from fallback"}
	svc := s.newService(primary, fallback)

	resp, err := svc.CreateReport(s.GetContext(), s.createRequest())
	s.NoError(err)
	s.Equal("anthropic", resp.Provider)
	s.Equal(int64(60), resp.CostCredits)

	// Reserved 100 up front, the fallback only cost 60
	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(60), acct.CreditUsed)

	entries, err := s.GetStores().LedgerRepo.ListByOperationID(s.GetContext(), testutil.DefaultTenantID, resp.ID)
	s.NoError(err)
	s.Len(entries, 2)
}

func (s *ReportServiceTestSuite) TestCreateReportAllProvidersFailReleasesReservation() {
	s.seedAccount(types.PlanStarter, 5000, 0)
	s.seedClient("client_1")

	svc := s.newService(
		&stubProvider{name: "openai", cost: 100, fail: true},
		&stubProvider{name: "anthropic", cost: 80, fail: true},
	)

	_, err := svc.CreateReport(s.GetContext(), s.createRequest())
	s.Error(err)
	s.True(ierr.IsIntegration(err))

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(0), acct.CreditUsed)

	reports, err := s.GetStores().ReportRepo.List(s.GetContext(), testutil.DefaultTenantID, 10)
	s.NoError(err)
	s.Empty(reports)
}

func (s *ReportServiceTestSuite) TestCreateReportMetricsFailureReleasesReservation() {
	s.seedAccount(types.PlanStarter, 5000, 0)
	s.seedClient("client_1")
	s.metricsSource.fail = true

	provider := &stubProvider{name: "openai", cost: 100, summary: "unused"}
	svc := s.newService(provider)

	_, err := svc.CreateReport(s.GetContext(), s.createRequest())
	s.Error(err)
	s.True(ierr.IsIntegration(err))
	s.Equal(0, provider.calls)

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(0), acct.CreditUsed)
}

func (s *ReportServiceTestSuite) TestCreateReportInsufficientCredits() {
	s.seedAccount(types.PlanFree, 1000, 950)
	s.seedClient("client_1")

	svc := s.newService(&stubProvider{name: "openai", cost: 100, summary: "unused"})

	_, err := svc.CreateReport(s.GetContext(), s.createRequest())
	s.Error(err)
	s.True(ierr.IsInsufficientCredits(err))

	reports, err := s.GetStores().ReportRepo.List(s.GetContext(), testutil.DefaultTenantID, 10)
	s.NoError(err)
	s.Empty(reports)
}

func (s *ReportServiceTestSuite) TestCreateReportUnknownClient() {
	s.seedAccount(types.PlanStarter, 5000, 0)

	svc := s.newService(&stubProvider{name: "openai", cost: 100, summary: "unused"})

	_, err := svc.CreateReport(s.GetContext(), s.createRequest())
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), testutil.DefaultTenantID)
	s.NoError(err)
	s.Equal(int64(0), acct.CreditUsed)
}

func (s *ReportServiceTestSuite) TestPublicLinkRequiresEntitledPlan() {
	s.seedAccount(types.PlanFree, 1000, 0)
	s.seedReport("rep_1")

	svc := s.newService()

	_, err := svc.GeneratePublicLink(s.GetContext(), "rep_1")
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *ReportServiceTestSuite) TestPublicLinkIssueAndReuse() {
	s.seedAccount(types.PlanPro, 20000, 0)
	s.seedReport("rep_1")

	svc := s.newService()

	first, err := svc.GeneratePublicLink(s.GetContext(), "rep_1")
	s.NoError(err)
	s.NotEmpty(first.Token)

	// Re-issuing while the link is active returns the same token
	second, err := svc.GeneratePublicLink(s.GetContext(), "rep_1")
	s.NoError(err)
	s.Equal(first.Token, second.Token)

	public, err := svc.GetPublicReport(s.GetContext(), first.Token)
	s.NoError(err)
	s.Equal("rep_1", public.ID)
	s.Equal("steady growth", public.Summary)
}

func (s *ReportServiceTestSuite) TestRevokedLinkBehavesAsUnknown() {
	s.seedAccount(types.PlanPro, 20000, 0)
	s.seedReport("rep_1")

	svc := s.newService()

	link, err := svc.GeneratePublicLink(s.GetContext(), "rep_1")
	s.NoError(err)

	s.NoError(svc.RevokePublicLink(s.GetContext(), "rep_1"))

	_, err = svc.GetPublicReport(s.GetContext(), link.Token)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	// Issuing again after a revoke mints a fresh token
	renewed, err := svc.GeneratePublicLink(s.GetContext(), "rep_1")
	s.NoError(err)
	s.NotEqual(link.Token, renewed.Token)
}

func (s *ReportServiceTestSuite) TestRevokeWithoutLink() {
	s.seedAccount(types.PlanPro, 20000, 0)
	s.seedReport("rep_1")

	svc := s.newService()

	err := svc.RevokePublicLink(s.GetContext(), "rep_1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
