package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/domain/account"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/testutil"
	"github.com/reportik/reportik/internal/types"
)

type ClientServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	clientService ClientService
}

func TestClientService(t *testing.T) {
	suite.Run(t, new(ClientServiceTestSuite))
}

func (s *ClientServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.clientService = NewClientService(ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		DB:          s.GetDB(),
		AccountRepo: s.GetStores().AccountRepo,
		LedgerRepo:  s.GetStores().LedgerRepo,
		PaymentRepo: s.GetStores().PaymentRepo,
		ClientRepo:  s.GetStores().ClientRepo,
		ReportRepo:  s.GetStores().ReportRepo,
		Cache:       s.GetCache(),
	})
	s.seedAccount(types.PlanFree)
}

func (s *ClientServiceTestSuite) seedAccount(plan types.PlanType) {
	now := time.Now().UTC()
	limits := types.GetPlanLimits(plan)
	s.GetStores().AccountRepo.Clear()
	s.NoError(s.GetStores().AccountRepo.Create(s.GetContext(), &account.Account{
		ID:                testutil.DefaultTenantID,
		Name:              "Test Agency",
		Plan:              plan,
		CreditLimit:       limits.MonthlyCredits,
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

func (s *ClientServiceTestSuite) createRequest(name string) *dto.CreateClientRequest {
	return &dto.CreateClientRequest{
		Name:      name,
		Segment:   "ecommerce",
		Objective: "conversions",
		Channels:  []string{"meta_ads", "google_ads"},
	}
}

func (s *ClientServiceTestSuite) TestCreateClient() {
	resp, err := s.clientService.CreateClient(s.GetContext(), s.createRequest("Acme Store"))
	s.NoError(err)
	s.NotEmpty(resp.ID)
	s.Equal("Acme Store", resp.Name)
	s.Equal(testutil.DefaultTenantID, resp.TenantID)

	got, err := s.clientService.GetClient(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(resp.ID, got.ID)
}

func (s *ClientServiceTestSuite) TestCreateClientEnforcesPlanLimit() {
	// Free allows three clients
	for i := 0; i < 3; i++ {
		_, err := s.clientService.CreateClient(s.GetContext(), s.createRequest(fmt.Sprintf("Client %d", i)))
		s.NoError(err)
	}

	_, err := s.clientService.CreateClient(s.GetContext(), s.createRequest("One Too Many"))
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *ClientServiceTestSuite) TestDeleteFreesPlanSlot() {
	var lastID string
	for i := 0; i < 3; i++ {
		resp, err := s.clientService.CreateClient(s.GetContext(), s.createRequest(fmt.Sprintf("Client %d", i)))
		s.NoError(err)
		lastID = resp.ID
	}

	s.NoError(s.clientService.DeleteClient(s.GetContext(), lastID))

	_, err := s.clientService.CreateClient(s.GetContext(), s.createRequest("Replacement"))
	s.NoError(err)
}

func (s *ClientServiceTestSuite) TestAgencyPlanIsUnlimited() {
	s.seedAccount(types.PlanAgency)

	for i := 0; i < 60; i++ {
		_, err := s.clientService.CreateClient(s.GetContext(), s.createRequest(fmt.Sprintf("Client %d", i)))
		s.NoError(err)
	}

	list, err := s.clientService.ListClients(s.GetContext())
	s.NoError(err)
	s.Equal(60, list.Total)
}

func (s *ClientServiceTestSuite) TestCreateClientRequiresName() {
	_, err := s.clientService.CreateClient(s.GetContext(), s.createRequest(""))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ClientServiceTestSuite) TestGetClientScopedToTenant() {
	resp, err := s.clientService.CreateClient(s.GetContext(), s.createRequest("Acme Store"))
	s.NoError(err)

	otherCtx := types.SetTenantID(s.GetContext(), "tenant_other")
	_, err = s.clientService.GetClient(otherCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ClientServiceTestSuite) TestDeletedClientIsGone() {
	resp, err := s.clientService.CreateClient(s.GetContext(), s.createRequest("Acme Store"))
	s.NoError(err)

	s.NoError(s.clientService.DeleteClient(s.GetContext(), resp.ID))

	_, err = s.clientService.GetClient(s.GetContext(), resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
