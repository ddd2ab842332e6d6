package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/reportik/reportik/internal/api/dto"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/testutil"
	"github.com/reportik/reportik/internal/types"
)

type AccountServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	accountService AccountService
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.accountService = NewAccountService(ServiceParams{
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
}

func (s *AccountServiceTestSuite) TestSignUp() {
	resp, err := s.accountService.SignUp(s.GetContext(), &dto.SignUpRequest{Name: "Test Agency"})
	s.NoError(err)
	s.NotEmpty(resp.ID)
	s.Equal("Test Agency", resp.Name)

	// New accounts start on the free tier with a full allowance
	s.Equal(types.PlanFree, resp.Plan)
	s.Equal(int64(1000), resp.CreditLimit)
	s.Equal(int64(0), resp.CreditUsed)
}

func (s *AccountServiceTestSuite) TestSignUpRequiresName() {
	_, err := s.accountService.SignUp(s.GetContext(), &dto.SignUpRequest{})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *AccountServiceTestSuite) TestGetAccount() {
	created, err := s.accountService.SignUp(s.GetContext(), &dto.SignUpRequest{Name: "Test Agency"})
	s.NoError(err)

	ctx := types.SetTenantID(s.GetContext(), created.ID)
	resp, err := s.accountService.GetAccount(ctx)
	s.NoError(err)
	s.Equal(created.ID, resp.ID)

	// Second read is served from cache
	again, err := s.accountService.GetAccount(ctx)
	s.NoError(err)
	s.Equal(resp.ID, again.ID)
}

func (s *AccountServiceTestSuite) TestGetAccountUnknownTenant() {
	_, err := s.accountService.GetAccount(s.GetContext())
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
