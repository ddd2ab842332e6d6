package service

import (
	"context"
	"time"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/cache"
	"github.com/reportik/reportik/internal/domain/account"
	"github.com/reportik/reportik/internal/types"
)

// AccountService manages tenant account lifecycle
type AccountService interface {
	// SignUp creates a new tenant account on the free plan
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AccountResponse, error)

	// GetAccount returns the caller's account
	GetAccount(ctx context.Context) (*dto.AccountResponse, error)
}

type accountService struct {
	ServiceParams
}

// NewAccountService creates a new account service
func NewAccountService(params ServiceParams) AccountService {
	return &accountService{
		ServiceParams: params,
	}
}

func (s *accountService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AccountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acct := account.NewAccount(req.Name, time.Now().UTC())
	if err := acct.Validate(); err != nil {
		return nil, err
	}

	if err := s.AccountRepo.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.Logger.Infow("account created",
		"tenant_id", acct.ID,
		"plan", acct.Plan,
	)
	return &dto.AccountResponse{Account: acct}, nil
}

func (s *accountService) GetAccount(ctx context.Context) (*dto.AccountResponse, error) {
	tenantID := types.GetTenantID(ctx)

	cacheKey := cache.GenerateKey(cache.PrefixAccount, tenantID)
	if cached, found := s.Cache.Get(ctx, cacheKey); found {
		if resp, ok := cached.(*dto.AccountResponse); ok {
			return resp, nil
		}
	}

	acct, err := s.AccountRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	resp := &dto.AccountResponse{Account: acct}
	s.Cache.Set(ctx, cacheKey, resp, 30*time.Second)
	return resp, nil
}
