package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/reportik/reportik/internal/api/dto"
	domainClient "github.com/reportik/reportik/internal/domain/client"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// ClientService manages the marketing clients of a tenant. Creation is
// gated by the plan's client allowance.
type ClientService interface {
	CreateClient(ctx context.Context, req *dto.CreateClientRequest) (*dto.ClientResponse, error)
	GetClient(ctx context.Context, id string) (*dto.ClientResponse, error)
	ListClients(ctx context.Context) (*dto.ListClientsResponse, error)
	DeleteClient(ctx context.Context, id string) error
}

type clientService struct {
	ServiceParams
}

// NewClientService creates a new client service
func NewClientService(params ServiceParams) ClientService {
	return &clientService{
		ServiceParams: params,
	}
}

func (s *clientService) CreateClient(ctx context.Context, req *dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	acct, err := s.AccountRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	limits := types.GetPlanLimits(acct.Plan)
	if limits.MaxClients >= 0 {
		count, err := s.ClientRepo.Count(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if count >= limits.MaxClients {
			return nil, ierr.NewError("client limit reached for plan").
				WithHint("Upgrade the plan to manage more clients").
				WithReportableDetails(map[string]interface{}{
					"plan":        acct.Plan,
					"max_clients": limits.MaxClients,
				}).
				Mark(ierr.ErrPermissionDenied)
		}
	}

	c := &domainClient.Client{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Name:      req.Name,
		Segment:   req.Segment,
		Objective: req.Objective,
		Channels:  req.Channels,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.ClientRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("client created",
		"client_id", c.ID,
		"tenant_id", tenantID,
	)
	return &dto.ClientResponse{Client: c}, nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (*dto.ClientResponse, error) {
	c, err := s.ClientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ClientResponse{Client: c}, nil
}

func (s *clientService) ListClients(ctx context.Context) (*dto.ListClientsResponse, error) {
	clients, err := s.ClientRepo.List(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	return &dto.ListClientsResponse{
		Items: lo.Map(clients, func(c *domainClient.Client, _ int) *dto.ClientResponse {
			return &dto.ClientResponse{Client: c}
		}),
		Total: len(clients),
	}, nil
}

func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	return s.ClientRepo.Delete(ctx, id)
}
