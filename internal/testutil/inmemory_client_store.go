package testutil

import (
	"context"
	"sync"

	domainClient "github.com/reportik/reportik/internal/domain/client"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

type InMemoryClientStore struct {
	mu      sync.Mutex
	clients map[string]*domainClient.Client
}

func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{
		clients: make(map[string]*domainClient.Client),
	}
}

func (r *InMemoryClientStore) Create(ctx context.Context, c *domainClient.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; exists {
		return ierr.NewError("client already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *c
	r.clients[c.ID] = &copied
	return nil
}

func (r *InMemoryClientStore) Get(ctx context.Context, id string) (*domainClient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.clients[id]
	if !exists || c.TenantID != types.GetTenantID(ctx) || c.Status != types.StatusPublished {
		return nil, ierr.NewError("client not found").
			Mark(ierr.ErrNotFound)
	}

	copied := *c
	return &copied, nil
}

func (r *InMemoryClientStore) List(ctx context.Context, tenantID string) ([]*domainClient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domainClient.Client
	for _, c := range r.clients {
		if c.TenantID == tenantID && c.Status == types.StatusPublished {
			copied := *c
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *InMemoryClientStore) Count(ctx context.Context, tenantID string) (int, error) {
	clients, err := r.List(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return len(clients), nil
}

func (r *InMemoryClientStore) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.clients[id]
	if !exists || c.TenantID != types.GetTenantID(ctx) || c.Status != types.StatusPublished {
		return ierr.NewError("client not found").
			Mark(ierr.ErrNotFound)
	}

	c.Status = types.StatusDeleted
	return nil
}

func (r *InMemoryClientStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = make(map[string]*domainClient.Client)
}
