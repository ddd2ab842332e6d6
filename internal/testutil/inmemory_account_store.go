package testutil

import (
	"context"
	"sync"

	"github.com/reportik/reportik/internal/domain/account"
	ierr "github.com/reportik/reportik/internal/errors"
)

// InMemoryAccountStore mimics the compare-and-swap semantics of the real
// account repository so concurrency tests exercise the same conflict paths.
type InMemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
}

func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		accounts: make(map[string]*account.Account),
	}
}

func (r *InMemoryAccountStore) Create(ctx context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[a.ID]; exists {
		return ierr.NewError("account already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *a
	r.accounts[a.ID] = &copied
	return nil
}

func (r *InMemoryAccountStore) Get(ctx context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.accounts[id]
	if !exists {
		return nil, ierr.NewError("account not found").
			Mark(ierr.ErrNotFound)
	}

	copied := *a
	return &copied, nil
}

func (r *InMemoryAccountStore) UpdateUsage(ctx context.Context, id string, expected, next account.Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.accounts[id]
	if !exists {
		return ierr.NewError("account not found").
			Mark(ierr.ErrNotFound)
	}

	stored := account.UsageOf(a)
	if stored.Plan != expected.Plan ||
		stored.CreditLimit != expected.CreditLimit ||
		stored.CreditUsed != expected.CreditUsed ||
		!stored.CreditPeriodStart.Equal(expected.CreditPeriodStart) {
		return ierr.NewError("account usage changed concurrently").
			Mark(ierr.ErrVersionConflict)
	}

	a.Plan = next.Plan
	a.CreditLimit = next.CreditLimit
	a.CreditUsed = next.CreditUsed
	a.CreditPeriodStart = next.CreditPeriodStart
	return nil
}

func (r *InMemoryAccountStore) Update(ctx context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.accounts[a.ID]
	if !exists {
		return ierr.NewError("account not found").
			Mark(ierr.ErrNotFound)
	}

	stored.Name = a.Name
	stored.Metadata = a.Metadata
	return nil
}

func (r *InMemoryAccountStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = make(map[string]*account.Account)
}
