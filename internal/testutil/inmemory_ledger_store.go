package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/reportik/reportik/internal/domain/ledger"
)

type InMemoryLedgerStore struct {
	mu      sync.Mutex
	entries []*ledger.Entry
}

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{}
}

func (r *InMemoryLedgerStore) Append(ctx context.Context, e *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *e
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *InMemoryLedgerStore) List(ctx context.Context, tenantID string, limit int) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*ledger.Entry
	for _, e := range r.entries {
		if e.TenantID == tenantID {
			copied := *e
			result = append(result, &copied)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *InMemoryLedgerStore) ListByOperationID(ctx context.Context, tenantID, operationID string) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*ledger.Entry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.OperationID != nil && *e.OperationID == operationID {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *InMemoryLedgerStore) SumSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, e := range r.entries {
		if e.TenantID == tenantID && !e.CreatedAt.Before(since) {
			total += e.Delta
		}
	}
	return total, nil
}

func (r *InMemoryLedgerStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
