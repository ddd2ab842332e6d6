package testutil

import (
	"context"
	"sync"

	"github.com/reportik/reportik/internal/domain/report"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

type InMemoryReportStore struct {
	mu      sync.Mutex
	reports map[string]*report.Report
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{
		reports: make(map[string]*report.Report),
	}
}

func (r *InMemoryReportStore) Create(ctx context.Context, rep *report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reports[rep.ID]; exists {
		return ierr.NewError("report already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *rep
	r.reports[rep.ID] = &copied
	return nil
}

func (r *InMemoryReportStore) Get(ctx context.Context, id string) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, exists := r.reports[id]
	if !exists || rep.TenantID != types.GetTenantID(ctx) || rep.Status != types.StatusPublished {
		return nil, ierr.NewError("report not found").
			Mark(ierr.ErrNotFound)
	}

	copied := *rep
	return &copied, nil
}

func (r *InMemoryReportStore) List(ctx context.Context, tenantID string, limit int) ([]*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*report.Report
	for _, rep := range r.reports {
		if rep.TenantID == tenantID && rep.Status == types.StatusPublished {
			copied := *rep
			result = append(result, &copied)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *InMemoryReportStore) GetByPublicToken(ctx context.Context, token string) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rep := range r.reports {
		if rep.PublicToken != nil && *rep.PublicToken == token && rep.Status == types.StatusPublished {
			copied := *rep
			return &copied, nil
		}
	}
	return nil, ierr.NewError("report not found").
		Mark(ierr.ErrNotFound)
}

func (r *InMemoryReportStore) Update(ctx context.Context, rep *report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.reports[rep.ID]
	if !exists || stored.TenantID != types.GetTenantID(ctx) || stored.Status != types.StatusPublished {
		return ierr.NewError("report not found").
			Mark(ierr.ErrNotFound)
	}

	stored.PublicToken = rep.PublicToken
	stored.RevokedAt = rep.RevokedAt
	return nil
}

func (r *InMemoryReportStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = make(map[string]*report.Report)
}
