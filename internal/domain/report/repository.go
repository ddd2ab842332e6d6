package report

import (
	"context"
)

// Repository defines the interface for report persistence operations
type Repository interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	List(ctx context.Context, tenantID string, limit int) ([]*Report, error)

	// GetByPublicToken looks a report up across tenants by its share token
	GetByPublicToken(ctx context.Context, token string) (*Report, error)

	// Update persists the public link fields
	Update(ctx context.Context, r *Report) error
}
