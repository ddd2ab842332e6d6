package ledger

import (
	"context"
	"time"
)

// Repository defines the interface for ledger persistence. The ledger is
// append-only, there is no update or delete.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, tenantID string, limit int) ([]*Entry, error)
	ListByOperationID(ctx context.Context, tenantID, operationID string) ([]*Entry, error)

	// SumSince returns the signed sum of deltas created at or after the
	// given time for a tenant
	SumSince(ctx context.Context, tenantID string, since time.Time) (int64, error)
}
