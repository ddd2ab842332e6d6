package account

import (
	"context"
)

// Repository defines the interface for account persistence operations
type Repository interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)

	// UpdateUsage applies a compare-and-swap on the credit columns. It fails
	// with ErrVersionConflict when the stored row no longer matches expected.
	UpdateUsage(ctx context.Context, id string, expected, next Usage) error

	// Update persists mutable non-credit fields (name, metadata)
	Update(ctx context.Context, a *Account) error
}
