package client

import (
	"context"
)

// Repository defines the interface for client persistence operations
type Repository interface {
	Create(ctx context.Context, c *Client) error
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, tenantID string) ([]*Client, error)
	Count(ctx context.Context, tenantID string) (int, error)

	// Delete soft deletes by flipping the status flag
	Delete(ctx context.Context, id string) error
}
