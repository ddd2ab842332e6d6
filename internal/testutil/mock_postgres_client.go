package testutil

import (
	"context"

	"github.com/reportik/reportik/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient satisfies postgres.IClient without a real database.
// The in-memory stores apply their writes immediately, so a transaction is
// just the function body.
type MockPostgresClient struct{}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient() postgres.IClient {
	return &MockPostgresClient{}
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
