package payment

import (
	"context"
)

// Repository defines the interface for payment intent and record persistence
type Repository interface {
	// Intent operations
	CreateIntent(ctx context.Context, i *Intent) error
	GetIntent(ctx context.Context, id string) (*Intent, error)
	FindByExternalReference(ctx context.Context, externalReference string) (*Intent, error)
	AttachExternalReference(ctx context.Context, intentID, externalReference string) error

	// MarkApproved and MarkRejected flip a pending intent to the terminal
	// status and report whether this call performed the flip. An intent
	// already terminal returns false without error; losing the flip is the
	// caller's signal that another delivery settled the intent first.
	MarkApproved(ctx context.Context, intentID string) (bool, error)
	MarkRejected(ctx context.Context, intentID string) (bool, error)

	// Record operations
	UpsertRecordByProviderPaymentID(ctx context.Context, r *Record) error
	ListRecords(ctx context.Context, tenantID string, limit int) ([]*Record, error)
}
