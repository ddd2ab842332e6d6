package ledger

import (
	"context"

	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// Entry is one append-only credit ledger row. Deltas are signed with
// positive values meaning consumption. The signed sum of deltas since the
// last monthly_reset entry equals the account's credit_used.
type Entry struct {
	ID          string             `db:"id" json:"id"`
	Delta       int64              `db:"delta" json:"delta"`
	Reason      types.LedgerReason `db:"reason" json:"reason"`
	OperationID *string            `db:"operation_id" json:"operation_id,omitempty"`
	Description string             `db:"description" json:"description"`
	types.BaseModel
}

func (e *Entry) TableName() string {
	return "credit_ledger"
}

func (e *Entry) Validate() error {
	if err := e.Reason.Validate(); err != nil {
		return err
	}
	if e.TenantID == "" {
		return ierr.NewError("ledger entry requires a tenant").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// NewEntry builds a ledger entry for the given tenant
func NewEntry(ctx context.Context, delta int64, reason types.LedgerReason, operationID string) *Entry {
	entry := &Entry{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		Delta:     delta,
		Reason:    reason,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if operationID != "" {
		entry.OperationID = &operationID
	}
	return entry
}

