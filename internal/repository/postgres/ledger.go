package postgres

import (
	"context"
	"time"

	"github.com/reportik/reportik/internal/domain/ledger"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/postgres"
	"github.com/reportik/reportik/internal/types"
)

type ledgerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewLedgerRepository creates a new instance of ledger repository
func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ledgerRepository) Append(ctx context.Context, e *ledger.Entry) error {
	query := `
		INSERT INTO credit_ledger (
			id, delta, reason, operation_id, description,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :delta, :reason, :operation_id, :description,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("appending ledger entry",
		"entry_id", e.ID,
		"tenant_id", e.TenantID,
		"delta", e.Delta,
		"reason", e.Reason,
	)

	_, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to append ledger entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) List(ctx context.Context, tenantID string, limit int) ([]*ledger.Entry, error) {
	query := `
		SELECT * FROM credit_ledger
		WHERE tenant_id = :tenant_id
		AND status = :status
		ORDER BY created_at DESC, id DESC
		LIMIT :limit`

	params := map[string]interface{}{
		"tenant_id": tenantID,
		"status":    types.StatusPublished,
		"limit":     limit,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query ledger").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.StructScan(&e); err != nil {
			return nil, ierr.WithError(err).
				WithMessage("failed to scan ledger entry").
				Mark(ierr.ErrDatabase)
		}
		entries = append(entries, &e)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("error iterating ledger rows").
			Mark(ierr.ErrDatabase)
	}

	return entries, nil
}

func (r *ledgerRepository) ListByOperationID(ctx context.Context, tenantID, operationID string) ([]*ledger.Entry, error) {
	query := `
		SELECT * FROM credit_ledger
		WHERE tenant_id = :tenant_id
		AND operation_id = :operation_id
		AND status = :status
		ORDER BY created_at ASC, id ASC`

	params := map[string]interface{}{
		"tenant_id":    tenantID,
		"operation_id": operationID,
		"status":       types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query ledger by operation").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.StructScan(&e); err != nil {
			return nil, ierr.WithError(err).
				WithMessage("failed to scan ledger entry").
				Mark(ierr.ErrDatabase)
		}
		entries = append(entries, &e)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("error iterating ledger rows").
			Mark(ierr.ErrDatabase)
	}

	return entries, nil
}

func (r *ledgerRepository) SumSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(delta), 0) AS total FROM credit_ledger
		WHERE tenant_id = :tenant_id
		AND created_at >= :since
		AND status = :status`

	params := map[string]interface{}{
		"tenant_id": tenantID,
		"since":     since,
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithMessage("failed to sum ledger deltas").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var total int64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, ierr.WithError(err).
				WithMessage("failed to scan ledger sum").
				Mark(ierr.ErrDatabase)
		}
	}

	return total, nil
}
