package postgres

import (
	"context"

	"github.com/reportik/reportik/internal/domain/account"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/postgres"
	"github.com/reportik/reportik/internal/types"
)

type accountRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewAccountRepository creates a new instance of account repository
func NewAccountRepository(db *postgres.DB, logger *logger.Logger) account.Repository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO tenant_accounts (
			id, name, plan, credit_limit, credit_used, credit_period_start,
			metadata, tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :name, :plan, :credit_limit, :credit_used, :credit_period_start,
			:metadata, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating account",
		"account_id", a.ID,
		"plan", a.Plan,
	)

	_, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to insert account").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*account.Account, error) {
	query := `
		SELECT * FROM tenant_accounts
		WHERE id = :id
		AND status = :status`

	params := map[string]interface{}{
		"id":     id,
		"status": types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query account").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("account not found").
			WithHint("Unknown tenant account").
			WithReportableDetails(map[string]interface{}{
				"account_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var a account.Account
	if err := rows.StructScan(&a); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to scan account").
			Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

// UpdateUsage compares the stored credit columns against the expected
// snapshot and swaps in the next one. Zero rows affected with an existing
// account means another writer got there first.
func (r *accountRepository) UpdateUsage(ctx context.Context, id string, expected, next account.Usage) error {
	query := `
		UPDATE tenant_accounts
		SET
			plan = :next_plan,
			credit_limit = :next_credit_limit,
			credit_used = :next_credit_used,
			credit_period_start = :next_credit_period_start,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND status = :status
		AND plan = :expected_plan
		AND credit_limit = :expected_credit_limit
		AND credit_used = :expected_credit_used
		AND credit_period_start = :expected_credit_period_start`

	params := map[string]interface{}{
		"id":                           id,
		"status":                       types.StatusPublished,
		"updated_by":                   types.GetUserID(ctx),
		"next_plan":                    next.Plan,
		"next_credit_limit":            next.CreditLimit,
		"next_credit_used":             next.CreditUsed,
		"next_credit_period_start":     next.CreditPeriodStart,
		"expected_plan":                expected.Plan,
		"expected_credit_limit":        expected.CreditLimit,
		"expected_credit_used":         expected.CreditUsed,
		"expected_credit_period_start": expected.CreditPeriodStart,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to update account usage").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rows == 0 {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return ierr.NewError("account usage changed concurrently").
			WithReportableDetails(map[string]interface{}{
				"account_id": id,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	return nil
}

func (r *accountRepository) Update(ctx context.Context, a *account.Account) error {
	query := `
		UPDATE tenant_accounts
		SET
			name = :name,
			metadata = :metadata,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND status = :status`

	params := map[string]interface{}{
		"id":         a.ID,
		"name":       a.Name,
		"metadata":   a.Metadata,
		"updated_by": types.GetUserID(ctx),
		"status":     types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to update account").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rows == 0 {
		return ierr.NewError("account not found").
			WithReportableDetails(map[string]interface{}{
				"account_id": a.ID,
			}).
			Mark(ierr.ErrNotFound)
	}

	return nil
}
