package postgres

import (
	"context"

	"github.com/reportik/reportik/internal/domain/report"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/postgres"
	"github.com/reportik/reportik/internal/types"
)

type reportRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewReportRepository creates a new instance of report repository
func NewReportRepository(db *postgres.DB, logger *logger.Logger) report.Repository {
	return &reportRepository{
		db:     db,
		logger: logger,
	}
}

func (r *reportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (
			id, client_id, period_start, period_end, summary, provider,
			cost_credits, metrics, public_token, revoked_at,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :client_id, :period_start, :period_end, :summary, :provider,
			:cost_credits, :metrics, :public_token, :revoked_at,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating report",
		"report_id", rep.ID,
		"tenant_id", rep.TenantID,
		"client_id", rep.ClientID,
	)

	_, err := r.db.NamedExecContext(ctx, query, rep)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to insert report").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id string) (*report.Report, error) {
	query := `
		SELECT * FROM reports
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query report").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("report not found").
			WithReportableDetails(map[string]interface{}{
				"report_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var rep report.Report
	if err := rows.StructScan(&rep); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to scan report").
			Mark(ierr.ErrDatabase)
	}
	return &rep, nil
}

func (r *reportRepository) List(ctx context.Context, tenantID string, limit int) ([]*report.Report, error) {
	query := `
		SELECT * FROM reports
		WHERE tenant_id = :tenant_id
		AND status = :status
		ORDER BY created_at DESC
		LIMIT :limit`

	params := map[string]interface{}{
		"tenant_id": tenantID,
		"status":    types.StatusPublished,
		"limit":     limit,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query reports").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		var rep report.Report
		if err := rows.StructScan(&rep); err != nil {
			return nil, ierr.WithError(err).
				WithMessage("failed to scan report").
				Mark(ierr.ErrDatabase)
		}
		reports = append(reports, &rep)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("error iterating report rows").
			Mark(ierr.ErrDatabase)
	}

	return reports, nil
}

// GetByPublicToken is the only report lookup that crosses tenants. It backs
// the unauthenticated share link.
func (r *reportRepository) GetByPublicToken(ctx context.Context, token string) (*report.Report, error) {
	query := `
		SELECT * FROM reports
		WHERE public_token = :public_token
		AND status = :status`

	params := map[string]interface{}{
		"public_token": token,
		"status":       types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query report by token").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("report not found").
			Mark(ierr.ErrNotFound)
	}

	var rep report.Report
	if err := rows.StructScan(&rep); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to scan report").
			Mark(ierr.ErrDatabase)
	}
	return &rep, nil
}

func (r *reportRepository) Update(ctx context.Context, rep *report.Report) error {
	query := `
		UPDATE reports
		SET
			public_token = :public_token,
			revoked_at = :revoked_at,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":           rep.ID,
		"public_token": rep.PublicToken,
		"revoked_at":   rep.RevokedAt,
		"updated_by":   types.GetUserID(ctx),
		"tenant_id":    types.GetTenantID(ctx),
		"status":       types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to update report").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rows == 0 {
		return ierr.NewError("report not found").
			WithReportableDetails(map[string]interface{}{
				"report_id": rep.ID,
			}).
			Mark(ierr.ErrNotFound)
	}

	return nil
}
