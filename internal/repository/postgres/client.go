package postgres

import (
	"context"

	domainClient "github.com/reportik/reportik/internal/domain/client"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/postgres"
	"github.com/reportik/reportik/internal/types"
)

type clientRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewClientRepository creates a new instance of client repository
func NewClientRepository(db *postgres.DB, logger *logger.Logger) domainClient.Repository {
	return &clientRepository{
		db:     db,
		logger: logger,
	}
}

func (r *clientRepository) Create(ctx context.Context, c *domainClient.Client) error {
	query := `
		INSERT INTO clients (
			id, name, segment, objective, channels,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :name, :segment, :objective, :channels,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating client",
		"client_id", c.ID,
		"tenant_id", c.TenantID,
	)

	_, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to insert client").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *clientRepository) Get(ctx context.Context, id string) (*domainClient.Client, error) {
	query := `
		SELECT * FROM clients
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
			WithMessage("failed to query client").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("client not found").
			WithReportableDetails(map[string]interface{}{
				"client_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var c domainClient.Client
	if err := rows.StructScan(&c); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to scan client").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *clientRepository) List(ctx context.Context, tenantID string) ([]*domainClient.Client, error) {
	query := `
		SELECT * FROM clients
		WHERE tenant_id = :tenant_id
		AND status = :status
		ORDER BY created_at DESC`

	params := map[string]interface{}{
		"tenant_id": tenantID,
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query clients").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var clients []*domainClient.Client
	for rows.Next() {
		var c domainClient.Client
		if err := rows.StructScan(&c); err != nil {
			return nil, ierr.WithError(err).
				WithMessage("failed to scan client").
				Mark(ierr.ErrDatabase)
		}
		clients = append(clients, &c)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("error iterating client rows").
			Mark(ierr.ErrDatabase)
	}

	return clients, nil
}

func (r *clientRepository) Count(ctx context.Context, tenantID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM clients
		WHERE tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"tenant_id": tenantID,
		"status":    types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithMessage("failed to count clients").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithMessage("failed to scan client count").
				Mark(ierr.ErrDatabase)
		}
	}

	return count, nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE clients
		SET
			status = :deleted,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id
		AND tenant_id = :tenant_id
		AND status = :status`

	params := map[string]interface{}{
		"id":         id,
		"deleted":    types.StatusDeleted,
		"updated_by": types.GetUserID(ctx),
		"tenant_id":  types.GetTenantID(ctx),
		"status":     types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to delete client").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rows == 0 {
		return ierr.NewError("client not found").
			WithReportableDetails(map[string]interface{}{
				"client_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	return nil
}
