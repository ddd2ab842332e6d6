package postgres

import (
	"context"

	"github.com/lib/pq"

	"github.com/reportik/reportik/internal/domain/payment"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/postgres"
	"github.com/reportik/reportik/internal/types"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) CreateIntent(ctx context.Context, i *payment.Intent) error {
	query := `
		INSERT INTO payment_intents (
			id, kind, target_plan, credits_requested, provider_ref,
			external_reference, intent_status, amount, currency, idempotency_key,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :kind, :target_plan, :credits_requested, :provider_ref,
			:external_reference, :intent_status, :amount, :currency, :idempotency_key,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating payment intent",
		"intent_id", i.ID,
		"tenant_id", i.TenantID,
		"kind", i.Kind,
	)

	_, err := r.db.NamedExecContext(ctx, query, i)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to insert payment intent").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	query := `
		SELECT * FROM payment_intents
		WHERE id = :id
		AND status = :status`

	params := map[string]interface{}{
		"id":     id,
		"status": types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query payment intent").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment intent not found").
			WithReportableDetails(map[string]interface{}{
				"intent_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var i payment.Intent
	if err := rows.StructScan(&i); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to scan payment intent").
			Mark(ierr.ErrDatabase)
	}
	return &i, nil
}

func (r *paymentRepository) FindByExternalReference(ctx context.Context, externalReference string) (*payment.Intent, error) {
	query := `
		SELECT * FROM payment_intents
		WHERE external_reference = :external_reference
		AND status = :status`

	params := map[string]interface{}{
		"external_reference": externalReference,
		"status":             types.StatusPublished,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to query payment intent by external reference").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment intent not found").
			WithReportableDetails(map[string]interface{}{
				"external_reference": externalReference,
			}).
			Mark(ierr.ErrNotFound)
	}

	var i payment.Intent
	if err := rows.StructScan(&i); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to scan payment intent").
			Mark(ierr.ErrDatabase)
	}
	return &i, nil
}

func (r *paymentRepository) AttachExternalReference(ctx context.Context, intentID, externalReference string) error {
	query := `
		UPDATE payment_intents
		SET
			external_reference = :external_reference,
			updated_at = NOW()
		WHERE id = :id
		AND (external_reference IS NULL OR external_reference = :external_reference)
		AND status = :status`

	params := map[string]interface{}{
		"id":                 intentID,
		"external_reference": externalReference,
		"status":             types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		var pqErr *pq.Error
		if ierr.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ierr.WithError(err).
				WithMessage("external reference already attached to another intent").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithMessage("failed to attach external reference").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rows == 0 {
		return ierr.NewError("intent not found or already bound to a different payment").
			WithReportableDetails(map[string]interface{}{
				"intent_id":          intentID,
				"external_reference": externalReference,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	return nil
}

// markTerminal flips a pending intent to the given terminal status and
// reports whether this statement performed the flip. The guarded UPDATE is
// the serialization point for duplicate deliveries: exactly one caller sees
// rows affected, everyone else gets false and must not re-apply effects.
func (r *paymentRepository) markTerminal(ctx context.Context, intentID string, target types.PaymentIntentStatus) (bool, error) {
	query := `
		UPDATE payment_intents
		SET
			intent_status = :target,
			updated_at = NOW()
		WHERE id = :id
		AND intent_status = :pending
		AND status = :status`

	params := map[string]interface{}{
		"id":      intentID,
		"target":  target,
		"pending": types.PaymentIntentStatusPending,
		"status":  types.StatusPublished,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return false, ierr.WithError(err).
			WithMessage("failed to update intent status").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).
			WithMessage("failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rows == 0 {
		// Already terminal is fine, missing is not
		if _, getErr := r.GetIntent(ctx, intentID); getErr != nil {
			return false, getErr
		}
		r.logger.Debugw("intent already terminal, skipping status flip",
			"intent_id", intentID,
			"target", target,
		)
		return false, nil
	}

	return true, nil
}

func (r *paymentRepository) MarkApproved(ctx context.Context, intentID string) (bool, error) {
	return r.markTerminal(ctx, intentID, types.PaymentIntentStatusApproved)
}

func (r *paymentRepository) MarkRejected(ctx context.Context, intentID string) (bool, error) {
	return r.markTerminal(ctx, intentID, types.PaymentIntentStatusRejected)
}

func (r *paymentRepository) UpsertRecordByProviderPaymentID(ctx context.Context, rec *payment.Record) error {
	query := `
		INSERT INTO payment_records (
			id, intent_id, provider_payment_id, provider_status, status_detail,
			amount, currency, metadata,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :intent_id, :provider_payment_id, :provider_status, :status_detail,
			:amount, :currency, :metadata,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)
		ON CONFLICT (provider_payment_id) DO UPDATE SET
			provider_status = EXCLUDED.provider_status,
			status_detail = EXCLUDED.status_detail,
			metadata = EXCLUDED.metadata,
			intent_id = COALESCE(payment_records.intent_id, EXCLUDED.intent_id),
			updated_at = NOW()`

	r.logger.Debugw("upserting payment record",
		"provider_payment_id", rec.ProviderPaymentID,
		"provider_status", rec.ProviderStatus,
	)

	_, err := r.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to upsert payment record").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) ListRecords(ctx context.Context, tenantID string, limit int) ([]*payment.Record, error) {
	query := `
		SELECT * FROM payment_records
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
			WithMessage("failed to query payment records").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var records []*payment.Record
	for rows.Next() {
		var rec payment.Record
		if err := rows.StructScan(&rec); err != nil {
			return nil, ierr.WithError(err).
				WithMessage("failed to scan payment record").
				Mark(ierr.ErrDatabase)
		}
		records = append(records, &rec)
	}

	if err = rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("error iterating payment record rows").
			Mark(ierr.ErrDatabase)
	}

	return records, nil
}
