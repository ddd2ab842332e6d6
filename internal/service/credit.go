package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/domain/account"
	"github.com/reportik/reportik/internal/domain/ledger"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// maxUsageRetries bounds the compare-and-swap retry loop. Conflicts are
// short-lived (another debit or a rollover won the row), so a handful of
// attempts is enough before surfacing the conflict.
const maxUsageRetries = 5

// lowCreditThreshold is the usage ratio at which the credits.low event fires
const lowCreditThreshold = 0.8

// CreditService owns the account credit state: balance reads, atomic
// consumption, rollovers and the effects applied by approved payments.
type CreditService interface {
	// GetBalance returns the current balance, applying a lazy monthly
	// rollover first when one is due
	GetBalance(ctx context.Context) (*dto.BalanceResponse, error)

	// TryConsume atomically debits amount credits. It fails with
	// ErrInsufficientCredits when the remaining balance does not cover the
	// amount and never lets concurrent debits overdraw the account.
	TryConsume(ctx context.Context, amount int64, reason types.LedgerReason, operationID, description string) (*account.Account, error)

	// ReleaseReservation credits amount back after a failed or oversized
	// reservation, floored so usage never goes negative
	ReleaseReservation(ctx context.Context, amount int64, operationID, description string) error

	// ApplyPlanUpgrade switches the account to the target plan with a fresh
	// credit period. Called by the reconciler inside the payment transaction.
	ApplyPlanUpgrade(ctx context.Context, targetPlan types.PlanType, operationID string) error

	// ApplyCreditTopUp raises the credit limit for the current period.
	// Called by the reconciler inside the payment transaction.
	ApplyCreditTopUp(ctx context.Context, credits int64, operationID string) error

	// GetLedger lists recent ledger entries for the tenant
	GetLedger(ctx context.Context, limit int) (*dto.ListLedgerResponse, error)
}

type creditService struct {
	ServiceParams
}

// NewCreditService creates a new credit service
func NewCreditService(params ServiceParams) CreditService {
	return &creditService{
		ServiceParams: params,
	}
}

func (s *creditService) GetBalance(ctx context.Context) (*dto.BalanceResponse, error) {
	acct, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.BalanceResponse{
		Plan:              acct.Plan,
		CreditLimit:       acct.CreditLimit,
		CreditUsed:        acct.CreditUsed,
		Remaining:         acct.Remaining(),
		PercentageUsed:    percentageUsed(acct.CreditUsed, acct.CreditLimit),
		IsLow:             s.isLow(acct.CreditUsed, acct.CreditLimit),
		CreditPeriodStart: acct.CreditPeriodStart,
		NextResetAt:       acct.NextResetAt(),
	}, nil
}

func (s *creditService) TryConsume(ctx context.Context, amount int64, reason types.LedgerReason, operationID, description string) (*account.Account, error) {
	if amount <= 0 {
		return nil, ierr.NewError("consume amount must be positive").
			WithReportableDetails(map[string]interface{}{
				"amount": amount,
			}).
			Mark(ierr.ErrValidation)
	}
	if err := reason.Validate(); err != nil {
		return nil, err
	}

	var updated *account.Account
	for attempt := 0; attempt < maxUsageRetries; attempt++ {
		acct, err := s.currentAccount(ctx)
		if err != nil {
			return nil, err
		}

		if acct.Remaining() < amount {
			return nil, ierr.NewError("insufficient credits").
				WithHint("Upgrade the plan or purchase additional credits").
				WithReportableDetails(map[string]interface{}{
					"requested": amount,
					"remaining": acct.Remaining(),
				}).
				Mark(ierr.ErrInsufficientCredits)
		}

		expected := account.UsageOf(acct)
		next := expected
		next.CreditUsed += amount

		wasLow := s.isLow(expected.CreditUsed, expected.CreditLimit)

		err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.AccountRepo.UpdateUsage(txCtx, acct.ID, expected, next); err != nil {
				return err
			}
			entry := ledger.NewEntry(txCtx, amount, reason, operationID)
			entry.Description = description
			return s.LedgerRepo.Append(txCtx, entry)
		})
		if err != nil {
			if ierr.IsVersionConflict(err) {
				continue
			}
			return nil, err
		}

		acct.CreditUsed = next.CreditUsed
		updated = acct

		if !wasLow && s.isLow(next.CreditUsed, next.CreditLimit) {
			s.publishCreditsLow(ctx, acct)
		}
		return updated, nil
	}

	return nil, ierr.NewError("credit consumption kept conflicting").
		WithHint("Please retry the operation").
		Mark(ierr.ErrVersionConflict)
}

func (s *creditService) ReleaseReservation(ctx context.Context, amount int64, operationID, description string) error {
	if amount <= 0 {
		return nil
	}

	for attempt := 0; attempt < maxUsageRetries; attempt++ {
		acct, err := s.currentAccount(ctx)
		if err != nil {
			return err
		}

		release := amount
		if release > acct.CreditUsed {
			release = acct.CreditUsed
		}
		if release == 0 {
			return nil
		}

		expected := account.UsageOf(acct)
		next := expected
		next.CreditUsed -= release

		err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.AccountRepo.UpdateUsage(txCtx, acct.ID, expected, next); err != nil {
				return err
			}
			entry := ledger.NewEntry(txCtx, -release, types.LedgerReasonManualAdjustment, operationID)
			entry.Description = description
			return s.LedgerRepo.Append(txCtx, entry)
		})
		if err != nil {
			if ierr.IsVersionConflict(err) {
				continue
			}
			return err
		}
		return nil
	}

	return ierr.NewError("reservation release kept conflicting").
		WithHint("Please retry the operation").
		Mark(ierr.ErrVersionConflict)
}

func (s *creditService) ApplyPlanUpgrade(ctx context.Context, targetPlan types.PlanType, operationID string) error {
	if err := targetPlan.Validate(); err != nil {
		return err
	}
	limits := types.GetPlanLimits(targetPlan)

	for attempt := 0; attempt < maxUsageRetries; attempt++ {
		acct, err := s.AccountRepo.Get(ctx, types.GetTenantID(ctx))
		if err != nil {
			return err
		}

		expected := account.UsageOf(acct)
		next := account.Usage{
			Plan:              targetPlan,
			CreditLimit:       limits.MonthlyCredits,
			CreditUsed:        0,
			CreditPeriodStart: time.Now().UTC(),
		}

		err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.AccountRepo.UpdateUsage(txCtx, acct.ID, expected, next); err != nil {
				return err
			}
			entry := ledger.NewEntry(txCtx, -expected.CreditUsed, types.LedgerReasonPlanUpgrade, operationID)
			entry.Description = "upgraded to " + targetPlan.String()
			return s.LedgerRepo.Append(txCtx, entry)
		})
		if err != nil {
			if ierr.IsVersionConflict(err) {
				continue
			}
			return err
		}
		return nil
	}

	return ierr.NewError("plan upgrade kept conflicting").
		Mark(ierr.ErrVersionConflict)
}

func (s *creditService) ApplyCreditTopUp(ctx context.Context, credits int64, operationID string) error {
	if credits <= 0 {
		return ierr.NewError("credit top up must be positive").
			WithReportableDetails(map[string]interface{}{
				"credits": credits,
			}).
			Mark(ierr.ErrValidation)
	}

	for attempt := 0; attempt < maxUsageRetries; attempt++ {
		acct, err := s.AccountRepo.Get(ctx, types.GetTenantID(ctx))
		if err != nil {
			return err
		}

		expected := account.UsageOf(acct)
		next := expected
		next.CreditLimit += credits

		err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.AccountRepo.UpdateUsage(txCtx, acct.ID, expected, next); err != nil {
				return err
			}
			// Purchased credits raise the limit without touching usage, so
			// the consumption delta is zero
			entry := ledger.NewEntry(txCtx, 0, types.LedgerReasonCreditsPurchase, operationID)
			entry.Description = "purchased credits"
			return s.LedgerRepo.Append(txCtx, entry)
		})
		if err != nil {
			if ierr.IsVersionConflict(err) {
				continue
			}
			return err
		}
		return nil
	}

	return ierr.NewError("credit top up kept conflicting").
		Mark(ierr.ErrVersionConflict)
}

func (s *creditService) GetLedger(ctx context.Context, limit int) (*dto.ListLedgerResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	entries, err := s.LedgerRepo.List(ctx, types.GetTenantID(ctx), limit)
	if err != nil {
		return nil, err
	}

	response := &dto.ListLedgerResponse{
		Items: make([]*dto.LedgerEntryResponse, len(entries)),
		Total: len(entries),
	}
	for i, e := range entries {
		response.Items[i] = &dto.LedgerEntryResponse{Entry: e}
	}
	return response, nil
}

// currentAccount loads the tenant's account and applies the lazy monthly
// rollover when the current period has elapsed. The rollover is a CAS on
// the credit columns, so under concurrency exactly one caller resets the
// period and writes the monthly_reset ledger entry; everyone else re-reads.
func (s *creditService) currentAccount(ctx context.Context) (*account.Account, error) {
	acct, err := s.AccountRepo.Get(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for attempt := 0; acct.IsRolloverDue(now) && attempt < maxUsageRetries; attempt++ {
		limits := types.GetPlanLimits(acct.Plan)
		expected := account.UsageOf(acct)
		next := account.Usage{
			Plan:              acct.Plan,
			CreditLimit:       limits.MonthlyCredits,
			CreditUsed:        0,
			CreditPeriodStart: now,
		}

		err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.AccountRepo.UpdateUsage(txCtx, acct.ID, expected, next); err != nil {
				return err
			}
			entry := ledger.NewEntry(txCtx, -expected.CreditUsed, types.LedgerReasonMonthlyReset, "")
			entry.Description = "monthly credit reset"
			return s.LedgerRepo.Append(txCtx, entry)
		})
		if err == nil {
			s.Logger.Infow("monthly credit rollover applied",
				"tenant_id", acct.ID,
				"previous_used", expected.CreditUsed,
				"credit_limit", next.CreditLimit,
			)
		} else if !ierr.IsVersionConflict(err) {
			return nil, err
		}

		// Re-read either way: on conflict another caller rolled over or
		// consumed concurrently
		acct, err = s.AccountRepo.Get(ctx, types.GetTenantID(ctx))
		if err != nil {
			return nil, err
		}
	}

	return acct, nil
}

// percentageUsed is a display value, clamped to [0, 100]
func percentageUsed(used, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	pct := float64(used) / float64(limit) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func (s *creditService) isLow(used, limit int64) bool {
	if limit <= 0 {
		return false
	}
	return float64(used)/float64(limit) >= lowCreditThreshold
}

func (s *creditService) publishCreditsLow(ctx context.Context, acct *account.Account) {
	if s.WebhookPublisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"tenant_id":    acct.ID,
		"plan":         acct.Plan,
		"credit_limit": acct.CreditLimit,
		"credit_used":  acct.CreditUsed,
		"remaining":    acct.Remaining(),
	})
	if err != nil {
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: types.WebhookEventCreditsLow,
		TenantID:  acct.ID,
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish credits.low event",
			"error", err,
			"tenant_id", acct.ID,
		)
	}
}
