package account

import (
	"time"

	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// Account represents a tenant account with its credit state. The account id
// doubles as the tenant id everywhere else in the system.
type Account struct {
	ID                string         `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Plan              types.PlanType `db:"plan" json:"plan"`
	CreditLimit       int64          `db:"credit_limit" json:"credit_limit"`
	CreditUsed        int64          `db:"credit_used" json:"credit_used"`
	CreditPeriodStart time.Time      `db:"credit_period_start" json:"credit_period_start"`
	Metadata          types.Metadata `db:"metadata" json:"metadata"`
	types.BaseModel
}

func (a *Account) TableName() string {
	return "tenant_accounts"
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return ierr.NewError("account name is required").
			WithHint("Account name must not be empty").
			Mark(ierr.ErrValidation)
	}
	if err := a.Plan.Validate(); err != nil {
		return err
	}
	if a.CreditLimit < 0 || a.CreditUsed < 0 {
		return ierr.NewError("credit counters must be non negative").
			WithReportableDetails(map[string]interface{}{
				"credit_limit": a.CreditLimit,
				"credit_used":  a.CreditUsed,
			}).
			Mark(ierr.ErrValidation)
	}
	if a.CreditUsed > a.CreditLimit {
		return ierr.NewError("credit usage exceeds limit").
			WithReportableDetails(map[string]interface{}{
				"credit_limit": a.CreditLimit,
				"credit_used":  a.CreditUsed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Remaining returns the credits left in the current period, floored at zero
func (a *Account) Remaining() int64 {
	remaining := a.CreditLimit - a.CreditUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NextResetAt returns the start of the next credit period
func (a *Account) NextResetAt() time.Time {
	return a.CreditPeriodStart.AddDate(0, 1, 0)
}

// IsRolloverDue reports whether the monthly reset should run
func (a *Account) IsRolloverDue(now time.Time) bool {
	return !now.Before(a.NextResetAt())
}

// Usage is the compare-and-swap snapshot of an account's credit state.
// UpdateUsage only succeeds when the stored row still matches the expected
// snapshot, which makes concurrent debits and rollovers race-safe.
type Usage struct {
	Plan              types.PlanType
	CreditLimit       int64
	CreditUsed        int64
	CreditPeriodStart time.Time
}

// UsageOf extracts the CAS snapshot from an account
func UsageOf(a *Account) Usage {
	return Usage{
		Plan:              a.Plan,
		CreditLimit:       a.CreditLimit,
		CreditUsed:        a.CreditUsed,
		CreditPeriodStart: a.CreditPeriodStart,
	}
}

// NewAccount creates an account on the Free plan with a fresh credit period
func NewAccount(name string, now time.Time) *Account {
	limits := types.GetPlanLimits(types.PlanFree)
	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TENANT)
	return &Account{
		ID:                id,
		Name:              name,
		Plan:              types.PlanFree,
		CreditLimit:       limits.MonthlyCredits,
		CreditUsed:        0,
		CreditPeriodStart: now,
		Metadata:          types.Metadata{},
		BaseModel: types.BaseModel{
			TenantID:  id,
			Status:    types.StatusPublished,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
