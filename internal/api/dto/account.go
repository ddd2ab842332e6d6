package dto

import (
	"time"

	"github.com/reportik/reportik/internal/domain/account"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

type SignUpRequest struct {
	Name string `json:"name" binding:"required"`
}

func (r *SignUpRequest) Validate() error {
	if r.Name == "" {
		return ierr.NewError("account name is required").
			WithHint("Provide a name for the account").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type AccountResponse struct {
	*account.Account
}

// BalanceResponse is the real-time credit balance of an account
type BalanceResponse struct {
	Plan              types.PlanType `json:"plan"`
	CreditLimit       int64          `json:"credit_limit"`
	CreditUsed        int64          `json:"credit_used"`
	Remaining         int64          `json:"remaining"`
	PercentageUsed    float64        `json:"percentage_used"`
	IsLow             bool           `json:"is_low"`
	CreditPeriodStart time.Time      `json:"credit_period_start"`
	NextResetAt       time.Time      `json:"next_reset_at"`
}
