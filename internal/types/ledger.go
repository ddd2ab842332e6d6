package types

import (
	ierr "github.com/reportik/reportik/internal/errors"
)

// LedgerReason classifies a credit ledger entry. Deltas are signed with
// positive values meaning consumption.
type LedgerReason string

const (
	LedgerReasonReportGeneration LedgerReason = "report_generation"
	LedgerReasonMonthlyReset     LedgerReason = "monthly_reset"
	LedgerReasonPlanUpgrade      LedgerReason = "plan_upgrade"
	LedgerReasonCreditsPurchase  LedgerReason = "credits_purchase"
	LedgerReasonManualAdjustment LedgerReason = "manual_adjustment"
)

func (r LedgerReason) String() string {
	return string(r)
}

func (r LedgerReason) Validate() error {
	switch r {
	case LedgerReasonReportGeneration,
		LedgerReasonMonthlyReset,
		LedgerReasonPlanUpgrade,
		LedgerReasonCreditsPurchase,
		LedgerReasonManualAdjustment:
		return nil
	}
	return ierr.NewError("invalid ledger reason").
		WithHint("Unknown ledger reason").
		WithReportableDetails(map[string]interface{}{
			"reason": string(r),
		}).
		Mark(ierr.ErrValidation)
}
