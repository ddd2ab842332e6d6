package dto

import (
	"github.com/reportik/reportik/internal/domain/payment"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

type UpgradePlanRequest struct {
	Plan types.PlanType `json:"plan" binding:"required"`
}

func (r *UpgradePlanRequest) Validate() error {
	if err := r.Plan.Validate(); err != nil {
		return err
	}
	if r.Plan == types.PlanFree {
		return ierr.NewError("cannot checkout the free plan").
			WithHint("Pick a paid plan to upgrade to").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type PurchaseCreditsRequest struct {
	Credits int64 `json:"credits" binding:"required"`
}

func (r *PurchaseCreditsRequest) Validate() error {
	_, err := types.FindCreditPackage(r.Credits)
	return err
}

// CheckoutResponse points the caller at the provider's hosted checkout
type CheckoutResponse struct {
	IntentID   string `json:"intent_id"`
	CheckoutID string `json:"checkout_id"`
	InitPoint  string `json:"init_point"`
}

type PaymentRecordResponse struct {
	*payment.Record
}

type ListPaymentRecordsResponse struct {
	Items []*PaymentRecordResponse `json:"items"`
	Total int                      `json:"total"`
}

// ProviderNotification is the inbound webhook body sent by the payment
// provider. Only the payment id is trusted from it; everything else is
// re-fetched from the provider API.
type ProviderNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}
