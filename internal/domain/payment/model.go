package payment

import (
	"github.com/shopspring/decimal"

	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// Intent represents a checkout the tenant opened with the payment provider.
// ExternalReference holds the provider payment id once known and carries a
// unique index so at most one intent can ever be approved per payment.
type Intent struct {
	ID                string                    `db:"id" json:"id"`
	Kind              types.PaymentIntentKind   `db:"kind" json:"kind"`
	TargetPlan        *types.PlanType           `db:"target_plan" json:"target_plan,omitempty"`
	CreditsRequested  *int64                    `db:"credits_requested" json:"credits_requested,omitempty"`
	ProviderRef       string                    `db:"provider_ref" json:"provider_ref"`
	ExternalReference *string                   `db:"external_reference" json:"external_reference,omitempty"`
	IntentStatus      types.PaymentIntentStatus `db:"intent_status" json:"intent_status"`
	Amount            decimal.Decimal           `db:"amount" json:"amount"`
	Currency          string                    `db:"currency" json:"currency"`
	IdempotencyKey    string                    `db:"idempotency_key" json:"idempotency_key"`
	types.BaseModel
}

func (i *Intent) TableName() string {
	return "payment_intents"
}

func (i *Intent) Validate() error {
	if err := i.Kind.Validate(); err != nil {
		return err
	}
	switch i.Kind {
	case types.PaymentIntentKindSubscription:
		if i.TargetPlan == nil {
			return ierr.NewError("subscription intent requires a target plan").
				Mark(ierr.ErrValidation)
		}
		if err := i.TargetPlan.Validate(); err != nil {
			return err
		}
	case types.PaymentIntentKindCreditsPurchase:
		if i.CreditsRequested == nil || *i.CreditsRequested <= 0 {
			return ierr.NewError("credits purchase intent requires a positive credit amount").
				Mark(ierr.ErrValidation)
		}
	}
	if i.Amount.IsNegative() {
		return ierr.NewError("intent amount must not be negative").
			WithReportableDetails(map[string]interface{}{
				"amount": i.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Record mirrors a provider payment notification. Records are upserted on
// every reconciled notification whether or not an intent matched, so the
// payment history is complete even for payments the system cannot place.
type Record struct {
	ID                string          `db:"id" json:"id"`
	IntentID          *string         `db:"intent_id" json:"intent_id,omitempty"`
	ProviderPaymentID string          `db:"provider_payment_id" json:"provider_payment_id"`
	ProviderStatus    string          `db:"provider_status" json:"provider_status"`
	StatusDetail      string          `db:"status_detail" json:"status_detail"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	Currency          string          `db:"currency" json:"currency"`
	Metadata          types.Metadata  `db:"metadata" json:"metadata"`
	types.BaseModel
}

func (r *Record) TableName() string {
	return "payment_records"
}

func (r *Record) Validate() error {
	if r.ProviderPaymentID == "" {
		return ierr.NewError("payment record requires a provider payment id").
			Mark(ierr.ErrValidation)
	}
	return nil
}
