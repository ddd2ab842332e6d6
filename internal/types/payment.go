package types

import (
	ierr "github.com/reportik/reportik/internal/errors"
)

// PaymentIntentKind distinguishes what a checkout pays for
type PaymentIntentKind string

const (
	PaymentIntentKindSubscription    PaymentIntentKind = "subscription"
	PaymentIntentKindCreditsPurchase PaymentIntentKind = "credits_purchase"
)

func (k PaymentIntentKind) String() string {
	return string(k)
}

func (k PaymentIntentKind) Validate() error {
	switch k {
	case PaymentIntentKindSubscription, PaymentIntentKindCreditsPurchase:
		return nil
	}
	return ierr.NewError("invalid payment intent kind").
		WithHint("Kind must be subscription or credits_purchase").
		WithReportableDetails(map[string]interface{}{
			"kind": string(k),
		}).
		Mark(ierr.ErrValidation)
}

// PaymentIntentStatus is the local lifecycle of a checkout intent.
// Approved and Rejected are terminal.
type PaymentIntentStatus string

const (
	PaymentIntentStatusPending  PaymentIntentStatus = "pending"
	PaymentIntentStatusApproved PaymentIntentStatus = "approved"
	PaymentIntentStatusRejected PaymentIntentStatus = "rejected"
)

func (s PaymentIntentStatus) String() string {
	return string(s)
}

// IsTerminal returns true once an intent can no longer change status
func (s PaymentIntentStatus) IsTerminal() bool {
	return s == PaymentIntentStatusApproved || s == PaymentIntentStatusRejected
}

// Provider payment statuses as reported by the payment gateway
const (
	ProviderPaymentStatusApproved  = "approved"
	ProviderPaymentStatusPending   = "pending"
	ProviderPaymentStatusRejected  = "rejected"
	ProviderPaymentStatusCancelled = "cancelled"
	ProviderPaymentStatusRefunded  = "refunded"
)

// ProviderNotificationTypePayment is the only notification type that is
// reconciled; everything else is acked and ignored.
const ProviderNotificationTypePayment = "payment"
