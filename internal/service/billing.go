package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/billing"
	"github.com/reportik/reportik/internal/domain/payment"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/idempotency"
	"github.com/reportik/reportik/internal/types"
)

// BillingService opens provider checkouts for plan upgrades and credit
// purchases and exposes the payment history. The actual credit effects are
// applied later by the reconciler when the provider notifies us.
type BillingService interface {
	// UpgradePlan opens a checkout for a paid plan
	UpgradePlan(ctx context.Context, req *dto.UpgradePlanRequest) (*dto.CheckoutResponse, error)

	// PurchaseCredits opens a checkout for a one-off credit package
	PurchaseCredits(ctx context.Context, req *dto.PurchaseCreditsRequest) (*dto.CheckoutResponse, error)

	// GetPaymentHistory lists reconciled provider payments for the tenant
	GetPaymentHistory(ctx context.Context, limit int) (*dto.ListPaymentRecordsResponse, error)
}

type billingService struct {
	ServiceParams
}

// NewBillingService creates a new billing service
func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
	}
}

func (s *billingService) UpgradePlan(ctx context.Context, req *dto.UpgradePlanRequest) (*dto.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acct, err := s.AccountRepo.Get(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}
	if acct.Plan == req.Plan {
		return nil, ierr.NewError("account is already on this plan").
			WithReportableDetails(map[string]interface{}{
				"plan": req.Plan,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	limits := types.GetPlanLimits(req.Plan)
	targetPlan := req.Plan

	intent := &payment.Intent{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_INTENT),
		Kind:         types.PaymentIntentKindSubscription,
		TargetPlan:   lo.ToPtr(targetPlan),
		IntentStatus: types.PaymentIntentStatusPending,
		Amount:       limits.Price,
		Currency:     s.Config.Billing.Currency,
		IdempotencyKey: s.IdempotencyGen.GenerateKey(idempotency.ScopeCheckout, map[string]interface{}{
			"tenant_id": acct.ID,
			"kind":      types.PaymentIntentKindSubscription,
			"plan":      targetPlan,
		}),
		BaseModel: types.GetDefaultBaseModel(ctx),
	}

	title := fmt.Sprintf("Reportik %s plan", limits.Name)
	return s.openCheckout(ctx, intent, title)
}

func (s *billingService) PurchaseCredits(ctx context.Context, req *dto.PurchaseCreditsRequest) (*dto.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pkg, err := types.FindCreditPackage(req.Credits)
	if err != nil {
		return nil, err
	}

	credits := pkg.Credits
	intent := &payment.Intent{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_INTENT),
		Kind:             types.PaymentIntentKindCreditsPurchase,
		CreditsRequested: lo.ToPtr(credits),
		IntentStatus:     types.PaymentIntentStatusPending,
		Amount:           pkg.Price,
		Currency:         s.Config.Billing.Currency,
		IdempotencyKey: s.IdempotencyGen.GenerateKey(idempotency.ScopeCheckout, map[string]interface{}{
			"tenant_id": types.GetTenantID(ctx),
			"kind":      types.PaymentIntentKindCreditsPurchase,
			"credits":   credits,
			"ts":        time.Now().UTC().Unix(),
		}),
		BaseModel: types.GetDefaultBaseModel(ctx),
	}

	title := fmt.Sprintf("Reportik %d credits", credits)
	return s.openCheckout(ctx, intent, title)
}

// openCheckout opens the provider checkout and persists the intent. The
// intent id travels as the checkout's external reference so the reconciler
// can match the payment back even when the provider payment id is unknown.
func (s *billingService) openCheckout(ctx context.Context, intent *payment.Intent, title string) (*dto.CheckoutResponse, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	session, err := s.Gateway.CreateCheckout(ctx, &billing.CheckoutRequest{
		Title:             title,
		Amount:            intent.Amount,
		Currency:          intent.Currency,
		ExternalReference: intent.ID,
		Metadata: map[string]string{
			"tenant_id": intent.TenantID,
			"intent_id": intent.ID,
			"kind":      intent.Kind.String(),
		},
		IdempotencyKey: intent.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	intent.ProviderRef = session.ID
	if err := s.PaymentRepo.CreateIntent(ctx, intent); err != nil {
		return nil, err
	}

	s.Logger.Infow("checkout opened",
		"intent_id", intent.ID,
		"tenant_id", intent.TenantID,
		"kind", intent.Kind,
		"checkout_id", session.ID,
	)

	return &dto.CheckoutResponse{
		IntentID:   intent.ID,
		CheckoutID: session.ID,
		InitPoint:  session.InitPoint,
	}, nil
}

func (s *billingService) GetPaymentHistory(ctx context.Context, limit int) (*dto.ListPaymentRecordsResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	records, err := s.PaymentRepo.ListRecords(ctx, types.GetTenantID(ctx), limit)
	if err != nil {
		return nil, err
	}

	return &dto.ListPaymentRecordsResponse{
		Items: lo.Map(records, func(rec *payment.Record, _ int) *dto.PaymentRecordResponse {
			return &dto.PaymentRecordResponse{Record: rec}
		}),
		Total: len(records),
	}, nil
}
