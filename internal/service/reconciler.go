package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/billing"
	"github.com/reportik/reportik/internal/cache"
	"github.com/reportik/reportik/internal/domain/payment"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// replayWindow is how long a processed notification key is remembered.
// Providers retry for at most a few hours; replays beyond the window are
// still harmless because intent transitions are terminal.
const replayWindow = 6 * time.Hour

// ReconcilerService processes inbound payment notifications. Notifications
// are untrusted: the signature is verified first, then the payment is
// re-fetched from the provider and matched to a local intent before any
// credit effect is applied.
type ReconcilerService interface {
	ProcessNotification(ctx context.Context, notification *dto.ProviderNotification, xSignature, xRequestID string) error
}

type reconcilerService struct {
	ServiceParams
}

// NewReconcilerService creates a new payment reconciler
func NewReconcilerService(params ServiceParams) ReconcilerService {
	return &reconcilerService{
		ServiceParams: params,
	}
}

func (s *reconcilerService) ProcessNotification(ctx context.Context, notification *dto.ProviderNotification, xSignature, xRequestID string) error {
	paymentID := notification.Data.ID

	if err := billing.VerifyNotificationSignature(xSignature, xRequestID, paymentID, s.Config.Billing.WebhookSecret); err != nil {
		s.Logger.Warnw("rejected notification with bad signature",
			"payment_id", paymentID,
			"request_id", xRequestID,
		)
		return err
	}

	// Only payment notifications carry effects, everything else is acked
	if notification.Type != types.ProviderNotificationTypePayment {
		s.Logger.Debugw("ignoring non-payment notification",
			"type", notification.Type,
		)
		return nil
	}

	if paymentID == "" {
		return ierr.NewError("payment notification carries no payment id").
			WithHint("Notification payload is malformed").
			Mark(ierr.ErrValidation)
	}

	// Replay short-circuit. The durable guard is the terminal intent
	// status, the cache just skips the provider round-trip.
	replayKey := cache.GenerateKey(cache.PrefixNotification, paymentID, xRequestID)
	if _, seen := s.Cache.Get(ctx, replayKey); seen {
		s.Logger.Debugw("skipping replayed notification",
			"payment_id", paymentID,
			"request_id", xRequestID,
		)
		return nil
	}

	// The notification body is untrusted beyond the payment id; fetch the
	// authoritative state from the provider
	providerPayment, err := s.Gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	intent, err := s.matchIntent(ctx, providerPayment)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Payment does not belong to any known intent. Record it for
			// the audit trail and ack so the provider stops retrying.
			s.Logger.Warnw("notification did not match any intent",
				"payment_id", paymentID,
				"external_reference", providerPayment.ExternalReference,
			)
			s.recordUnmatched(ctx, providerPayment)
			s.Cache.Set(ctx, replayKey, true, replayWindow)
			return nil
		}
		return err
	}

	// Scope everything that follows to the intent's tenant
	ctx = types.SetTenantID(ctx, intent.TenantID)

	if err := s.applyPayment(ctx, intent, providerPayment); err != nil {
		return err
	}

	s.Cache.Set(ctx, replayKey, true, replayWindow)
	return nil
}

// matchIntent finds the local intent for a provider payment. A previously
// bound intent wins; otherwise the checkout's external reference carries
// the intent id.
func (s *reconcilerService) matchIntent(ctx context.Context, p *billing.ProviderPayment) (*payment.Intent, error) {
	intent, err := s.PaymentRepo.FindByExternalReference(ctx, p.ID)
	if err == nil {
		return intent, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	if p.ExternalReference == "" {
		return nil, ierr.NewError("payment carries no external reference").
			Mark(ierr.ErrNotFound)
	}
	return s.PaymentRepo.GetIntent(ctx, p.ExternalReference)
}

// applyPayment applies the payment outcome to the intent in one
// transaction. Binding the provider payment id to the intent is part of
// the transaction, so a payment can only ever be consumed by one intent.
// The pending-to-terminal flip is the exactly-once gate: the credit effect
// runs only in the transaction whose flip affected the row, so duplicate
// deliveries racing past the snapshot check below cannot double-apply.
func (s *reconcilerService) applyPayment(ctx context.Context, intent *payment.Intent, p *billing.ProviderPayment) error {
	if intent.IntentStatus.IsTerminal() {
		s.Logger.Debugw("intent already settled, refreshing record only",
			"intent_id", intent.ID,
			"payment_id", p.ID,
		)
		return s.upsertRecord(ctx, intent, p)
	}

	switch p.Status {
	case types.ProviderPaymentStatusApproved:
		var won bool
		err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.PaymentRepo.AttachExternalReference(txCtx, intent.ID, p.ID); err != nil {
				return err
			}
			flipped, err := s.PaymentRepo.MarkApproved(txCtx, intent.ID)
			if err != nil {
				return err
			}
			won = flipped
			if !flipped {
				// A concurrent delivery settled the intent first
				return nil
			}
			return s.applyEffect(txCtx, intent)
		})
		if err != nil {
			return err
		}

		if err := s.upsertRecord(ctx, intent, p); err != nil {
			return err
		}
		if !won {
			s.Logger.Debugw("intent settled by a concurrent delivery, refreshing record only",
				"intent_id", intent.ID,
				"payment_id", p.ID,
			)
			return nil
		}
		s.publishPaymentEvent(ctx, types.WebhookEventPaymentApproved, intent, p)

		s.Logger.Infow("payment reconciled",
			"intent_id", intent.ID,
			"payment_id", p.ID,
			"kind", intent.Kind,
		)
		return nil

	case types.ProviderPaymentStatusRejected, types.ProviderPaymentStatusCancelled:
		var won bool
		err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.PaymentRepo.AttachExternalReference(txCtx, intent.ID, p.ID); err != nil {
				return err
			}
			flipped, err := s.PaymentRepo.MarkRejected(txCtx, intent.ID)
			if err != nil {
				return err
			}
			won = flipped
			return nil
		})
		if err != nil {
			return err
		}

		if err := s.upsertRecord(ctx, intent, p); err != nil {
			return err
		}
		if won {
			s.publishPaymentEvent(ctx, types.WebhookEventPaymentRejected, intent, p)
		}
		return nil

	default:
		// Pending and in-between statuses only refresh the record
		s.Logger.Debugw("payment not settled yet",
			"intent_id", intent.ID,
			"payment_id", p.ID,
			"provider_status", p.Status,
		)
		return s.upsertRecord(ctx, intent, p)
	}
}

// applyEffect performs the credit side of an approved payment
func (s *reconcilerService) applyEffect(ctx context.Context, intent *payment.Intent) error {
	creditService := NewCreditService(s.ServiceParams)

	switch intent.Kind {
	case types.PaymentIntentKindSubscription:
		if intent.TargetPlan == nil {
			return ierr.NewError("subscription intent has no target plan").
				WithReportableDetails(map[string]interface{}{
					"intent_id": intent.ID,
				}).
				Mark(ierr.ErrSystem)
		}
		return creditService.ApplyPlanUpgrade(ctx, *intent.TargetPlan, intent.ID)

	case types.PaymentIntentKindCreditsPurchase:
		if intent.CreditsRequested == nil {
			return ierr.NewError("credits purchase intent has no credit amount").
				WithReportableDetails(map[string]interface{}{
					"intent_id": intent.ID,
				}).
				Mark(ierr.ErrSystem)
		}
		return creditService.ApplyCreditTopUp(ctx, *intent.CreditsRequested, intent.ID)
	}

	return ierr.NewError("unknown payment intent kind").
		WithReportableDetails(map[string]interface{}{
			"intent_id": intent.ID,
			"kind":      intent.Kind,
		}).
		Mark(ierr.ErrSystem)
}

func (s *reconcilerService) upsertRecord(ctx context.Context, intent *payment.Intent, p *billing.ProviderPayment) error {
	intentID := intent.ID
	record := &payment.Record{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_RECORD),
		IntentID:          &intentID,
		ProviderPaymentID: p.ID,
		ProviderStatus:    p.Status,
		StatusDetail:      p.StatusDetail,
		Amount:            p.TransactionAmount,
		Currency:          p.Currency,
		Metadata:          types.Metadata(p.Metadata),
		BaseModel: types.BaseModel{
			TenantID:  intent.TenantID,
			Status:    types.StatusPublished,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
	}
	return s.PaymentRepo.UpsertRecordByProviderPaymentID(ctx, record)
}

// recordUnmatched keeps an audit row for payments no intent claims. The
// tenant hint comes from the checkout metadata when present.
func (s *reconcilerService) recordUnmatched(ctx context.Context, p *billing.ProviderPayment) {
	record := &payment.Record{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_RECORD),
		ProviderPaymentID: p.ID,
		ProviderStatus:    p.Status,
		StatusDetail:      p.StatusDetail,
		Amount:            p.TransactionAmount,
		Currency:          p.Currency,
		Metadata:          types.Metadata(p.Metadata),
		BaseModel: types.BaseModel{
			TenantID:  p.Metadata["tenant_id"],
			Status:    types.StatusPublished,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
	}
	if err := s.PaymentRepo.UpsertRecordByProviderPaymentID(ctx, record); err != nil {
		s.Logger.Errorw("failed to record unmatched payment",
			"error", err,
			"payment_id", p.ID,
		)
	}
}

func (s *reconcilerService) publishPaymentEvent(ctx context.Context, eventName string, intent *payment.Intent, p *billing.ProviderPayment) {
	if s.WebhookPublisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"intent_id":  intent.ID,
		"payment_id": p.ID,
		"kind":       intent.Kind,
		"amount":     p.TransactionAmount,
		"currency":   p.Currency,
	})
	if err != nil {
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  intent.TenantID,
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish payment event",
			"error", err,
			"event", eventName,
			"intent_id", intent.ID,
		)
	}
}
