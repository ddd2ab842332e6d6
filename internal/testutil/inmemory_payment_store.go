package testutil

import (
	"context"
	"sync"

	"github.com/reportik/reportik/internal/domain/payment"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

type InMemoryPaymentStore struct {
	mu      sync.Mutex
	intents map[string]*payment.Intent
	records map[string]*payment.Record
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		intents: make(map[string]*payment.Intent),
		records: make(map[string]*payment.Record),
	}
}

func (r *InMemoryPaymentStore) CreateIntent(ctx context.Context, i *payment.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.intents[i.ID]; exists {
		return ierr.NewError("intent already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	copied := *i
	r.intents[i.ID] = &copied
	return nil
}

func (r *InMemoryPaymentStore) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.intents[id]
	if !exists {
		return nil, ierr.NewError("payment intent not found").
			Mark(ierr.ErrNotFound)
	}

	copied := *i
	return &copied, nil
}

func (r *InMemoryPaymentStore) FindByExternalReference(ctx context.Context, externalReference string) (*payment.Intent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, i := range r.intents {
		if i.ExternalReference != nil && *i.ExternalReference == externalReference {
			copied := *i
			return &copied, nil
		}
	}
	return nil, ierr.NewError("payment intent not found").
		Mark(ierr.ErrNotFound)
}

func (r *InMemoryPaymentStore) AttachExternalReference(ctx context.Context, intentID, externalReference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, i := range r.intents {
		if i.ID != intentID && i.ExternalReference != nil && *i.ExternalReference == externalReference {
			return ierr.NewError("external reference already attached to another intent").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	i, exists := r.intents[intentID]
	if !exists {
		return ierr.NewError("payment intent not found").
			Mark(ierr.ErrNotFound)
	}

	if i.ExternalReference != nil && *i.ExternalReference != externalReference {
		return ierr.NewError("intent already bound to a different payment").
			Mark(ierr.ErrAlreadyExists)
	}

	i.ExternalReference = &externalReference
	return nil
}

func (r *InMemoryPaymentStore) markTerminal(intentID string, target types.PaymentIntentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.intents[intentID]
	if !exists {
		return false, ierr.NewError("payment intent not found").
			Mark(ierr.ErrNotFound)
	}

	if i.IntentStatus != types.PaymentIntentStatusPending {
		return false, nil
	}
	i.IntentStatus = target
	return true, nil
}

func (r *InMemoryPaymentStore) MarkApproved(ctx context.Context, intentID string) (bool, error) {
	return r.markTerminal(intentID, types.PaymentIntentStatusApproved)
}

func (r *InMemoryPaymentStore) MarkRejected(ctx context.Context, intentID string) (bool, error) {
	return r.markTerminal(intentID, types.PaymentIntentStatusRejected)
}

func (r *InMemoryPaymentStore) UpsertRecordByProviderPaymentID(ctx context.Context, rec *payment.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[rec.ProviderPaymentID]; ok {
		existing.ProviderStatus = rec.ProviderStatus
		existing.StatusDetail = rec.StatusDetail
		existing.Metadata = rec.Metadata
		if existing.IntentID == nil {
			existing.IntentID = rec.IntentID
		}
		return nil
	}

	copied := *rec
	r.records[rec.ProviderPaymentID] = &copied
	return nil
}

func (r *InMemoryPaymentStore) ListRecords(ctx context.Context, tenantID string, limit int) ([]*payment.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*payment.Record
	for _, rec := range r.records {
		if rec.TenantID == tenantID {
			copied := *rec
			result = append(result, &copied)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *InMemoryPaymentStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = make(map[string]*payment.Intent)
	r.records = make(map[string]*payment.Record)
}
