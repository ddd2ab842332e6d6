package testutil

import (
	"context"
	"sync"

	"github.com/reportik/reportik/internal/billing"
	ierr "github.com/reportik/reportik/internal/errors"
)

// InMemoryGateway is a programmable payment gateway. Tests seed payments
// by id and can force failures to exercise the integration error paths.
type InMemoryGateway struct {
	mu        sync.Mutex
	payments  map[string]*billing.ProviderPayment
	checkouts int
	failAll   bool
}

func NewInMemoryGateway() *InMemoryGateway {
	return &InMemoryGateway{
		payments: make(map[string]*billing.ProviderPayment),
	}
}

// SeedPayment registers a payment the gateway will serve
func (g *InMemoryGateway) SeedPayment(p *billing.ProviderPayment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

// FailAll makes every gateway call fail with an integration error
func (g *InMemoryGateway) FailAll(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failAll = fail
}

// CheckoutCount returns how many checkouts were opened
func (g *InMemoryGateway) CheckoutCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkouts
}

func (g *InMemoryGateway) CreateCheckout(ctx context.Context, req *billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failAll {
		return nil, ierr.NewError("payment provider is unreachable").
			Mark(ierr.ErrIntegration)
	}

	g.checkouts++
	return &billing.CheckoutSession{
		ID:        "checkout_test",
		InitPoint: "https://checkout.test/init",
	}, nil
}

func (g *InMemoryGateway) GetPayment(ctx context.Context, paymentID string) (*billing.ProviderPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failAll {
		return nil, ierr.NewError("payment provider is unreachable").
			Mark(ierr.ErrIntegration)
	}

	p, exists := g.payments[paymentID]
	if !exists {
		return nil, ierr.NewError("payment not found at provider").
			Mark(ierr.ErrIntegration)
	}

	copied := *p
	return &copied, nil
}

func (g *InMemoryGateway) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments = make(map[string]*billing.ProviderPayment)
	g.checkouts = 0
	g.failAll = false
}
