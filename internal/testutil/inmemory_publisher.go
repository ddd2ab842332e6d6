package testutil

import (
	"context"
	"sync"

	"github.com/reportik/reportik/internal/types"
)

// InMemoryWebhookPublisher captures published events for assertions
type InMemoryWebhookPublisher struct {
	mu     sync.Mutex
	events []*types.WebhookEvent
}

func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{}
}

func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// Events returns the captured events
func (p *InMemoryWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]*types.WebhookEvent, len(p.events))
	copy(result, p.events)
	return result
}

// EventsByName filters captured events by name
func (p *InMemoryWebhookPublisher) EventsByName(name string) []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []*types.WebhookEvent
	for _, e := range p.events {
		if e.EventName == name {
			result = append(result, e)
		}
	}
	return result
}

func (p *InMemoryWebhookPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
