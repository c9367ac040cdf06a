// Package memory contains an in-memory lead event sink for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/marketing-site/internal/site"
)

// Publisher stores delivered events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []site.Event
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Name implements site.EventSink.
func (p *Publisher) Name() string { return "memory" }

// Deliver records the event.
func (p *Publisher) Deliver(_ context.Context, event site.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns the recorded deliveries.
func (p *Publisher) Events() []site.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]site.Event, len(p.events))
	copy(out, p.events)
	return out
}
