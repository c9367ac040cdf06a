package site

import (
	"context"
	"time"
)

// ContactStore persists contact submissions.
type ContactStore interface {
	CreateContact(ctx context.Context, contact Contact) (Contact, error)
}

// SubscriberStore persists newsletter subscribers.
type SubscriberStore interface {
	// FindSubscriber returns ok=false when no row matches the normalized email.
	FindSubscriber(ctx context.Context, email string) (Subscriber, bool, error)
	CreateSubscriber(ctx context.Context, sub Subscriber) (Subscriber, error)
}

// HealthChecker probes storage connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventQueue accepts lead events for asynchronous delivery.
type EventQueue interface {
	Enqueue(ctx context.Context, event Event) error
	Dequeue(ctx context.Context) (Event, error)
}

// EventSink delivers a lead event to one downstream system.
type EventSink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Invalidator drops cached rendered output for site paths.
type Invalidator interface {
	Invalidate(ctx context.Context, paths []string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces opaque identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
