package memory

import (
	"context"
	"testing"

	"github.com/JakeFAU/marketing-site/internal/site"
)

func TestPublisherStoresEvents(t *testing.T) {
	t.Parallel()

	pub := New()
	if pub.Name() != "memory" {
		t.Fatalf("unexpected sink name %q", pub.Name())
	}
	if err := pub.Deliver(context.Background(), site.Event{Kind: site.EventContactCreated}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if err := pub.Deliver(context.Background(), site.Event{Kind: site.EventSubscriberCreated}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	events := pub.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != site.EventContactCreated || events[1].Kind != site.EventSubscriberCreated {
		t.Fatalf("kinds not recorded in order: %+v", events)
	}

	events[0].Kind = "modified"
	if pub.Events()[0].Kind == "modified" {
		t.Fatal("expected Events() to return a copy")
	}
}
