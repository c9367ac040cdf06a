package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JakeFAU/marketing-site/internal/site"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	result := make(chan site.Event, 1)
	errCh := make(chan error, 1)

	go func() {
		event, err := q.Dequeue(context.Background())
		if err != nil {
			errCh <- err
			return
		}
		result <- event
	}()

	time.Sleep(10 * time.Millisecond) // allow goroutine to start
	event := site.Event{Kind: site.EventContactCreated, Contact: &site.Contact{ID: 1}}
	if err := q.Enqueue(context.Background(), event); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("Dequeue() error = %v", err)
	case got := <-result:
		if got.Kind != site.EventContactCreated || got.Contact.ID != 1 {
			t.Fatalf("expected contact event, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return event")
	}
}

func TestQueueCancelationErrors(t *testing.T) {
	t.Parallel()

	qDequeue := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := qDequeue.Dequeue(ctx); err == nil ||
		err.Error() != "dequeue canceled: context canceled" {
		t.Fatalf("expected dequeue cancel error, got %v", err)
	}

	qEnqueue := NewQueue(1)
	if err := qEnqueue.Enqueue(context.Background(), site.Event{Kind: site.EventSubscriberCreated}); err != nil {
		t.Fatalf("failed to prime enqueue queue: %v", err)
	}
	if qEnqueue.Len() != 1 {
		t.Fatalf("expected one buffered event, got %d", qEnqueue.Len())
	}
	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	if err := qEnqueue.Enqueue(ctx, site.Event{}); err == nil ||
		err.Error() != "enqueue canceled: context canceled" {
		t.Fatalf("expected enqueue cancel error, got %v", err)
	}
}

func TestQueueClose(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	if err := q.Enqueue(context.Background(), site.Event{Kind: site.EventContactCreated}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	q.Close()

	if err := q.Enqueue(context.Background(), site.Event{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on enqueue, got %v", err)
	}
	if _, err := q.Dequeue(context.Background()); err != nil {
		t.Fatalf("expected buffered event to drain, got %v", err)
	}
	if _, err := q.Dequeue(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected queue closed error, got %v", err)
	}
	// Closing twice should be safe.
	q.Close()
}
