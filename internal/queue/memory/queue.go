// Package memory provides an in-process lead event queue.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/marketing-site/internal/site"
)

// ErrClosed is returned once the queue has been closed.
var ErrClosed = site.ErrQueueClosed

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch      chan site.Event
	closeMu sync.RWMutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan site.Event, capacity),
	}
}

// Enqueue pushes an event into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, event site.Event) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- event:
		return nil
	}
}

// Dequeue pops the next event, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (site.Event, error) {
	select {
	case <-ctx.Done():
		return site.Event{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case event, ok := <-q.ch:
		if !ok {
			return site.Event{}, ErrClosed
		}
		return event, nil
	}
}

// Len reports how many events are buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close closes the underlying channel for shutdown. Buffered events remain
// available to Dequeue.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
