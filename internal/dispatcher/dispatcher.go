// Package dispatcher manages worker fan-out over the lead event queue.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/marketing-site/internal/site"
	"github.com/JakeFAU/marketing-site/internal/worker"
)

// Dispatcher fans out queued events to a pool of workers.
type Dispatcher struct {
	queue   site.EventQueue
	workers []*worker.Worker
}

// New creates a Dispatcher.
func New(queue site.EventQueue, workers []*worker.Worker) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		workers: workers,
	}
}

// Run starts all workers and blocks until every worker has returned.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	wg.Wait()
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher) Enqueue(ctx context.Context, event site.Event) error {
	if err := d.queue.Enqueue(ctx, event); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}
