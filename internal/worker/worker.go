// Package worker delivers lead events to downstream sinks.
package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/marketing-site/internal/metrics"
	"github.com/JakeFAU/marketing-site/internal/site"
)

// Worker consumes queue events and hands each one to every sink.
type Worker struct {
	queue  site.EventQueue
	sinks  []site.EventSink
	logger *zap.Logger
}

// New constructs a Worker.
func New(queue site.EventQueue, sinks []site.EventSink, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:  queue,
		sinks:  sinks,
		logger: logger,
	}
}

// Run blocks, consuming queue events until the context finishes or the
// queue is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	for {
		event, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, site.ErrQueueClosed) {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued event", zap.String("kind", string(event.Kind)))
		w.Deliver(ctx, event)
	}
}

// Deliver sends event to every sink. A failing sink is logged and counted;
// the remaining sinks still run.
func (w *Worker) Deliver(ctx context.Context, event site.Event) {
	for _, sink := range w.sinks {
		err := sink.Deliver(ctx, event)
		metrics.ObserveEventDelivery(sink.Name(), err)
		if err != nil {
			w.logger.Error("event delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
		}
	}
}
