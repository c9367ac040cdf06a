package revalidate

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/marketing-site/internal/site"
)

// Fanout runs invalidators in order and stops at the first failure.
type Fanout []site.Invalidator

// Invalidate implements site.Invalidator.
func (f Fanout) Invalidate(ctx context.Context, paths []string) error {
	for i, inv := range f {
		if err := inv.Invalidate(ctx, paths); err != nil {
			return fmt.Errorf("invalidator %d: %w", i, err)
		}
	}
	return nil
}

// Recorder remembers invalidated paths in memory.
type Recorder struct {
	mu    sync.Mutex
	calls [][]string
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Invalidate implements site.Invalidator.
func (r *Recorder) Invalidate(_ context.Context, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), paths...))
	return nil
}

// Calls returns a copy of every recorded batch.
func (r *Recorder) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}
