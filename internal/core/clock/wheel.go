package clock

import (
	"context"
	"sync"
	"time"
)

// Wheel runs a set of independent periodic tasks, each on its
// own time.Ticker, and stops them all together on context
// cancellation. It generalizes the single hand-rolled ticker loop the
// teacher's NetworkService.StartCleanupLoop used for one task into the
// several independent periods this engine needs (probe/client/AP/
// denied aging, kick sweep, denied-request processing, peer
// discovery) without duplicating the goroutine/select boilerplate at
// each call site.
type Wheel struct {
	mu      sync.Mutex
	cancels []context.CancelFunc
}

// Every registers fn to run every period, first one period after
// registration, until
// ctx is cancelled or the Wheel is stopped. Panics recovered from fn
// are not handled here; callers are expected to guard their own
// bodies, matching the single-threaded-handler discipline of §5.
func (w *Wheel) Every(ctx context.Context, period time.Duration, fn func()) {
	taskCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancels = append(w.cancels, cancel)
	w.mu.Unlock()

	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-taskCtx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Stop cancels every task registered on the wheel.
func (w *Wheel) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, cancel := range w.cancels {
		cancel()
	}
	w.cancels = nil
}
