package usecases

import (
	"context"
	"sync"
	"time"
)

// DefaultQuietWindow is how long input must stay quiet before the pending
// action fires.
const DefaultQuietWindow = 300 * time.Millisecond

// Debouncer coalesces bursts of triggers: each Trigger supersedes any
// pending one, and only the last trigger in a quiet window runs. Stale
// actions that were already in flight when a newer trigger arrived are
// discarded on completion, so results apply in issuance order with the
// newest always winning.
type Debouncer struct {
	quiet time.Duration

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	return &Debouncer{quiet: quiet}
}

// Trigger schedules fn to run after the quiet window. A subsequent Trigger
// before the window elapses cancels this one. fn runs on its own goroutine
// with a context that is cancelled if a newer trigger arrives while fn is
// still running, and returns a delivery closure. The closure is invoked
// only if the trigger is still the newest when fn completes: cancellation
// cannot recall a provider call already on the wire, so completions are
// re-checked against the sequence counter and dropped when superseded.
func (d *Debouncer) Trigger(ctx context.Context, fn func(context.Context) func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	id := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	runCtx, cancel := context.WithCancel(ctx)

	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		if id != d.seq {
			// Superseded between firing and acquiring the lock.
			d.mu.Unlock()
			cancel()
			return
		}
		d.cancel = cancel
		d.mu.Unlock()

		deliver := fn(runCtx)

		d.mu.Lock()
		current := id == d.seq
		if d.cancel != nil && current {
			d.cancel = nil
		}
		d.mu.Unlock()
		cancel()

		if current && deliver != nil {
			deliver()
		}
	})
}

// Stop cancels any pending or in-flight action.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
