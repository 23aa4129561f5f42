// Package debounce provides small timing primitives: a debouncer that
// coalesces bursts of triggers into one call, and a guard that suppresses
// rapid re-fires of the same action.
package debounce

import (
	"sync"
	"time"
)

// Debouncer invokes a function once, delay after the last Trigger in a
// burst. Each Trigger resets the pending timer; Stop cancels any pending
// call deterministically, so an owner tearing down never sees a late fire.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// New creates a Debouncer with the given settle delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the settle delay, replacing any
// previously pending call. After Stop, Trigger is a no-op.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

// Flush runs fn immediately, cancelling any pending call first.
func (d *Debouncer) Flush(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	fn()
}

// Stop cancels any pending call and disables the debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Guard suppresses duplicate fires of one action within a short window.
// The first TryAcquire wins; later calls fail until the window elapses.
// Scoped to its owner, not process-wide.
type Guard struct {
	window time.Duration

	mu    sync.Mutex
	until time.Time
}

// NewGuard creates a Guard with the given suppression window.
func NewGuard(window time.Duration) *Guard {
	return &Guard{window: window}
}

// TryAcquire reports whether the caller may proceed. A successful acquire
// arms the suppression window.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if now.Before(g.until) {
		return false
	}
	g.until = now.Add(g.window)
	return true
}

// Reset clears the suppression window.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.until = time.Time{}
}
