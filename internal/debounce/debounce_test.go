package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	var calls int32
	d := New(30 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger(func() { atomic.AddInt32(&calls, 1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call after burst, got %d", got)
	}
}

func TestDebouncerSeparateBursts(t *testing.T) {
	var calls int32
	d := New(20 * time.Millisecond)
	defer d.Stop()

	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(80 * time.Millisecond)
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(80 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 calls for separated triggers, got %d", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var calls int32
	d := New(30 * time.Millisecond)

	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected no calls after Stop, got %d", got)
	}

	// Trigger after Stop is a no-op.
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected trigger after Stop to be ignored, got %d calls", got)
	}
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	var calls int32
	d := New(time.Hour)
	defer d.Stop()

	d.Trigger(func() { atomic.AddInt32(&calls, 100) })
	d.Flush(func() { atomic.AddInt32(&calls, 1) })

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected flush to run immediately and cancel pending, got %d", got)
	}
}

func TestGuardSuppressesWithinWindow(t *testing.T) {
	g := NewGuard(time.Hour)

	if !g.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire() {
		t.Error("second acquire within window should fail")
	}

	g.Reset()
	if !g.TryAcquire() {
		t.Error("acquire after Reset should succeed")
	}
}

func TestGuardReopensAfterWindow(t *testing.T) {
	g := NewGuard(20 * time.Millisecond)

	if !g.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	time.Sleep(50 * time.Millisecond)
	if !g.TryAcquire() {
		t.Error("acquire after window elapsed should succeed")
	}
}
