package http

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestExecuteWithRetry_Success verifies a passing operation runs exactly once.
func TestExecuteWithRetry_Success(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestExecuteWithRetry_FatalError verifies fatal errors are not retried.
func TestExecuteWithRetry_FatalError(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		calls++
		return fmt.Errorf("400 bad request")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on fatal), got %d", calls)
	}
}

// TestExecuteWithRetry_RetryableExhausted verifies server errors retry up to the limit.
func TestExecuteWithRetry_RetryableExhausted(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	calls := 0
	retries := 0
	cfg.OnRetry = func(attempt int, err error, errType ErrorType) {
		retries++
		if errType != ErrorTypeRetryable {
			t.Errorf("errType = %v, want retryable", errType)
		}
	}

	err := ExecuteWithRetry(context.Background(), cfg, func() error {
		calls++
		return errors.New("503 service unavailable")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if retries != 2 {
		t.Errorf("expected 2 retry callbacks, got %d", retries)
	}
}

// TestExecuteWithRetry_ContextCancelled verifies cancellation cuts the backoff short.
func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: 5 * time.Second,
		MaxDelay:     30 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		done <- ExecuteWithRetry(ctx, cfg, func() error {
			return errors.New("connection reset")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteWithRetry did not return after cancellation")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeSuccess},
		{"timeout", errors.New("dial tcp: i/o timeout"), ErrorTypeNetwork},
		{"reset", errors.New("read: connection reset by peer"), ErrorTypeNetwork},
		{"throttle", errors.New("429 Too Many Requests"), ErrorTypeRetryable},
		{"bad gateway", errors.New("unexpected status 502"), ErrorTypeRetryable},
		{"bad request", errors.New("chunk rejected: 400"), ErrorTypeFatal},
		{"unknown", errors.New("something odd"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %s, want %s",
					tt.err, ErrorTypeName(got), ErrorTypeName(tt.want))
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	initial := 100 * time.Millisecond
	max := time.Second

	if d := CalculateBackoff(0, initial, max); d != 0 {
		t.Errorf("attempt 0 backoff = %v, want 0", d)
	}

	for attempt := 1; attempt <= 10; attempt++ {
		d := CalculateBackoff(attempt, initial, max)
		if d < 0 || d >= max {
			t.Errorf("attempt %d backoff = %v, want in [0, %v)", attempt, d, max)
		}
	}
}
