package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func TestPolicy_RetriesTransientUntilSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, Retryable: func(err error) bool { return errors.Is(err, errFlaky) }}

	calls := 0
	attempts, err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestPolicy_DoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("constraint violation")
	p := Policy{MaxAttempts: 5, Retryable: func(err error) bool { return errors.Is(err, errFlaky) }}

	calls := 0
	attempts, err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestPolicy_GivesUpAfterMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 2, Retryable: func(error) bool { return true }}

	attempts, err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected errFlaky, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestPolicy_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, BaseDelay: time.Hour, Retryable: func(error) bool { return true }}

	calls := 0
	_, err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errFlaky
	})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if calls != 1 {
		t.Fatalf("expected no retry after cancel, got %d calls", calls)
	}
}

func TestPolicy_BackoffIsCapped(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond}
	b := p.newBackOff()
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Fatalf("wait %d = %v, want %v", i+1, got, w)
		}
	}
}

func TestPolicy_ZeroBaseDelayDoesNotWait(t *testing.T) {
	b := Policy{}.newBackOff()
	if got := b.NextBackOff(); got != 0 {
		t.Fatalf("expected no wait, got %v", got)
	}
}

func TestPolicy_OnRetryReportsFailedAttempt(t *testing.T) {
	var seen []int
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Retryable:   func(error) bool { return true },
		OnRetry:     func(attempt int, err error, wait time.Duration) { seen = append(seen, attempt) },
	}

	attempts, err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errFlaky
	})
	if !errors.Is(err, errFlaky) || attempts != 3 {
		t.Fatalf("expected errFlaky after 3 attempts, got attempts=%d err=%v", attempts, err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("OnRetry should fire after attempts 1 and 2, got %v", seen)
	}
}

func TestPolicy_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	attempts, err := Policy{MaxAttempts: 3}.Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || attempts != 0 || calls != 0 {
		t.Fatalf("expected no attempts and context.Canceled, got attempts=%d calls=%d err=%v", attempts, calls, err)
	}
}
