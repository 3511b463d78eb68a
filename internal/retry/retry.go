// Package retry re-runs a whole operation when it fails with an error classified as transient.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable decides whether an error is worth another attempt. nil means never retry.
	Retryable func(error) bool
	// OnRetry is called before sleeping ahead of attempt n+1.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Retryable:   retryable,
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, attempts run out or ctx ends.
// It returns the number of attempts made and the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	var lastErr error
	op := func() error {
		attempt++
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) || ctx.Err() != nil {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = func(err error, wait time.Duration) { p.OnRetry(attempt, err, wait) }
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), uint64(maxAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		// A cancel during the wait surfaces as ctx.Err(); report what the operation said instead.
		if lastErr != nil && ctx.Err() != nil {
			return attempt, lastErr
		}
		return attempt, err
	}
	return attempt, nil
}

// newBackOff is the wait schedule between attempts: BaseDelay doubling up to MaxDelay, no jitter.
func (p Policy) newBackOff() backoff.BackOff {
	if p.BaseDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
