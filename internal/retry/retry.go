// Package retry provides a reusable bounded-backoff combinator. The batch
// extractor applies it per batch, but nothing here knows about batches.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes bounded exponential backoff.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
	Multiplier  float64       // delay growth factor between attempts
}

// DefaultPolicy matches the extraction defaults: 3 attempts, 2s base, doubling.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, Multiplier: 2.0}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}
	return p
}

// Delay returns the backoff before attempt n (1-based; attempt 1 has none).
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempt
// cap is reached. retryable decides which errors are worth another attempt;
// a nil retryable retries everything. Context cancellation aborts the wait.
func Do(ctx context.Context, policy Policy, retryable func(error) bool, op func(ctx context.Context, attempt int) error) error {
	policy = policy.normalized()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if delay := policy.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("exhausted %d attempt(s): %w", policy.MaxAttempts, lastErr)
}
