package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), nil, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsAtAttemptCap(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), fastPolicy(), nil, func(ctx context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	// Never a 4th call past the configured cap.
	assert.Equal(t, 3, calls)
}

func TestDoRecoversAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), nil, func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(err error) bool { return false },
		func(ctx context.Context, attempt int) error {
			calls++
			return fatal
		})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDelaysStrictlyIncrease(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, Multiplier: 2.0}
	assert.Equal(t, time.Duration(0), p.Delay(1))
	prev := time.Duration(0)
	for attempt := 2; attempt <= 5; attempt++ {
		d := p.Delay(attempt)
		assert.Greater(t, d, prev, "attempt %d", attempt)
		prev = d
	}
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 200*time.Millisecond, p.Delay(3))
	assert.Equal(t, 400*time.Millisecond, p.Delay(4))
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, BaseDelay: time.Hour, Multiplier: 2.0}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, p, nil, func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
