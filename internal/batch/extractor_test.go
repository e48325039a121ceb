package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/llm"
	"github.com/swimline/heatsheet/internal/retry"
)

// fakeImageExtractor scripts per-batch behavior keyed by the first image URL.
type fakeImageExtractor struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int // fail this many times before succeeding
	result   func(images []string) *llm.ExtractionResult
}

func newFakeImageExtractor() *fakeImageExtractor {
	return &fakeImageExtractor{
		calls:    make(map[string]int),
		failures: make(map[string]int),
		result: func(images []string) *llm.ExtractionResult {
			return &llm.ExtractionResult{MeetName: "Meet", SessionDate: "2025-04-12", Events: []llm.SwimEvent{}}
		},
	}
}

func (f *fakeImageExtractor) ExtractWithImages(ctx context.Context, images []string, prompt string) (*llm.ExtractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := images[0]
	f.calls[key]++
	if f.failures[key] >= f.calls[key] {
		return nil, &common.TransientError{Cause: errors.New("rate limited")}
	}
	return f.result(images), nil
}

func (f *fakeImageExtractor) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func pageURLs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("data:image/png;base64,page%d", i)
	}
	return out
}

func fastOpts() []Option {
	return []Option{
		WithBatchPages(5),
		WithStagger(0),
		WithPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0}),
	}
}

func TestExtractAllSplitsIntoBatches(t *testing.T) {
	fake := newFakeImageExtractor()
	e := New(fake, nil, fastOpts()...)

	results, err := e.ExtractAll(context.Background(), pageURLs(12), "prompt")
	require.NoError(t, err)
	// 12 pages at 5/batch -> 3 batches
	assert.Len(t, results, 3)
	assert.Equal(t, 1, fake.callCount("data:image/png;base64,page0"))
	assert.Equal(t, 1, fake.callCount("data:image/png;base64,page5"))
	assert.Equal(t, 1, fake.callCount("data:image/png;base64,page10"))
}

func TestExtractAllRetriesTransientFailures(t *testing.T) {
	fake := newFakeImageExtractor()
	fake.failures["data:image/png;base64,page5"] = 2 // succeeds on 3rd attempt
	e := New(fake, nil, fastOpts()...)

	results, err := e.ExtractAll(context.Background(), pageURLs(10), "prompt")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 3, fake.callCount("data:image/png;base64,page5"))
}

func TestExtractAllFailsWhenBatchExhaustsRetries(t *testing.T) {
	fake := newFakeImageExtractor()
	fake.failures["data:image/png;base64,page5"] = 99
	e := New(fake, nil, fastOpts()...)

	_, err := e.ExtractAll(context.Background(), pageURLs(10), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 1")
	// Attempt cap respected: exactly 3 calls, never a 4th.
	assert.Equal(t, 3, fake.callCount("data:image/png;base64,page5"))
	// The healthy batch still ran.
	assert.Equal(t, 1, fake.callCount("data:image/png;base64,page0"))
}

func TestExtractAllEmptyInput(t *testing.T) {
	e := New(newFakeImageExtractor(), nil, fastOpts()...)
	_, err := e.ExtractAll(context.Background(), nil, "prompt")
	assert.Error(t, err)
}

func TestSplitBatches(t *testing.T) {
	b := splitBatches([]string{"a", "b", "c", "d", "e", "f", "g"}, 3)
	require.Len(t, b, 3)
	assert.Equal(t, []string{"a", "b", "c"}, b[0])
	assert.Equal(t, []string{"g"}, b[2])
}
