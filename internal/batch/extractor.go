// Package batch implements the rendered-image extraction path: pages are
// split into fixed-size batches, extracted concurrently with per-batch
// retry/backoff, and merged back into one result.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swimline/heatsheet/constants"
	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/llm"
	"github.com/swimline/heatsheet/internal/retry"
)

// ImageExtractor is the single model call a batch needs.
type ImageExtractor interface {
	ExtractWithImages(ctx context.Context, imageURLs []string, prompt string) (*llm.ExtractionResult, error)
}

// Extractor fans page images out into concurrent batch calls.
type Extractor struct {
	client  ImageExtractor
	log     *slog.Logger
	pages   int
	stagger time.Duration
	policy  retry.Policy
}

type Option func(*Extractor)

func WithBatchPages(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.pages = n
		}
	}
}

func WithStagger(d time.Duration) Option {
	return func(e *Extractor) {
		if d >= 0 {
			e.stagger = d
		}
	}
}

func WithPolicy(p retry.Policy) Option {
	return func(e *Extractor) {
		e.policy = p
	}
}

func New(client ImageExtractor, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		client:  client,
		log:     logger,
		pages:   constants.DefaultBatchPages,
		stagger: constants.DefaultBatchStagger,
		policy:  retry.DefaultPolicy(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExtractAll runs every batch to completion and returns per-batch results in
// page order. If any batch exhausts its retries the whole extraction fails;
// a silently dropped batch would mean missing events with no signal to the
// caller.
func (e *Extractor) ExtractAll(ctx context.Context, imageURLs []string, prompt string) ([]*llm.ExtractionResult, error) {
	if len(imageURLs) == 0 {
		return nil, fmt.Errorf("no page images to extract")
	}

	batches := splitBatches(imageURLs, e.pages)
	results := make([]*llm.ExtractionResult, len(batches))
	failures := make([]error, len(batches))

	e.log.Info("batch.extract.start",
		"pages", len(imageURLs),
		"batches", len(batches),
		"batch_pages", e.pages,
		"max_attempts", e.policy.MaxAttempts,
	)
	start := time.Now()

	var wg sync.WaitGroup
	for i, images := range batches {
		wg.Add(1)
		go func(idx int, images []string) {
			defer wg.Done()

			// Staggered launch keeps the provider from seeing all batches
			// in the same instant.
			if wait := time.Duration(idx) * e.stagger; wait > 0 {
				select {
				case <-ctx.Done():
					failures[idx] = ctx.Err()
					return
				case <-time.After(wait):
				}
			}

			err := retry.Do(ctx, e.policy, common.IsTransient, func(ctx context.Context, attempt int) error {
				if attempt > 1 {
					e.log.Warn("batch.extract.retry", "batch", idx, "attempt", attempt)
				}
				res, err := e.client.ExtractWithImages(ctx, images, prompt)
				if err != nil {
					return err
				}
				results[idx] = res
				return nil
			})
			if err != nil {
				e.log.Error("batch.extract.batch_failed", "batch", idx, "error", err)
				failures[idx] = fmt.Errorf("batch %d: %w", idx, err)
			}
		}(i, images)
	}
	wg.Wait()

	if err := errors.Join(failures...); err != nil {
		return nil, err
	}

	e.log.Info("batch.extract.ok",
		"batches", len(batches),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

func splitBatches(images []string, size int) [][]string {
	if size <= 0 {
		size = constants.DefaultBatchPages
	}
	var out [][]string
	for start := 0; start < len(images); start += size {
		end := start + size
		if end > len(images) {
			end = len(images)
		}
		out = append(out, images[start:end])
	}
	return out
}
