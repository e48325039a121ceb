// Package pipeline sequences a single extraction request: checksum, cache
// lookups, model dispatch, post-filtering, cache write, link minting. The
// cache-first/compute-second ordering is the correctness property here — a
// cache read must be observed as a miss strictly before any model call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/swimline/heatsheet/constants"
	"github.com/swimline/heatsheet/internal/batch"
	"github.com/swimline/heatsheet/internal/checksum"
	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/entity"
	"github.com/swimline/heatsheet/internal/inflight"
	"github.com/swimline/heatsheet/internal/llm"
	"github.com/swimline/heatsheet/internal/match"
	"github.com/swimline/heatsheet/internal/names"
	"github.com/swimline/heatsheet/internal/renderer"
	"github.com/swimline/heatsheet/internal/repository"
)

// Meta carries optional request metadata persisted with the PDF record.
type Meta struct {
	SourceURL string
	Filename  string
}

// Outcome is the result envelope returned to the transport layer.
type Outcome struct {
	ExtractionID uuid.UUID             `json:"extraction_id"`
	Result       *llm.ExtractionResult `json:"result"`
	ResultCode   string                `json:"result_code"`
	Cached       bool                  `json:"cached"`
}

// Deps are the collaborators the orchestrator sequences. Everything is an
// interface so tests run against fakes.
type Deps struct {
	Logger       *slog.Logger
	PDFs         repository.PDFFileRepository
	Extractions  repository.ExtractionRepository
	Links        repository.ResultLinkRepository
	Client       llm.Extractor
	Renderer     renderer.Renderer
	Batcher      *batch.Extractor
	Reservations *inflight.Reservations // nil disables the stampede guard
}

type Service struct {
	log          *slog.Logger
	pdfs         repository.PDFFileRepository
	extractions  repository.ExtractionRepository
	links        repository.ResultLinkRepository
	client       llm.Extractor
	renderer     renderer.Renderer
	batcher      *batch.Extractor
	reservations *inflight.Reservations

	providerFileTTL time.Duration
	waitPoll        time.Duration
}

func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		log:             logger,
		pdfs:            deps.PDFs,
		extractions:     deps.Extractions,
		links:           deps.Links,
		client:          deps.Client,
		renderer:        deps.Renderer,
		batcher:         deps.Batcher,
		reservations:    deps.Reservations,
		providerFileTTL: constants.ProviderFileTTL,
		waitPoll:        2 * time.Second,
	}
}

// Extract is the pipeline entry point.
func (s *Service) Extract(ctx context.Context, pdfBytes []byte, swimmerName string, meta Meta) (*Outcome, error) {
	start := time.Now()

	if len(pdfBytes) == 0 {
		return nil, common.NewAppError("INVALID_INPUT", "empty PDF payload", common.ErrInvalidInput)
	}
	swimmer := names.Normalize(swimmerName)
	if swimmer.FirstLast == "" {
		return nil, common.NewAppError("INVALID_INPUT", "swimmer name is required", common.ErrInvalidInput)
	}

	sum := checksum.Compute(pdfBytes)
	s.log.Info("pipeline.start",
		"checksum", sum,
		"swimmer", swimmer.FirstLast,
		"size_bytes", len(pdfBytes),
	)

	// Cache reads must complete before any model work. A store failure is
	// surfaced, never silently bypassed into a duplicate model spend.
	pdfRec, err := s.pdfs.GetByChecksum(ctx, sum)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: pdf lookup: %v", common.ErrCacheUnavailable, err)
	}
	if pdfRec != nil {
		if out, hit, err := s.lookupCached(ctx, pdfRec.ID, swimmer); err != nil {
			return nil, err
		} else if hit {
			s.log.Info("pipeline.cache.hit", "checksum", sum, "swimmer", swimmer.FirstLast,
				"elapsed_ms", time.Since(start).Milliseconds())
			return out, nil
		}
	}

	pdfRec, existed, err := s.pdfs.UpsertByChecksum(ctx, sum, meta.SourceURL, meta.Filename, len(pdfBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf upsert: %v", common.ErrCacheUnavailable, err)
	}
	if existed {
		s.log.Debug("pipeline.pdf.deduplicated", "pdf_id", pdfRec.ID, "checksum", sum)
	}

	if s.reservations != nil {
		acquired, err := s.reservations.Acquire(ctx, pdfRec.ID.String(), swimmer.Key())
		if err != nil {
			s.log.Warn("pipeline.reservation.unavailable", "error", err)
		} else if !acquired {
			if out, hit, err := s.awaitPeer(ctx, pdfRec.ID, swimmer); err != nil {
				return nil, err
			} else if hit {
				s.log.Info("pipeline.cache.hit_after_wait", "pdf_id", pdfRec.ID, "swimmer", swimmer.FirstLast)
				return out, nil
			}
			// Peer vanished without writing; fall through and compute.
		} else {
			defer func() {
				if rerr := s.reservations.Release(context.WithoutCancel(ctx), pdfRec.ID.String(), swimmer.Key()); rerr != nil {
					s.log.Warn("pipeline.reservation.release_failed", "error", rerr)
				}
			}()
			// Double-check after winning the reservation: a peer may have
			// written between our cache read and the acquire.
			if out, hit, err := s.lookupCached(ctx, pdfRec.ID, swimmer); err != nil {
				return nil, err
			} else if hit {
				return out, nil
			}
		}
	}

	result, err := s.runExtraction(ctx, pdfRec, pdfBytes, swimmer)
	if err != nil {
		// No partial cache write on an aborted extraction.
		return nil, err
	}

	removed := match.FilterResult(result, swimmer)
	if removed > 0 {
		s.log.Warn("pipeline.filtered_events", "removed", removed, "swimmer", swimmer.FirstLast)
	}
	llm.SortEvents(result.Events)

	// An empty-but-valid result is still cached so a repeat query does not
	// re-pay the model cost.
	ext, created, err := s.extractions.Create(ctx, pdfRec.ID, swimmer.Key(), swimmer.FirstLast, result)
	if err != nil {
		return nil, fmt.Errorf("%w: extraction write: %v", common.ErrCacheUnavailable, err)
	}
	if !created {
		s.log.Info("pipeline.cache.concurrent_write", "extraction_id", ext.ID)
	}

	out, err := s.finish(ctx, ext, false)
	if err != nil {
		return nil, err
	}
	s.log.Info("pipeline.ok",
		"extraction_id", ext.ID,
		"events", len(ext.Result.Events),
		"cached", false,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// lookupCached checks the extraction cache and, on a hit, short-circuits the
// pipeline before any rendering, prompting, or model call.
func (s *Service) lookupCached(ctx context.Context, pdfID uuid.UUID, swimmer names.Normalized) (*Outcome, bool, error) {
	ext, err := s.extractions.Get(ctx, pdfID, swimmer.Key())
	if errors.Is(err, common.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: extraction lookup: %v", common.ErrCacheUnavailable, err)
	}
	out, err := s.finish(ctx, ext, true)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// awaitPeer polls the extraction cache while another process holds the
// reservation. If the reservation lapses without a result (peer crashed or
// its extraction failed), the waiter gives up waiting and computes itself.
func (s *Service) awaitPeer(ctx context.Context, pdfID uuid.UUID, swimmer names.Normalized) (*Outcome, bool, error) {
	s.log.Info("pipeline.reservation.waiting", "pdf_id", pdfID, "swimmer", swimmer.FirstLast)
	deadline := time.Now().Add(s.reservations.TTL())

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(s.waitPoll):
		}

		if out, hit, err := s.lookupCached(ctx, pdfID, swimmer); err != nil {
			return nil, false, err
		} else if hit {
			return out, true, nil
		}

		held, err := s.reservations.Held(ctx, pdfID.String(), swimmer.Key())
		if err != nil {
			s.log.Warn("pipeline.reservation.check_failed", "error", err)
			return nil, false, nil
		}
		if !held {
			return nil, false, nil
		}
	}
	return nil, false, nil
}

// runExtraction branches on the model's input capabilities and produces the
// raw (pre-filter) result.
func (s *Service) runExtraction(ctx context.Context, pdfRec *entity.PDFFile, pdfBytes []byte, swimmer names.Normalized) (*llm.ExtractionResult, error) {
	prompt := llm.BuildExtractionPrompt(llm.PromptRequest{
		Swimmer:        swimmer,
		ExpectedEvents: s.expectedEvents(ctx, pdfBytes, swimmer),
	})

	if constants.SupportsNativeFile(s.client.Model()) {
		return s.extractNative(ctx, pdfRec, pdfBytes, prompt)
	}
	return s.extractImages(ctx, pdfBytes, prompt)
}

// expectedEvents runs the cheap text pre-scan. Any failure (scanned PDF, no
// text layer, rasterizer down) degrades to "no hint" rather than aborting.
func (s *Service) expectedEvents(ctx context.Context, pdfBytes []byte, swimmer names.Normalized) int {
	if s.renderer == nil {
		return 0
	}
	occ, err := s.renderer.CountNameOccurrences(ctx, pdfBytes, swimmer.FirstLast)
	if err != nil {
		s.log.Warn("pipeline.prescan.failed", "error", err)
		return 0
	}
	if occ.Count > 0 {
		s.log.Info("pipeline.prescan.hint", "occurrences", occ.Count, "pages", len(occ.Pages))
	}
	return occ.Count
}

func (s *Service) extractNative(ctx context.Context, pdfRec *entity.PDFFile, pdfBytes []byte, prompt string) (*llm.ExtractionResult, error) {
	fileID := pdfRec.ProviderFileID
	if repository.ProviderFileStale(pdfRec, s.providerFileTTL, time.Now()) {
		filename := pdfRec.Filename
		if filename == "" {
			filename = pdfRec.Checksum + ".pdf"
		}
		uploaded, err := s.client.UploadFile(ctx, filename, pdfBytes)
		if err != nil {
			return nil, fmt.Errorf("upload pdf to provider: %w", err)
		}
		if err := s.pdfs.SetProviderFile(ctx, pdfRec.ID, uploaded); err != nil {
			return nil, fmt.Errorf("%w: record provider file: %v", common.ErrCacheUnavailable, err)
		}
		fileID = uploaded
	} else {
		s.log.Info("pipeline.provider_file.reused", "pdf_id", pdfRec.ID, "file_id", fileID)
	}

	return s.client.ExtractWithFile(ctx, fileID, prompt)
}

func (s *Service) extractImages(ctx context.Context, pdfBytes []byte, prompt string) (*llm.ExtractionResult, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("model %q needs rendered images but no renderer is configured", s.client.Model())
	}
	pages, err := s.renderer.RenderPages(ctx, pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("render pdf pages: %w", err)
	}
	s.log.Info("pipeline.rendered", "pages", len(pages))

	partials, err := s.batcher.ExtractAll(ctx, pages, prompt)
	if err != nil {
		return nil, err
	}
	return batch.Merge(partials), nil
}

// finish mints the shareable code and assembles the outcome envelope.
func (s *Service) finish(ctx context.Context, ext *entity.Extraction, cached bool) (*Outcome, error) {
	link, err := s.links.Mint(ctx, ext.ID)
	if err != nil {
		return nil, fmt.Errorf("mint result link: %w", err)
	}
	result := ext.Result
	return &Outcome{
		ExtractionID: ext.ID,
		Result:       &result,
		ResultCode:   link.Code,
		Cached:       cached,
	}, nil
}
