// extract runs one extraction from the command line: a PDF path and a swimmer
// name in, the cached-or-fresh event list as JSON on stdout. Useful for
// prompt tuning without the HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/swimline/heatsheet/constants"
	"github.com/swimline/heatsheet/internal/batch"
	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/llm/openai"
	"github.com/swimline/heatsheet/internal/pipeline"
	"github.com/swimline/heatsheet/internal/renderer"
	"github.com/swimline/heatsheet/internal/repository"
	"github.com/swimline/heatsheet/internal/retry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 3 {
		logger.Error("usage: extract <pdf_path> <swimmer_name>")
		os.Exit(2)
	}
	pdfPath := os.Args[1]
	swimmer := os.Args[2]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		logger.Error("read pdf", "path", pdfPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	rend := renderer.NewClient(cfg.Renderer.BaseURL, cfg.Renderer.Timeout)
	if pages, perr := rend.CountPages(ctx, pdfBytes); perr != nil {
		logger.Warn("page count unavailable", "error", perr)
	} else {
		logger.Info("document loaded", "pages", pages, "size_bytes", len(pdfBytes))
	}

	svc := pipeline.NewService(pipeline.Deps{
		Logger:      logger,
		PDFs:        repository.NewPDFFileRepository(pool, logger),
		Extractions: repository.NewExtractionRepository(pool, logger),
		Links:       repository.NewResultLinkRepository(pool, logger),
		Client:      client,
		Renderer:    rend,
		Batcher: batch.New(client, logger,
			batch.WithBatchPages(cfg.Extract.BatchPages),
			batch.WithStagger(cfg.Extract.BatchStagger),
			batch.WithPolicy(retry.Policy{
				MaxAttempts: cfg.Extract.MaxAttempts,
				BaseDelay:   cfg.Extract.RetryBase,
				Multiplier:  constants.DefaultRetryMultiple,
			}),
		),
	})

	out, err := svc.Extract(ctx, pdfBytes, swimmer, pipeline.Meta{Filename: filepath.Base(pdfPath)})
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	logger.Info("extraction done",
		"cached", out.Cached,
		"events", len(out.Result.Events),
		"result_code", out.ResultCode,
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
