// heatsheetd is the extraction service daemon: HTTP API in front of the
// cached heat-sheet pipeline.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swimline/heatsheet/constants"
	"github.com/swimline/heatsheet/internal/batch"
	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/export"
	"github.com/swimline/heatsheet/internal/inflight"
	"github.com/swimline/heatsheet/internal/llm/openai"
	"github.com/swimline/heatsheet/internal/pipeline"
	"github.com/swimline/heatsheet/internal/renderer"
	"github.com/swimline/heatsheet/internal/repository"
	"github.com/swimline/heatsheet/internal/retry"
	"github.com/swimline/heatsheet/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout); err != nil {
		logger.Error("db health failed", "error", err)
		os.Exit(1)
	}
	logger.Info("db health ok")

	pdfs := repository.NewPDFFileRepository(pool, logger)
	extractions := repository.NewExtractionRepository(pool, logger)
	links := repository.NewResultLinkRepository(pool, logger)

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	rend := renderer.NewClient(cfg.Renderer.BaseURL, cfg.Renderer.Timeout)

	batcher := batch.New(client, logger,
		batch.WithBatchPages(cfg.Extract.BatchPages),
		batch.WithStagger(cfg.Extract.BatchStagger),
		batch.WithPolicy(retry.Policy{
			MaxAttempts: cfg.Extract.MaxAttempts,
			BaseDelay:   cfg.Extract.RetryBase,
			Multiplier:  constants.DefaultRetryMultiple,
		}),
	)

	// The reservation store is optional; without Redis, concurrent first
	// requests for the same PDF may both pay for a model call.
	var reservations *inflight.Reservations
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		reservations = inflight.New(redisClient, 5*time.Minute)
		if err := reservations.Ping(ctx); err != nil {
			logger.Error("redis health failed", "error", err)
			os.Exit(1)
		}
		logger.Info("redis health ok", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("REDIS_ADDR not set, in-flight reservations disabled")
	}

	svc := pipeline.NewService(pipeline.Deps{
		Logger:       logger,
		PDFs:         pdfs,
		Extractions:  extractions,
		Links:        links,
		Client:       client,
		Renderer:     rend,
		Batcher:      batcher,
		Reservations: reservations,
	})

	exporter := export.NewService(extractions, logger)
	results := server.NewResultStore(links, extractions)

	health := func(ctx context.Context) error {
		if err := repository.HealthCheck(ctx, pool, 3*time.Second); err != nil {
			return err
		}
		if reservations != nil {
			return reservations.Ping(ctx)
		}
		return nil
	}

	srv := server.New(server.Config{
		Addr:        cfg.Server.Addr,
		MaxPDFBytes: constants.MaxPDFSizeBytes,
	}, svc, results, exporter, health, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http serve", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
