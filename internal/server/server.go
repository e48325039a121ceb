// Package server exposes the extraction pipeline over HTTP: one endpoint to
// submit a PDF + swimmer name, one to resolve a shared result code, one to
// download the result as a spreadsheet.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/entity"
	"github.com/swimline/heatsheet/internal/pipeline"
)

// ExtractService is the pipeline behavior the HTTP layer needs.
type ExtractService interface {
	Extract(ctx context.Context, pdfBytes []byte, swimmerName string, meta pipeline.Meta) (*pipeline.Outcome, error)
}

// ResultStore resolves shared codes back to cached extractions.
type ResultStore interface {
	Resolve(ctx context.Context, code string) (*entity.ResultLink, error)
	GetExtraction(ctx context.Context, id uuid.UUID) (*entity.Extraction, error)
}

// Exporter produces the XLSX download for one extraction.
type Exporter interface {
	ExportEventsXLSX(ctx context.Context, extractionID uuid.UUID) ([]byte, error)
}

// HealthChecker reports backend liveness (database, reservation store).
type HealthChecker func(ctx context.Context) error

type Server struct {
	log      *slog.Logger
	extract  ExtractService
	results  ResultStore
	exporter Exporter
	health   HealthChecker

	maxPDFBytes int64
	srv         *http.Server
}

type Config struct {
	Addr        string
	MaxPDFBytes int64
}

func New(cfg Config, extract ExtractService, results ResultStore, exporter Exporter, health HealthChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:         logger,
		extract:     extract,
		results:     results,
		exporter:    exporter,
		health:      health,
		maxPDFBytes: cfg.MaxPDFBytes,
	}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router; exposed separately so tests can drive it with
// httptest without binding a port.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Get("/results/{code}", s.handleResult)
		r.Get("/results/{code}/export.xlsx", s.handleResultExport)
	})
	return r
}

// requestLogger threads the chi request ID into our context helpers and logs
// one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ctx := common.WithRequestID(r.Context(), reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.log.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Run starts the server and blocks until it stops.
func (s *Server) Run() error {
	s.log.Info("http.listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
