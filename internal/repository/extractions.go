package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/entity"
	"github.com/swimline/heatsheet/internal/llm"
)

// ExtractionRepository is the extraction cache store, unique per
// (pdf_id, normalized_name). Records are immutable once created.
type ExtractionRepository interface {
	// Get returns common.ErrNotFound on a cache miss.
	Get(ctx context.Context, pdfID uuid.UUID, normalizedName string) (*entity.Extraction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Extraction, error)
	// Create inserts a new record. If a concurrent request won the race on the
	// unique pair, the existing record is returned with created=false; the
	// caller's result is discarded rather than overwriting the cache.
	Create(ctx context.Context, pdfID uuid.UUID, normalizedName, displayName string, result *llm.ExtractionResult) (*entity.Extraction, bool, error)
}

type extractionRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewExtractionRepository(pool *pgxpool.Pool, logger *slog.Logger) ExtractionRepository {
	return &extractionRepo{pool: pool, logger: logger}
}

const extractionColumns = `id, pdf_id, normalized_name, display_name, result, created_at`

func scanExtraction(row pgx.Row) (*entity.Extraction, error) {
	var e entity.Extraction
	var resultJSON []byte
	if err := row.Scan(&e.ID, &e.PDFID, &e.NormalizedName, &e.DisplayName, &resultJSON, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &e.Result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &e, nil
}

func (r *extractionRepo) Get(ctx context.Context, pdfID uuid.UUID, normalizedName string) (*entity.Extraction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+extractionColumns+` FROM extractions WHERE pdf_id = $1 AND normalized_name = $2`,
		pdfID, normalizedName)
	e, err := scanExtraction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get extraction", "pdf_id", pdfID, "normalized_name", normalizedName, "error", err)
		return nil, err
	}
	return e, nil
}

func (r *extractionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Extraction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+extractionColumns+` FROM extractions WHERE id = $1`, id)
	e, err := scanExtraction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get extraction by id", "id", id, "error", err)
		return nil, err
	}
	return e, nil
}

func (r *extractionRepo) Create(ctx context.Context, pdfID uuid.UUID, normalizedName, displayName string, result *llm.ExtractionResult) (*entity.Extraction, bool, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, false, fmt.Errorf("encode result: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO extractions (id, pdf_id, normalized_name, display_name, result, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (pdf_id, normalized_name) DO NOTHING
		RETURNING `+extractionColumns,
		uuid.New(), pdfID, normalizedName, displayName, resultJSON)

	e, err := scanExtraction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race; the first writer's record wins.
		existing, gerr := r.Get(ctx, pdfID, normalizedName)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	if err != nil {
		r.logger.Error("failed to create extraction", "pdf_id", pdfID, "normalized_name", normalizedName, "error", err)
		return nil, false, err
	}
	r.logger.Info("extraction cached", "extraction_id", e.ID, "pdf_id", pdfID, "events", len(e.Result.Events))
	return e, true, nil
}
