package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/entity"
	"github.com/swimline/heatsheet/internal/shortcode"
)

// mintAttempts bounds collision retries; at 62^8 codes a second collision in a
// row means something is very wrong with the RNG.
const mintAttempts = 5

// ResultLinkRepository mints and resolves shareable short codes. A given
// extraction maps to exactly one live code; minting is idempotent.
type ResultLinkRepository interface {
	// Mint returns the existing code for the extraction or creates one,
	// retrying with a fresh random code on a uniqueness collision.
	Mint(ctx context.Context, extractionID uuid.UUID) (*entity.ResultLink, error)
	// Resolve returns common.ErrNotFound for unknown codes.
	Resolve(ctx context.Context, code string) (*entity.ResultLink, error)
}

type resultLinkRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewResultLinkRepository(pool *pgxpool.Pool, logger *slog.Logger) ResultLinkRepository {
	return &resultLinkRepo{pool: pool, logger: logger}
}

const linkColumns = `code, extraction_id, created_at, expires_at`

func scanLink(row pgx.Row) (*entity.ResultLink, error) {
	var l entity.ResultLink
	if err := row.Scan(&l.Code, &l.ExtractionID, &l.CreatedAt, &l.ExpiresAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *resultLinkRepo) Mint(ctx context.Context, extractionID uuid.UUID) (*entity.ResultLink, error) {
	for attempt := 1; attempt <= mintAttempts; attempt++ {
		if link, err := r.getByExtraction(ctx, extractionID); err == nil {
			return link, nil
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}

		code, err := shortcode.New()
		if err != nil {
			return nil, err
		}

		// DO NOTHING covers both a code collision and a concurrent mint for
		// the same extraction; the loop re-reads to find out which.
		row := r.pool.QueryRow(ctx, `
			INSERT INTO result_links (code, extraction_id, created_at)
			VALUES ($1, $2, now())
			ON CONFLICT DO NOTHING
			RETURNING `+linkColumns,
			code, extractionID)
		link, err := scanLink(row)
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("short code insert conflict, retrying", "attempt", attempt, "extraction_id", extractionID)
			continue
		}
		if err != nil {
			r.logger.Error("failed to mint result link", "extraction_id", extractionID, "error", err)
			return nil, err
		}
		return link, nil
	}
	return nil, fmt.Errorf("minting short code failed after %d attempts", mintAttempts)
}

func (r *resultLinkRepo) getByExtraction(ctx context.Context, extractionID uuid.UUID) (*entity.ResultLink, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM result_links WHERE extraction_id = $1`, extractionID)
	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return link, err
}

func (r *resultLinkRepo) Resolve(ctx context.Context, code string) (*entity.ResultLink, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM result_links WHERE code = $1`, code)
	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to resolve result link", "code", code, "error", err)
		return nil, err
	}
	return link, nil
}
