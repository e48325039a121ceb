package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swimline/heatsheet/internal/common"
	"github.com/swimline/heatsheet/internal/entity"
)

// PDFFileRepository is the PDF cache store: checksum -> cached metadata plus
// the optional provider-side file handle.
type PDFFileRepository interface {
	// GetByChecksum returns common.ErrNotFound when the PDF was never seen.
	GetByChecksum(ctx context.Context, checksum string) (*entity.PDFFile, error)
	// UpsertByChecksum inserts on first sight or refreshes last_accessed_at.
	// The unique constraint on checksum makes this race-safe under concurrent
	// first-sight uploads. Returns the row and whether it already existed.
	UpsertByChecksum(ctx context.Context, checksum, sourceURL, filename string, fileSize int) (*entity.PDFFile, bool, error)
	// SetProviderFile mutates the provider handle after an upload or refresh.
	SetProviderFile(ctx context.Context, id uuid.UUID, providerFileID string) error
}

type pdfFileRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPDFFileRepository(pool *pgxpool.Pool, logger *slog.Logger) PDFFileRepository {
	return &pdfFileRepo{pool: pool, logger: logger}
}

const pdfFileColumns = `id, checksum, source_url, filename, file_size, provider_file_id, provider_uploaded_at, created_at, last_accessed_at`

func scanPDFFile(row pgx.Row) (*entity.PDFFile, error) {
	var f entity.PDFFile
	err := row.Scan(
		&f.ID, &f.Checksum, &f.SourceURL, &f.Filename, &f.FileSize,
		&f.ProviderFileID, &f.ProviderUploadedAt, &f.CreatedAt, &f.LastAccessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *pdfFileRepo) GetByChecksum(ctx context.Context, checksum string) (*entity.PDFFile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+pdfFileColumns+` FROM pdf_files WHERE checksum = $1`, checksum)
	f, err := scanPDFFile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get pdf file by checksum", "checksum", checksum, "error", err)
		return nil, err
	}
	return f, nil
}

func (r *pdfFileRepo) UpsertByChecksum(ctx context.Context, checksum, sourceURL, filename string, fileSize int) (*entity.PDFFile, bool, error) {
	// created_at survives the conflict update, so "already existed" falls out
	// of comparing it against last_accessed_at.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO pdf_files (id, checksum, source_url, filename, file_size, created_at, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (checksum) DO UPDATE SET last_accessed_at = now()
		RETURNING `+pdfFileColumns+`, (pdf_files.created_at < pdf_files.last_accessed_at) AS existed`,
		uuid.New(), checksum, sourceURL, filename, fileSize)

	var f entity.PDFFile
	var existed bool
	err := row.Scan(
		&f.ID, &f.Checksum, &f.SourceURL, &f.Filename, &f.FileSize,
		&f.ProviderFileID, &f.ProviderUploadedAt, &f.CreatedAt, &f.LastAccessedAt,
		&existed,
	)
	if err != nil {
		r.logger.Error("failed to upsert pdf file", "checksum", checksum, "error", err)
		return nil, false, err
	}
	return &f, existed, nil
}

func (r *pdfFileRepo) SetProviderFile(ctx context.Context, id uuid.UUID, providerFileID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pdf_files SET provider_file_id = $2, provider_uploaded_at = now()
		WHERE id = $1`, id, providerFileID)
	if err != nil {
		r.logger.Error("failed to set provider file id", "id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ProviderFileStale reports whether the handle needs a re-upload.
func ProviderFileStale(f *entity.PDFFile, ttl time.Duration, now time.Time) bool {
	if f.ProviderFileID == "" {
		return true
	}
	if f.ProviderUploadedAt == nil {
		return true
	}
	return now.Sub(*f.ProviderUploadedAt) > ttl
}
