package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/swimline/heatsheet/internal/entity"
	"github.com/swimline/heatsheet/internal/repository"
)

// resultStore glues the link and extraction repositories behind the
// ResultStore surface the handlers use.
type resultStore struct {
	links       repository.ResultLinkRepository
	extractions repository.ExtractionRepository
}

func NewResultStore(links repository.ResultLinkRepository, extractions repository.ExtractionRepository) ResultStore {
	return &resultStore{links: links, extractions: extractions}
}

func (s *resultStore) Resolve(ctx context.Context, code string) (*entity.ResultLink, error) {
	return s.links.Resolve(ctx, code)
}

func (s *resultStore) GetExtraction(ctx context.Context, id uuid.UUID) (*entity.Extraction, error) {
	return s.extractions.GetByID(ctx, id)
}
