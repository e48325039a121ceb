package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/swimline/heatsheet/internal/llm"
)

// Extraction is one cached extraction result, unique per
// (pdf_id, normalized_name). Immutable once created: a cache hit never
// mutates it, and a different swimmer or PDF always produces a new record.
type Extraction struct {
	ID             uuid.UUID            `json:"id"`
	PDFID          uuid.UUID            `json:"pdf_id"`
	NormalizedName string               `json:"normalized_name"`
	DisplayName    string               `json:"display_name"`
	Result         llm.ExtractionResult `json:"result"`
	CreatedAt      time.Time            `json:"created_at"`
}
