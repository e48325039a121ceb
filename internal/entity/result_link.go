package entity

import (
	"time"

	"github.com/google/uuid"
)

// ResultLink maps a short shareable code to an extraction. One live code per
// extraction; minting is idempotent.
type ResultLink struct {
	Code         string     `json:"code"`
	ExtractionID uuid.UUID  `json:"extraction_id"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}
