package entity

import (
	"time"

	"github.com/google/uuid"
)

// PDFFile is the cached record for one unique heat-sheet document, keyed by
// the content checksum. At most one record exists per checksum.
type PDFFile struct {
	ID                 uuid.UUID  `json:"id"`
	Checksum           string     `json:"checksum"` // 32-hex digest of raw bytes
	SourceURL          string     `json:"source_url,omitempty"`
	Filename           string     `json:"filename,omitempty"`
	FileSize           int        `json:"file_size"`
	ProviderFileID     string     `json:"provider_file_id,omitempty"`
	ProviderUploadedAt *time.Time `json:"provider_uploaded_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	LastAccessedAt     time.Time  `json:"last_accessed_at"`
}
