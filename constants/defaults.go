package constants

import "time"

// Batch extraction defaults for the rendered-image path.
const (
	DefaultBatchPages    = 5
	DefaultBatchStagger  = 500 * time.Millisecond
	DefaultMaxAttempts   = 3
	DefaultRetryBase     = 2 * time.Second
	DefaultRetryMultiple = 2.0
)

// ProviderFileTTL is how long an uploaded provider file handle stays valid.
// We refresh a day early rather than racing the provider's cleanup.
const ProviderFileTTL = 29 * 24 * time.Hour

// ShortCodeLength is the length of minted result codes (base62).
const ShortCodeLength = 8

// MaxPDFSizeBytes caps uploads; heat sheets above this are rejected up front.
const MaxPDFSizeBytes = 50 * 1024 * 1024
