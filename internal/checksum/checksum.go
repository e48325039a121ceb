// Package checksum derives the content-addressable cache key for a PDF.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
)

// Compute returns the 32-hex digest of raw PDF bytes. The entire cache keys
// off this value, so it must never alias two different documents.
func Compute(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
