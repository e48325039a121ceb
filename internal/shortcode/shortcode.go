// Package shortcode generates the URL-safe codes behind shareable result links.
package shortcode

import (
	"crypto/rand"
	"fmt"

	"github.com/swimline/heatsheet/constants"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// New returns a random base62 code of the standard length. Uniqueness is
// enforced by the store's constraint, not here; the minter retries on
// collision with a fresh code.
func New() (string, error) {
	return generate(constants.ShortCodeLength)
}

// maxUnbiased is the largest multiple of len(alphabet) that fits in a byte.
// Bytes at or above it are rejected so no alphabet character is favored.
const maxUnbiased = 256 - 256%len(alphabet)

func generate(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
