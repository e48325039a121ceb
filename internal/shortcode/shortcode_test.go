package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimline/heatsheet/constants"
)

func TestNewLengthAndAlphabet(t *testing.T) {
	code, err := New()
	require.NoError(t, err)
	assert.Len(t, code, constants.ShortCodeLength)
	for _, c := range code {
		assert.True(t, strings.ContainsRune(alphabet, c), "unexpected char %q", c)
	}
}

func TestGenerateUsesFullAlphabetEvenly(t *testing.T) {
	counts := make(map[rune]int, len(alphabet))
	const draws = 5000
	for i := 0; i < draws; i++ {
		code, err := generate(constants.ShortCodeLength)
		require.NoError(t, err)
		for _, c := range code {
			counts[c]++
		}
	}

	// Every character appears, and none dominates: with rejection sampling the
	// per-character count concentrates tightly around total/62.
	require.Len(t, counts, len(alphabet))
	mean := float64(draws*constants.ShortCodeLength) / float64(len(alphabet))
	for c, n := range counts {
		assert.Greater(t, float64(n), mean*0.5, "char %q underrepresented", c)
		assert.Less(t, float64(n), mean*1.5, "char %q overrepresented", c)
	}
}

func TestNewDoesNotRepeat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := New()
		require.NoError(t, err)
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %s after %d draws", code, i)
		seen[code] = struct{}{}
	}
}
