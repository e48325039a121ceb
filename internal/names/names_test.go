package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		firstLast string
		lastFirst string
	}{
		{"first last", "John Smith", "John Smith", "Smith, John"},
		{"last comma first", "Smith, John", "John Smith", "Smith, John"},
		{"comma no space", "Smith,John", "John Smith", "Smith, John"},
		{"multi-word first", "Mary Jane Watson", "Mary Jane Watson", "Watson, Mary Jane"},
		{"single token", "Cher", "Cher", "Cher"},
		{"extra whitespace", "  Elly   Liu ", "Elly Liu", "Liu, Elly"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.input)
			assert.Equal(t, tt.firstLast, n.FirstLast)
			assert.Equal(t, tt.lastFirst, n.LastFirst)
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("Smith, John", "John Smith"))
	assert.True(t, Matches("john smith", "JOHN SMITH"))
	assert.True(t, Matches("Liu, Elly", "Elly Liu"))
	assert.False(t, Matches("Liu, Elly", "Liu, Elsa"))
	assert.False(t, Matches("John Smith", "John Smyth"))
}

func TestKeyIsCaseFolded(t *testing.T) {
	assert.Equal(t, Normalize("SMITH, John").Key(), Normalize("john smith").Key())
}
