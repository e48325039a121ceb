package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swimline/heatsheet/internal/names"
)

func TestBuildExtractionPromptContainsBothNameForms(t *testing.T) {
	p := BuildExtractionPrompt(PromptRequest{Swimmer: names.Normalize("Liu, Elly")})
	assert.Contains(t, p, `"Elly Liu"`)
	assert.Contains(t, p, `"Liu, Elly"`)
	assert.Contains(t, p, "do not match phonetically similar names")
	assert.Contains(t, p, "JSON Schema:")
}

func TestBuildExtractionPromptExpectedCountHint(t *testing.T) {
	withHint := BuildExtractionPrompt(PromptRequest{
		Swimmer:        names.Normalize("Elly Liu"),
		ExpectedEvents: 4,
	})
	assert.Contains(t, withHint, "at least 4 event(s)")

	withoutHint := BuildExtractionPrompt(PromptRequest{Swimmer: names.Normalize("Elly Liu")})
	assert.NotContains(t, withoutHint, "at least")
}
