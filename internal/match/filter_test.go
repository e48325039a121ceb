package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimline/heatsheet/internal/llm"
	"github.com/swimline/heatsheet/internal/names"
)

func result(events ...llm.SwimEvent) *llm.ExtractionResult {
	return &llm.ExtractionResult{MeetName: "Meet", SessionDate: "2025-04-12", Events: events}
}

func TestFilterKeepsMatchingEvents(t *testing.T) {
	res := result(
		llm.SwimEvent{EventNumber: 1, SwimmerName: "Liu, Elly"},
		llm.SwimEvent{EventNumber: 2, SwimmerName: "Elly Liu"},
	)
	removed := FilterResult(res, names.Normalize("Elly Liu"))
	assert.Equal(t, 0, removed)
	assert.Len(t, res.Events, 2)
	assert.Empty(t, res.Warnings)
}

func TestFilterDropsDifferentSwimmer(t *testing.T) {
	res := result(llm.SwimEvent{EventNumber: 1, SwimmerName: "Elsa Liu"})
	removed := FilterResult(res, names.Normalize("Elly Liu"))
	assert.Equal(t, 1, removed)
	assert.Empty(t, res.Events)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Elsa Liu")
	assert.Contains(t, res.Warnings[0], "Filtered 1 event(s)")
}

func TestFilterDeduplicatesRemovedNames(t *testing.T) {
	res := result(
		llm.SwimEvent{EventNumber: 1, SwimmerName: "Elsa Liu"},
		llm.SwimEvent{EventNumber: 2, SwimmerName: "elsa liu"},
		llm.SwimEvent{EventNumber: 3, SwimmerName: "Bob Jones"},
		llm.SwimEvent{EventNumber: 4, SwimmerName: "Elly Liu"},
	)
	removed := FilterResult(res, names.Normalize("Liu, Elly"))
	assert.Equal(t, 3, removed)
	require.Len(t, res.Events, 1)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Filtered 3 event(s)")
	assert.Contains(t, res.Warnings[0], "Elsa Liu, Bob Jones")
	assert.NotContains(t, res.Warnings[0], "elsa liu,")
}
