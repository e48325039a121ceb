package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/swimline/heatsheet/internal/names"
)

// PromptRequest carries everything the instruction text depends on.
type PromptRequest struct {
	Swimmer names.Normalized
	// ExpectedEvents is the advisory count from the text pre-scan; 0 means no
	// hint is available (scanned PDF, pre-scan failure, or no occurrences).
	ExpectedEvents int
}

// BuildExtractionPrompt assembles the single instruction string sent with
// every extraction call, on both the native-file and image paths.
func BuildExtractionPrompt(req PromptRequest) string {
	n := req.Swimmer

	parts := []string{
		"You are a swim-meet heat sheet parser. Return ONLY JSON that matches the JSON Schema below.",
		fmt.Sprintf(
			"Find every event for the swimmer %q (heat sheets may print this as %q).",
			n.FirstLast, n.LastFirst,
		),
		"Match both first and last name exactly; do not match on last name alone; do not match phonetically similar names.",

		// session date:
		"For 'session_date': use the meet start date plus the offset to the named session weekday " +
			"(e.g. a meet starting Friday with a 'Saturday' session is start date + 1 day). " +
			"If the session weekday cannot be found, use the meet start date and add a warning to 'warnings'.",

		// heat start times:
		"For 'heat_start_time': use the printed time if one exists. Otherwise estimate it as the previous " +
			"heat's start time plus the fastest seed time in that heat, recursively. If no heat in the event " +
			"has an anchor time, use \"unknown\".",

		// formatting hygiene:
		"Use 24-hour \"HH:MM\" for times and ISO-8601 (YYYY-MM-DD) for dates.",
		"Use \"NT\" for seed_time when the swimmer has no seed time.",
		"Never output null. If a field is not present, omit it.",
	}

	if req.ExpectedEvents > 0 {
		parts = append(parts, fmt.Sprintf(
			"The swimmer's name occurs %d time(s) in this document, so you must find at least %d event(s); "+
				"re-scan every page if you find fewer.",
			req.ExpectedEvents, req.ExpectedEvents,
		))
	}

	parts = append(parts, "JSON Schema:\n"+mustJSON(BuildEventsJSONSchema()))
	return strings.Join(parts, " ")
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
