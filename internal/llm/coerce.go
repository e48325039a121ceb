package llm

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/swimline/heatsheet/internal/common"
)

// Sentinels used when the model omits a required field. Coercion is the only
// place defaults are applied; nothing downstream re-defaults.
const (
	UnknownMeet  = "Unknown Meet"
	UnknownDate  = "Unknown Date"
	UnknownEvent = "Unknown Event"
)

// ParseModelOutput turns the raw assistant content into a typed result.
//
// Payloads that validate against the schema are unmarshalled directly. Anything
// else that is still parseable JSON goes through field-by-field coercion, so a
// partially malformed response never crashes the pipeline. Content that is not
// JSON at all is a hard MalformedOutputError.
func ParseModelOutput(raw []byte) (*ExtractionResult, error) {
	content := stripCodeFence(raw)

	if err := validateAgainstSchema(BuildEventsJSONSchema(), content); err == nil {
		var out ExtractionResult
		if uerr := json.Unmarshal(content, &out); uerr == nil {
			if out.Events == nil {
				out.Events = []SwimEvent{}
			}
			return &out, nil
		}
	}

	var m map[string]any
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, &common.MalformedOutputError{Raw: string(content), Reason: err.Error()}
	}
	return coerceResult(m), nil
}

// stripCodeFence removes a markdown ```json fence if the model wrapped its
// payload in one despite the json_object response format.
func stripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return []byte(strings.TrimSpace(s))
}

func coerceResult(m map[string]any) *ExtractionResult {
	out := &ExtractionResult{
		MeetName:    strOr(m, "meet_name", UnknownMeet),
		SessionDate: strOr(m, "session_date", UnknownDate),
		Venue:       strOr(m, "venue", ""),
		Events:      []SwimEvent{},
	}

	if r, ok := m["meet_date_range"].(map[string]any); ok {
		dr := &DateRange{Start: strOr(r, "start", ""), End: strOr(r, "end", "")}
		if dr.Start != "" || dr.End != "" {
			out.MeetDateRange = dr
		}
	}

	if evs, ok := m["events"].([]any); ok {
		for _, e := range evs {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			out.Events = append(out.Events, SwimEvent{
				EventNumber:   intOr(em, "event_number"),
				EventName:     strOr(em, "event_name", UnknownEvent),
				HeatNumber:    intOr(em, "heat_number"),
				Lane:          intOr(em, "lane"),
				SwimmerName:   strOr(em, "swimmer_name", ""),
				Age:           intOr(em, "age"),
				Team:          strOr(em, "team", ""),
				SeedTime:      strOr(em, "seed_time", ""),
				HeatStartTime: strOr(em, "heat_start_time", ""),
			})
		}
	}

	if ws, ok := m["warnings"].([]any); ok {
		for _, w := range ws {
			if s, ok := w.(string); ok && s != "" {
				out.Warnings = append(out.Warnings, s)
			}
		}
	}
	return out
}

func strOr(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return def
}

// intOr accepts JSON numbers and numeric strings; anything else is 0.
func intOr(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n := 0
		for _, c := range v {
			if c < '0' || c > '9' {
				return 0
			}
			n = n*10 + int(c-'0')
		}
		return n
	default:
		return 0
	}
}

// SortEvents orders events by (event_number, heat_number, lane) ascending.
func SortEvents(events []SwimEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.EventNumber != b.EventNumber {
			return a.EventNumber < b.EventNumber
		}
		if a.HeatNumber != b.HeatNumber {
			return a.HeatNumber < b.HeatNumber
		}
		return a.Lane < b.Lane
	})
}
