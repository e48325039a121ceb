package llm

// BuildEventsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is embedded in the prompt as the output contract and used
// locally to decide whether the model's payload needs field coercion.
func BuildEventsJSONSchema() map[string]any {
	eventProps := map[string]any{
		"event_number":    map[string]any{"type": "integer", "minimum": 0},
		"event_name":      map[string]any{"type": "string"},
		"heat_number":     map[string]any{"type": "integer", "minimum": 0},
		"lane":            map[string]any{"type": "integer", "minimum": 0},
		"swimmer_name":    map[string]any{"type": "string"},
		"age":             map[string]any{"type": "integer", "minimum": 0},
		"team":            map[string]any{"type": "string"},
		"seed_time":       map[string]any{"type": "string"},
		"heat_start_time": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"meet_name":    map[string]any{"type": "string"},
			"session_date": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"meet_date_range": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"start": map[string]any{"type": "string"},
					"end":   map[string]any{"type": "string"},
				},
			},
			"venue": map[string]any{"type": "string"},
			"events": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           eventProps,
					"required":             []string{"event_number", "event_name", "heat_number", "lane", "swimmer_name"},
				},
			},
			"warnings": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"meet_name", "session_date", "events"},
	}
}
