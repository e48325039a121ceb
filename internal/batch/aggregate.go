package batch

import (
	"github.com/swimline/heatsheet/internal/llm"
)

type eventKey struct {
	eventNumber int
	heatNumber  int
	lane        int
	swimmerName string
}

// Merge combines per-batch results into one. Meet-level metadata comes from
// the first batch (the earliest pages carry the title page); events are
// deduplicated by (event_number, heat_number, lane, swimmer_name) keeping the
// first occurrence in batch order, then sorted; warnings are unioned with
// exact-string deduplication in first-seen order.
func Merge(results []*llm.ExtractionResult) *llm.ExtractionResult {
	merged := &llm.ExtractionResult{Events: []llm.SwimEvent{}}
	if len(results) == 0 {
		return merged
	}

	first := results[0]
	merged.MeetName = first.MeetName
	merged.SessionDate = first.SessionDate
	merged.Venue = first.Venue
	if first.MeetDateRange != nil {
		dr := *first.MeetDateRange
		merged.MeetDateRange = &dr
	}

	seenEvents := make(map[eventKey]struct{})
	seenWarnings := make(map[string]struct{})
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, ev := range res.Events {
			key := eventKey{ev.EventNumber, ev.HeatNumber, ev.Lane, ev.SwimmerName}
			if _, dup := seenEvents[key]; dup {
				continue
			}
			seenEvents[key] = struct{}{}
			merged.Events = append(merged.Events, ev)
		}
		for _, w := range res.Warnings {
			if _, dup := seenWarnings[w]; dup {
				continue
			}
			seenWarnings[w] = struct{}{}
			merged.Warnings = append(merged.Warnings, w)
		}
	}

	llm.SortEvents(merged.Events)
	return merged
}
