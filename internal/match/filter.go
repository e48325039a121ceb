// Package match is the last line of defense against the model returning a
// similar-but-wrong swimmer despite the prompt instructions.
package match

import (
	"fmt"
	"strings"

	"github.com/swimline/heatsheet/internal/llm"
	"github.com/swimline/heatsheet/internal/names"
)

// FilterResult drops events whose swimmer does not normalize to the requested
// name. It runs unconditionally after every extraction path, including ahead
// of a cache write. Removed names are collected into a single warning.
func FilterResult(res *llm.ExtractionResult, requested names.Normalized) int {
	kept := res.Events[:0]
	var removedNames []string
	seen := make(map[string]struct{})
	removed := 0

	for _, ev := range res.Events {
		if names.Matches(ev.SwimmerName, requested.FirstLast) {
			kept = append(kept, ev)
			continue
		}
		removed++
		key := strings.ToLower(strings.TrimSpace(ev.SwimmerName))
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			removedNames = append(removedNames, ev.SwimmerName)
		}
	}

	res.Events = kept
	if removed > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Filtered %d event(s) for different swimmer(s): %s",
			removed, strings.Join(removedNames, ", "),
		))
	}
	return removed
}
