// Package names canonicalizes human-entered swimmer names. Heat sheets print
// names as "Last, First" while users usually type "First Last"; both cache keys
// and post-filtering depend on the two forms comparing equal.
package names

import "strings"

// Normalized holds both canonical forms of a swimmer name.
type Normalized struct {
	First     string
	Last      string
	FirstLast string // "First Last"
	LastFirst string // "Last, First"
}

// Normalize parses a free-text name into its canonical forms.
//
// A comma splits last from first ("Liu, Elly"). Without a comma the final
// whitespace token is the last name and everything before it the first name,
// so multi-word first names survive. A single token is used verbatim for both
// forms.
func Normalize(input string) Normalized {
	s := strings.Join(strings.Fields(input), " ")

	if i := strings.Index(s, ","); i >= 0 {
		last := strings.TrimSpace(s[:i])
		first := strings.TrimSpace(s[i+1:])
		return build(first, last)
	}

	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return Normalized{}
	case 1:
		return Normalized{First: fields[0], Last: fields[0], FirstLast: fields[0], LastFirst: fields[0]}
	default:
		last := fields[len(fields)-1]
		first := strings.Join(fields[:len(fields)-1], " ")
		return build(first, last)
	}
}

func build(first, last string) Normalized {
	if first == "" {
		return Normalized{First: last, Last: last, FirstLast: last, LastFirst: last}
	}
	return Normalized{
		First:     first,
		Last:      last,
		FirstLast: first + " " + last,
		LastFirst: last + ", " + first,
	}
}

// Key returns the case-folded form used as the extraction cache key component.
func (n Normalized) Key() string {
	return strings.ToLower(n.FirstLast)
}

// Matches reports whether two free-text names normalize to the same swimmer.
// This is the sole equality contract for cache keys and post-filtering.
func Matches(a, b string) bool {
	return strings.EqualFold(Normalize(a).FirstLast, Normalize(b).FirstLast)
}
