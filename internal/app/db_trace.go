package app

import (
	"strings"
	"unicode/utf8"
)

const maxTracedQueryLength = 512

// formatDBQueryForTrace flattens a statement onto one line for span
// attributes and caps its length.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSuffix(strings.Join(strings.Fields(query), " "), ";")
	if len(query) <= maxTracedQueryLength {
		return query
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut] + "..."
}
