package dom

import "strings"

// Ellipsis is appended to truncated text. It is a single rune, so a
// truncated result is exactly limit+1 runes long.
const Ellipsis = "…"

// SnippetLimit is the fixed cap applied to element text snippets.
const SnippetLimit = 80

// Truncate collapses runs of whitespace in s to single spaces, trims the
// result, and cuts it to at most limit runes. The ellipsis marker is
// appended only when a cut actually happened, so the returned string is at
// most limit+1 runes long and exactly limit+1 iff the collapsed input
// exceeded the limit. Negative limits are clamped to zero.
func Truncate(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	collapsed := strings.Join(strings.Fields(s), " ")
	if limit == 0 {
		if collapsed == "" {
			return ""
		}
		return Ellipsis
	}
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	return string(runes[:limit]) + Ellipsis
}
