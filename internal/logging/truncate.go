package logging

import (
	"strconv"
	"unicode/utf8"
)

// MaxLogFieldLength caps string fields such as response bodies in log entries
const MaxLogFieldLength = 256

// Truncate shortens s to MaxLogFieldLength bytes, marking the cut with "..."
func Truncate(s string) string {
	return TruncateN(s, MaxLogFieldLength)
}

// TruncateN shortens s to at most n bytes without splitting a UTF-8 sequence,
// marking the cut with "..."
func TruncateN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n < 0 {
		n = 0
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// TruncateSlice keeps the first maxItems entries and summarizes the rest
func TruncateSlice(items []string, maxItems int) []string {
	if len(items) <= maxItems {
		return items
	}
	out := make([]string, 0, maxItems+1)
	out = append(out, items[:maxItems]...)
	return append(out, "... and "+strconv.Itoa(len(items)-maxItems)+" more")
}
