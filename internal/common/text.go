package common

import "unicode/utf8"

// Truncate caps s at max bytes for logs and error messages, cutting on a
// rune boundary and marking the cut.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
