// Package format renders user-supplied text safely for Telegram HTML parse mode.
package format

import (
	"html"
	"strings"
)

// EscapeHTML escapes the characters Telegram's HTML mode treats as markup.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// Bold wraps escaped s in <b>.
func Bold(s string) string {
	return "<b>" + EscapeHTML(s) + "</b>"
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Lines joins non-empty parts with newlines.
func Lines(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
