// Package format holds text helpers for Telegram's HTML parse mode.
package format

import (
	"strings"
	"unicode/utf8"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as
// markup. Quotes are left alone so prompts read naturally.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// Truncate returns text unchanged when it is shorter than limit runes,
// otherwise the first limit runes with "..." appended. Rune based so
// multi-byte text never splits mid-character.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) < limit {
		return text
	}
	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}
