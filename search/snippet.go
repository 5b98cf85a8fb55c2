package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultSnippetWindow is the snippet width, in characters, used when none is given.
	DefaultSnippetWindow = 150

	// Ellipsis marks text cut from either side of a snippet.
	Ellipsis = "..."
)

// ExtractContext returns a window of text around the first case-insensitive
// occurrence of query. Without a match it returns the start of text.
// Ellipsis marks each side where text was cut. Lengths count characters,
// not bytes. window <= 0 uses DefaultSnippetWindow.
func ExtractContext(text, query string, window int) string {
	if window <= 0 {
		window = DefaultSnippetWindow
	}

	runes := []rune(text)
	query = strings.TrimSpace(query)
	pos := -1
	if query != "" && len(runes) > 0 {
		pos = indexFold(runes, []rune(query))
	}

	if pos < 0 {
		if len(runes) <= window {
			return string(runes)
		}
		return string(runes[:window]) + Ellipsis
	}

	half := window / 2
	start := max(pos-half, 0)
	end := min(pos+utf8.RuneCountInString(query)+half, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString(Ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(Ellipsis)
	}
	return b.String()
}

// indexFold returns the rune offset of the first case-insensitive occurrence
// of needle in haystack, or -1. Folding is per rune so offsets stay aligned.
func indexFold(haystack, needle []rune) int {
	if len(needle) > len(haystack) {
		return -1
	}
	lowered := make([]rune, len(needle))
	for i, r := range needle {
		lowered[i] = unicode.ToLower(r)
	}

outer:
	for i := 0; i+len(lowered) <= len(haystack); i++ {
		for j, r := range lowered {
			if unicode.ToLower(haystack[i+j]) != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
