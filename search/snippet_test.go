package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContext(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		query    string
		window   int
		expected string
	}{
		{"missing query falls back to prefix", "abcdefghij", "missing", 4, "abcd..."},
		{"match in the middle", "The quick brown fox", "quick", 6, "...he quick br..."},
		{"match at start", "quick brown fox jumps", "quick", 4, "quick b..."},
		{"match at end", "the lazy dog", "dog", 4, "...y dog"},
		{"case insensitive", "Hello World", "WORLD", 2, "... World"},
		{"window covers text", "The quick brown fox", "quick", 100, "The quick brown fox"},
		{"short text without match", "short", "zzz", 150, "short"},
		{"empty text", "", "anything", 10, ""},
		{"empty query", "abcdefghij", "", 3, "abc..."},
		{"whitespace query", "abcdefghij", "  ", 3, "abc..."},
		{"exact fit", "abcd", "missing", 4, "abcd"},
		{"first occurrence wins", "cat one, cat two", "cat", 2, "cat ..."},
		{"characters not bytes", "héllo wörld ünïcode", "WÖRLD", 4, "...o wörld ü..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractContext(tt.text, tt.query, tt.window))
		})
	}
}

func TestExtractContext_DefaultWindow(t *testing.T) {
	text := strings.Repeat("a", 200)

	got := ExtractContext(text, "zzz", 0)
	assert.Equal(t, strings.Repeat("a", DefaultSnippetWindow)+Ellipsis, got)

	assert.Equal(t, got, ExtractContext(text, "zzz", -5))
}

func TestExtractContext_NeverPanics(t *testing.T) {
	texts := []string{"", "a", "\xff\xfe\xfd", "İstanbul", "ß", strings.Repeat("日本語", 100)}
	queries := []string{"", "a", "\xff", "i̇", "SS", "本", strings.Repeat("x", 500)}
	windows := []int{-1, 0, 1, 2, 3, 1000}

	for _, text := range texts {
		for _, query := range queries {
			for _, window := range windows {
				assert.NotPanics(t, func() {
					ExtractContext(text, query, window)
				}, "text=%q query=%q window=%d", text, query, window)
			}
		}
	}
}
