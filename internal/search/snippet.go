package search

import (
	"strings"
	"unicode/utf8"
)

// Snippet extracts a window of content around the first case-insensitive
// occurrence of query, keeping contextChars on each side. Ellipses mark
// truncation at either end. When the query does not occur verbatim the
// leading 2x contextChars of the document are returned instead. Window
// edges are snapped to rune boundaries so multi-byte text is never cut
// mid-character.
func Snippet(content, query string, contextChars int) string {
	if content == "" {
		return ""
	}
	if contextChars <= 0 {
		contextChars = DefaultSnippetContext
	}

	pos := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if pos < 0 || query == "" {
		end := snapForward(content, 2*contextChars)
		if end >= len(content) {
			return content
		}
		return content[:end] + "..."
	}

	start := snapBack(content, pos-contextChars)
	end := snapForward(content, pos+len(query)+contextChars)

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet += "..."
	}
	return snippet
}

// snapBack moves i left to the start of the rune it points into.
func snapBack(s string, i int) int {
	if i <= 0 {
		return 0
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// snapForward moves i right to the next rune boundary (or the end).
func snapForward(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
