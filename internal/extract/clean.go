package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	ruleArtifacts    = regexp.MustCompile(`[_|]{3,}`)
)

// Clean normalizes raw extracted text: line endings become LF, control
// characters other than newline and tab are dropped, scan artifacts made
// of underscore or pipe runs are removed, and runs of blank lines are
// collapsed to one blank line.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	text = b.String()

	text = ruleArtifacts.ReplaceAllString(text, "")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
