package format

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	headingPrefix = regexp.MustCompile(`(?m)^(#{1,6})\s*`)
)

// SanitizeMarkdown strips angle brackets and puts exactly one space after
// a leading run of "#". It must run before markdown parsing.
func SanitizeMarkdown(text string) string {
	text = angleBrackets.ReplaceAllString(text, "")
	text = headingPrefix.ReplaceAllString(text, "${1} ")
	return strings.TrimSpace(text)
}

// StripControl removes escape sequences and control characters other than
// newline and tab, so model output cannot drive the terminal.
func StripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, ansi.Strip(text))
}
