package format

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nikbrunner/xbm/internal/model"
)

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// RewriteCitations turns [n] markers into links to the n-th bookmark (1-indexed).
// Markers already followed by "(" are left alone, as are out-of-range ones.
func RewriteCitations(text string, c model.Collection) string {
	matches := citationPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if end < len(text) && text[end] == '(' {
			continue
		}

		b.WriteString(text[last:start])
		last = end

		marker := text[start:end]
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n < 1 || n > len(c) {
			b.WriteString(marker)
			continue
		}
		b.WriteString(marker)
		b.WriteByte('(')
		b.WriteString(c[n-1].CitationURL())
		b.WriteByte(')')
	}
	b.WriteString(text[last:])
	return b.String()
}
