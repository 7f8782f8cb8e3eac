// Package format turns streamed AI text into safe display HTML:
// citation rewrite, sanitize, markdown render, then an HTML allowlist.
package format

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/nikbrunner/xbm/internal/model"
)

// Formatter holds a configured renderer and policy. It is safe for
// concurrent use and cheap to call once per streamed chunk.
type Formatter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a Formatter.
func New() *Formatter {
	return &Formatter{md: newMarkdown(), policy: newPolicy()}
}

// Format renders accumulated answer text against the collection used as context.
// The result depends only on its inputs and never fails on partial markdown.
func (f *Formatter) Format(text string, c model.Collection) string {
	return f.Render(SanitizeMarkdown(RewriteCitations(text, c)))
}

// Render converts sanitized markdown to HTML.
func (f *Formatter) Render(markdown string) string {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(markdown), &buf); err != nil {
		// goldmark only fails on writer errors; fall back to escaped text
		return html.EscapeString(markdown)
	}
	return f.policy.Sanitize(buf.String())
}

var defaultFormatter = New()

// Format uses a shared Formatter.
func Format(text string, c model.Collection) string {
	return defaultFormatter.Format(text, c)
}
