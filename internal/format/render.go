package format

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Classes applied to rendered elements.
const (
	LinkClass    = "text-[#1d9bf0] hover:underline"
	DividerClass = "my-4 border-[#2f3336]"
	LinkTarget   = "_blank"
	LinkRel      = "noopener noreferrer"
)

// decorator sets link and divider attributes on the parsed document.
type decorator struct{}

func (decorator) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink:
			n.SetAttributeString("target", []byte(LinkTarget))
			n.SetAttributeString("rel", []byte(LinkRel))
			n.SetAttributeString("class", []byte(LinkClass))
		case ast.KindThematicBreak:
			n.SetAttributeString("class", []byte(DividerClass))
		}
		return ast.WalkContinue, nil
	})
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(decorator{}, 100)),
		),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
}

// newPolicy allows what the markdown renderer emits and nothing else.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardAttributes()
	p.AllowElements("p", "br", "strong", "em", "del", "code", "pre", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6", "hr")
	p.AllowLists()
	p.AllowTables()
	p.AllowAttrs("align").OnElements("th", "td")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")

	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^[a-z ]+$`)).OnElements("a")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\-\[\]#: ]+$`)).OnElements("a", "hr")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w-]+$`)).OnElements("code")

	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	return p
}
