// Package exporter writes the archive as a Netscape bookmark file that
// browsers can import, one entry per post permalink.
package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/query"
)

// maxTitleLength caps entry titles in runes.
const maxTitleLength = 100

// Options controls the layout of the exported file.
type Options struct {
	GroupByUser bool // one folder per username, in first-seen order
}

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/x-bookmarks-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("x-bookmarks-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders c, in its given order, as Netscape bookmark HTML.
func ExportHTML(c model.Collection, opts Options) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>X Bookmarks</TITLE>\n")
	b.WriteString("<H1>X Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	if opts.GroupByUser {
		for _, username := range query.UniqueUsernames(c) {
			fmt.Fprintf(&b, "    <DT><H3>@%s</H3>\n", html.EscapeString(username))
			b.WriteString("    <DL><p>\n")
			for _, bm := range c {
				if bm.Username == username {
					writeEntry(&b, bm, 2)
				}
			}
			b.WriteString("    </DL><p>\n")
		}
	} else {
		for _, bm := range c {
			writeEntry(&b, bm, 1)
		}
	}

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String()
}

// ExportFile writes the export to path, creating parent directories.
func ExportFile(path string, c model.Collection, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(ExportHTML(c, opts)), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func writeEntry(b *strings.Builder, bm model.Bookmark, indent int) {
	prefix := strings.Repeat("    ", indent)

	fmt.Fprintf(b, "%s<DT><A HREF=\"%s\"", prefix, html.EscapeString(bm.Permalink()))
	if t := bm.Time(); !t.IsZero() {
		fmt.Fprintf(b, " ADD_DATE=\"%d\"", t.Unix())
	}
	fmt.Fprintf(b, ">%s</A>\n", html.EscapeString(entryTitle(bm)))
}

// entryTitle is the first line of the post, or "Post by @user" when it has no text.
func entryTitle(bm model.Bookmark) string {
	text := bm.CleanText()
	text, _, _ = strings.Cut(text, "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return "Post by @" + bm.Username
	}
	if r := []rune(text); len(r) > maxTitleLength {
		return string(r[:maxTitleLength-1]) + "…"
	}
	return text
}
