package tui

import (
	"strings"

	"github.com/nikbrunner/xbm/internal/model"
)

// Item is one bookmark row in the list.
type Item struct {
	Bookmark model.Bookmark
}

// Title returns the first line of the post text without t.co links,
// cut to width runes.
func (i Item) Title(width int) string {
	text := i.Bookmark.CleanText()
	if line, _, found := strings.Cut(text, "\n"); found {
		text = line
	}
	if text == "" {
		text = "(no text)"
	}
	return truncate(text, width)
}

// Meta returns "@user · date".
func (i Item) Meta() string {
	date := i.Bookmark.Timestamp
	if t := i.Bookmark.Time(); !t.IsZero() {
		date = t.Format("2006-01-02 15:04")
	}
	return "@" + i.Bookmark.Username + " · " + date
}

// MediaLabel returns the media type, or "" for text-only posts.
func (i Item) MediaLabel() string {
	if !i.Bookmark.HasMedia() {
		return ""
	}
	return strings.ReplaceAll(string(i.Bookmark.Media.Type), "_", " ")
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
