package importer

import (
	"strings"

	"github.com/nikbrunner/xbm/internal/model"
)

// Shape identifies which export format an item uses.
type Shape int

const (
	ShapeCanonical Shape = iota
	// ShapeAlternate is the "Twitter Bookmark Exporter" extension format:
	// author/link instead of username/media.
	ShapeAlternate
)

// Format summarizes the shapes found in one upload.
type Format int

const (
	FormatCanonical Format = iota
	FormatLegacy           // at least one alternate-shape item
)

// Message returns the notice shown after a successful import.
func (f Format) Message() string {
	if f == FormatLegacy {
		return "Detected Twitter Bookmark Exporter Chrome extension format. " +
			"For a complete export with media support, we recommend using Surfer Protocol."
	}
	return "Bookmarks loaded successfully"
}

func (f Format) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return "canonical"
}

const authorSeparator = "·"

// DetectShape decides the item's shape once, from author and link alone.
func DetectShape(item map[string]any) Shape {
	if truthy(item["author"]) && truthy(item["link"]) {
		return ShapeAlternate
	}
	return ShapeCanonical
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	}
	return true
}

// UsernameFromAuthor extracts the handle from "Display Name @handle · 5h":
// the last @-segment before the first separator.
func UsernameFromAuthor(author string) string {
	first, _, _ := strings.Cut(author, authorSeparator)
	parts := strings.Split(first, "@")
	return strings.TrimSpace(parts[len(parts)-1])
}

// NormalizeItem converts a validated item into a Bookmark.
func NormalizeItem(item map[string]any) model.Bookmark {
	if DetectShape(item) == ShapeAlternate {
		author, _ := item["author"].(string)
		return model.Bookmark{
			ID:        stringField(item, "id"),
			Text:      stringField(item, "text"),
			Timestamp: stringField(item, "timestamp"),
			Username:  UsernameFromAuthor(author),
			Media:     nil, // the extension export carries no media
		}
	}

	b := model.Bookmark{
		ID:        stringField(item, "id"),
		Text:      stringField(item, "text"),
		Timestamp: stringField(item, "timestamp"),
		Username:  model.NormalizeUsername(stringField(item, "username")),
	}
	if m, ok := item["media"].(map[string]any); ok {
		b.Media = &model.Media{
			Type:   model.MediaType(stringField(m, "type")),
			Source: stringField(m, "source"),
		}
	}
	return b
}

// NormalizePayload normalizes every item of a validated payload.
func NormalizePayload(v any) (model.Collection, Format) {
	var items []any
	switch data := v.(type) {
	case []any:
		items = data
	case map[string]any:
		items, _ = data["content"].([]any)
	}

	format := FormatCanonical
	bookmarks := make(model.Collection, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if DetectShape(item) == ShapeAlternate {
			format = FormatLegacy
		}
		bookmarks = append(bookmarks, NormalizeItem(item))
	}
	return bookmarks, format
}

func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return s
}
