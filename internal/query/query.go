// Package query derives the visible bookmark list from the collection and
// the current query parameters.
package query

import (
	"slices"
	"strings"
	"time"

	"github.com/nikbrunner/xbm/internal/model"
)

// Derive filters and sorts c. The input is never modified; the result is a new slice.
// Filters run search, then username, then media; the sort is stable.
func Derive(c model.Collection, p Params) model.Collection {
	needle := strings.ToLower(p.Search)

	out := make(model.Collection, 0, len(c))
	for _, b := range c {
		if needle != "" && !matchesSearch(b, needle) {
			continue
		}
		if p.Username != nil && *p.Username != "" && b.Username != *p.Username {
			continue
		}
		if !p.Media.matches(b) {
			continue
		}
		out = append(out, b)
	}

	// Parse once; unparsable timestamps are the zero time and sort oldest.
	instants := make(map[string]time.Time, len(out))
	key := func(b model.Bookmark) time.Time {
		if v, ok := instants[b.Timestamp]; ok {
			return v
		}
		v := b.Time()
		instants[b.Timestamp] = v
		return v
	}

	slices.SortStableFunc(out, func(a, b model.Bookmark) int {
		if p.Sort == SortOldest {
			return key(a).Compare(key(b))
		}
		return key(b).Compare(key(a))
	})

	return out
}

func matchesSearch(b model.Bookmark, needle string) bool {
	return strings.Contains(strings.ToLower(b.Text), needle) ||
		strings.Contains(strings.ToLower(b.Username), needle)
}

// UniqueUsernames returns each distinct username once, in first-seen order.
func UniqueUsernames(c model.Collection) []string {
	seen := make(map[string]struct{}, len(c))
	var names []string
	for _, b := range c {
		if _, ok := seen[b.Username]; ok {
			continue
		}
		seen[b.Username] = struct{}{}
		names = append(names, b.Username)
	}
	return names
}
