package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nikbrunner/xbm/internal/model"
)

var (
	ErrUnknownSort  = errors.New("unknown sort order")
	ErrUnknownMedia = errors.New("unknown media filter")
)

// SortOrder orders the derived view by timestamp.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// MediaFilter restricts the view by media type.
type MediaFilter string

const (
	MediaAll         MediaFilter = "all"
	MediaPhoto       MediaFilter = MediaFilter(model.MediaPhoto)
	MediaVideo       MediaFilter = MediaFilter(model.MediaVideo)
	MediaAnimatedGIF MediaFilter = MediaFilter(model.MediaAnimatedGIF)
	MediaNone        MediaFilter = "none"
)

// MediaFilters lists every filter in display order.
var MediaFilters = []MediaFilter{MediaAll, MediaPhoto, MediaVideo, MediaAnimatedGIF, MediaNone}

// Params are the user's current query choices.
type Params struct {
	Search   string
	Sort     SortOrder
	Media    MediaFilter
	Username *string // nil = all users
}

// DefaultParams returns the initial parameters: no search, newest first, all media.
func DefaultParams() Params {
	return Params{Sort: SortNewest, Media: MediaAll}
}

// WithUsername returns a copy of p restricted to username. Empty clears the restriction.
func (p Params) WithUsername(username string) Params {
	if username == "" {
		p.Username = nil
		return p
	}
	p.Username = &username
	return p
}

// ParseSortOrder parses "newest" or "oldest". Empty means newest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

// ParseMediaFilter parses a media filter name. Empty means all.
func ParseMediaFilter(s string) (MediaFilter, error) {
	f := MediaFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return MediaAll, nil
	}
	for _, known := range MediaFilters {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMedia, s)
}

// Next returns the filter after f, wrapping around.
func (f MediaFilter) Next() MediaFilter {
	for i, known := range MediaFilters {
		if f == known {
			return MediaFilters[(i+1)%len(MediaFilters)]
		}
	}
	return MediaAll
}

// Toggle flips between newest and oldest.
func (s SortOrder) Toggle() SortOrder {
	if s == SortOldest {
		return SortNewest
	}
	return SortOldest
}

func (f MediaFilter) matches(b model.Bookmark) bool {
	switch f {
	case "", MediaAll:
		return true
	case MediaNone:
		return b.Media == nil
	}
	return b.Media != nil && MediaFilter(b.Media.Type) == f
}
