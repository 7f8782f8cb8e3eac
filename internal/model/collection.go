package model

// Collection is an ordered set of bookmarks.
// It is replaced wholesale and never edited in place.
type Collection []Bookmark

// ByID finds a bookmark by ID, returns nil if not found.
func (c Collection) ByID(id string) *Bookmark {
	for i := range c {
		if c[i].ID == id {
			return &c[i]
		}
	}
	return nil
}

// Clone returns a copy that shares no backing array or media with c.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, b := range c {
		if b.Media != nil {
			m := *b.Media
			b.Media = &m
		}
		out[i] = b
	}
	return out
}

// CountMedia returns the number of bookmarks per media type.
// Bookmarks without media are counted under the empty type.
func (c Collection) CountMedia() map[MediaType]int {
	counts := make(map[MediaType]int)
	for _, b := range c {
		if b.Media == nil {
			counts[""]++
			continue
		}
		counts[b.Media.Type]++
	}
	return counts
}
