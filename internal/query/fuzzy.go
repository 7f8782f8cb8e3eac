package query

import (
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/sahilm/fuzzy"
)

// Suggestion is a fuzzy username match.
type Suggestion struct {
	Username       string
	MatchedIndexes []int
	Score          int
}

// usernames implements fuzzy.Source.
type usernames []string

func (u usernames) String(i int) string { return u[i] }
func (u usernames) Len() int            { return len(u) }

// SuggestUsernames ranks the collection's usernames against prefix, best first.
// An empty prefix returns every username in first-seen order.
func SuggestUsernames(c model.Collection, prefix string) []Suggestion {
	names := usernames(UniqueUsernames(c))
	prefix = model.NormalizeUsername(prefix)

	if prefix == "" {
		out := make([]Suggestion, len(names))
		for i, n := range names {
			out[i] = Suggestion{Username: n}
		}
		return out
	}

	matches := fuzzy.FindFrom(prefix, names)
	out := make([]Suggestion, len(matches))
	for i, m := range matches {
		out[i] = Suggestion{
			Username:       names[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return out
}
