package model

import (
	"regexp"
	"strings"
	"time"
)

// MediaType is the kind of media attached to a bookmarked post.
type MediaType string

const (
	MediaPhoto       MediaType = "photo"
	MediaVideo       MediaType = "video"
	MediaAnimatedGIF MediaType = "animated_gif"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaPhoto, MediaVideo, MediaAnimatedGIF:
		return true
	}
	return false
}

// Media is the single media item of a post.
type Media struct {
	Type   MediaType `json:"type"`
	Source string    `json:"source"`
}

// Bookmark is the canonical record every import is normalized into.
type Bookmark struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Media     *Media `json:"media"` // nil = no media
}

const postBaseURL = "https://x.com"

var shortLinkPattern = regexp.MustCompile(`https://t\.co/\w+`)

// Time returns the parsed timestamp, or the zero time if it does not parse.
func (b Bookmark) Time() time.Time {
	t, _ := ParseTimestamp(b.Timestamp)
	return t
}

// Permalink returns the post URL used by cards.
// Exports sometimes prefix ids with "tweet-".
func (b Bookmark) Permalink() string {
	return postBaseURL + "/" + b.Username + "/status/" + strings.ReplaceAll(b.ID, "tweet-", "")
}

// CitationURL returns the post URL used for AI citation links.
func (b Bookmark) CitationURL() string {
	return postBaseURL + "/" + b.Username + "/status/" + b.ID
}

// ProfileURL returns the author's profile URL.
func (b Bookmark) ProfileURL() string {
	return postBaseURL + "/" + b.Username
}

// CleanText returns the text with t.co short links removed.
func (b Bookmark) CleanText() string {
	return strings.TrimSpace(shortLinkPattern.ReplaceAllString(b.Text, ""))
}

// HasMedia reports whether the bookmark carries media.
func (b Bookmark) HasMedia() bool {
	return b.Media != nil
}

// NormalizeUsername strips a leading "@" and surrounding whitespace.
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.TrimSpace(s)
}
