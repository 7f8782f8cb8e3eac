package model_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nikbrunner/xbm/internal/model"
)

func TestBookmark_JSONShape(t *testing.T) {
	tests := []struct {
		name     string
		bookmark model.Bookmark
		want     string
	}{
		{
			name: "bookmark with photo",
			bookmark: model.Bookmark{
				ID:        "1",
				Text:      "hello",
				Timestamp: "2024-01-01T00:00:00Z",
				Username:  "jane",
				Media:     &model.Media{Type: model.MediaPhoto, Source: "https://pbs.twimg.com/a.jpg"},
			},
			want: `{"id":"1","text":"hello","timestamp":"2024-01-01T00:00:00Z","username":"jane","media":{"type":"photo","source":"https://pbs.twimg.com/a.jpg"}}`,
		},
		{
			name: "bookmark without media keeps explicit null",
			bookmark: model.Bookmark{
				ID:        "2",
				Text:      "plain",
				Timestamp: "2024-01-02T00:00:00Z",
				Username:  "bob",
			},
			want: `{"id":"2","text":"plain","timestamp":"2024-01-02T00:00:00Z","username":"bob","media":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.bookmark)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
		})
	}
}

func TestBookmark_Permalink(t *testing.T) {
	b := model.Bookmark{ID: "tweet-12345", Username: "janedoe"}

	if got := b.Permalink(); got != "https://x.com/janedoe/status/12345" {
		t.Errorf("unexpected permalink %q", got)
	}
	if got := b.CitationURL(); got != "https://x.com/janedoe/status/tweet-12345" {
		t.Errorf("unexpected citation url %q", got)
	}
	if got := b.ProfileURL(); got != "https://x.com/janedoe" {
		t.Errorf("unexpected profile url %q", got)
	}
}

func TestBookmark_CleanText(t *testing.T) {
	b := model.Bookmark{Text: "Read this https://t.co/AbC123 now https://t.co/x9"}

	got := b.CleanText()
	if strings.Contains(got, "t.co") {
		t.Errorf("expected short links removed, got %q", got)
	}
	if !strings.HasPrefix(got, "Read this") || !strings.HasSuffix(got, "now") {
		t.Errorf("unexpected clean text %q", got)
	}
	if b.Text == got {
		t.Error("CleanText must not modify the stored text")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  time.Time
	}{
		{"2024-01-01T00:00:00Z", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:30:00.123Z", true, time.Date(2024, 1, 1, 10, 30, 0, 123000000, time.UTC)},
		{"2024-01-01T02:00:00+02:00", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05", true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05T08:00:00", true, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)},
		{"Wed Oct 10 20:19:24 +0000 2018", true, time.Date(2018, 10, 10, 20, 19, 24, 0, time.UTC)},
		{"2024-01-01T00:00Z", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T02:30+02:00", true, time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)},
		{"2024-01-01T00:00:00+0000", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T01:00:00.5+0100", true, time.Date(2024, 1, 1, 0, 0, 0, 500000000, time.UTC)},
		{"2024-01-01T09:15", true, time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)},
		{"2024-01", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"not a date", false, time.Time{}},
		{"2024-13-45T99:00:00Z", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := model.ParseTimestamp(tt.in)
			if tt.valid != (err == nil) {
				t.Fatalf("ParseTimestamp(%q) err = %v, want valid=%v", tt.in, err, tt.valid)
			}
			if tt.valid && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	tests := map[string]string{
		"@jane":    "jane",
		"  @jane ": "jane",
		"jane":     "jane",
		"@ jane":   "jane",
		"":         "",
	}
	for in, want := range tests {
		if got := model.NormalizeUsername(in); got != want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCollection_ByID(t *testing.T) {
	c := model.Collection{
		{ID: "a", Username: "one"},
		{ID: "b", Username: "two"},
	}

	b := c.ByID("b")
	if b == nil {
		t.Fatal("expected to find bookmark b")
	}
	if b.Username != "two" {
		t.Errorf("expected username 'two', got %q", b.Username)
	}
	if c.ByID("missing") != nil {
		t.Error("expected nil for missing bookmark")
	}
}

func TestCollection_CloneIsIndependent(t *testing.T) {
	c := model.Collection{
		{ID: "a", Media: &model.Media{Type: model.MediaPhoto, Source: "s"}},
	}

	clone := c.Clone()
	clone[0].ID = "changed"
	clone[0].Media.Source = "changed"

	if c[0].ID != "a" || c[0].Media.Source != "s" {
		t.Error("mutating the clone changed the original")
	}
	if model.Collection(nil).Clone() != nil {
		t.Error("expected nil clone of nil collection")
	}
}

func TestCollection_CountMedia(t *testing.T) {
	c := model.Collection{
		{ID: "1"},
		{ID: "2", Media: &model.Media{Type: model.MediaPhoto}},
		{ID: "3", Media: &model.Media{Type: model.MediaPhoto}},
		{ID: "4", Media: &model.Media{Type: model.MediaVideo}},
	}

	counts := c.CountMedia()
	if counts[""] != 1 || counts[model.MediaPhoto] != 2 || counts[model.MediaVideo] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestAIState_HasCustomKey(t *testing.T) {
	empty := ""
	key := "sk-test"

	if (model.AIState{}).HasCustomKey() {
		t.Error("nil key should not count")
	}
	if (model.AIState{CustomAPIKey: &empty}).HasCustomKey() {
		t.Error("empty key should not count")
	}
	if !(model.AIState{CustomAPIKey: &key}).HasCustomKey() {
		t.Error("expected custom key")
	}
}
