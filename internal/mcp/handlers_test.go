package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/model"
)

func testLibrary() *library.Library {
	lib := library.New(library.Params{})
	_ = lib.Commit(lib.BeginUpload(), model.Collection{
		{ID: "1", Text: "go generics", Timestamp: "2024-01-01T00:00:00Z", Username: "jane"},
		{ID: "2", Text: "sunset", Timestamp: "2024-03-01T00:00:00Z", Username: "bob",
			Media: &model.Media{Type: model.MediaVideo, Source: "v.mp4"}},
		{ID: "3", Text: "more go", Timestamp: "2024-02-01T00:00:00Z", Username: "jane"},
	})
	return lib
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func decodeSearch(t *testing.T, res *mcp.CallToolResult) searchResult {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text(t, res))
	}
	var out searchResult
	if err := json.Unmarshal([]byte(text(t, res)), &out); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return out
}

func ids(r searchResult) []string {
	out := []string{}
	for _, b := range r.Bookmarks {
		out = append(out, b.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearchBookmarks(t *testing.T) {
	h := searchBookmarksHandler(testLibrary())

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"defaults", map[string]any{}, []string{"2", "3", "1"}},
		{"query", map[string]any{"query": "GO"}, []string{"3", "1"}},
		{"oldest", map[string]any{"sort": "oldest"}, []string{"1", "3", "2"}},
		{"media", map[string]any{"media": "video"}, []string{"2"}},
		{"no media", map[string]any{"media": "none"}, []string{"3", "1"}},
		{"user with at", map[string]any{"user": "@jane"}, []string{"3", "1"}},
		{"limit", map[string]any{"limit": float64(1)}, []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(decodeSearch(t, call(t, h, tt.args)))
			if !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchBookmarks_TotalBeforeLimit(t *testing.T) {
	out := decodeSearch(t, call(t, searchBookmarksHandler(testLibrary()), map[string]any{"limit": float64(2)}))
	if out.Total != 3 || out.Returned != 2 {
		t.Errorf("expected total 3 returned 2, got %d/%d", out.Total, out.Returned)
	}
	if out.Bookmarks[0].Permalink != "https://x.com/bob/status/2" {
		t.Errorf("unexpected permalink %q", out.Bookmarks[0].Permalink)
	}
}

func TestSearchBookmarks_InvalidArguments(t *testing.T) {
	h := searchBookmarksHandler(testLibrary())

	for _, args := range []map[string]any{
		{"sort": "sideways"},
		{"media": "audio"},
		{"limit": float64(0)},
	} {
		if res := call(t, h, args); !res.IsError {
			t.Errorf("expected tool error for %v", args)
		}
	}
}

func TestGetBookmark(t *testing.T) {
	h := getBookmarkHandler(testLibrary())

	res := call(t, h, map[string]any{"id": "3"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", text(t, res))
	}
	var b bookmarkResult
	if err := json.Unmarshal([]byte(text(t, res)), &b); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if b.Text != "more go" || b.Permalink != "https://x.com/jane/status/3" {
		t.Errorf("unexpected bookmark %+v", b)
	}

	if res := call(t, h, map[string]any{"id": "404"}); !res.IsError {
		t.Error("expected not found error")
	}
	if res := call(t, h, map[string]any{}); !res.IsError {
		t.Error("expected missing id error")
	}
}

func TestListUsernames(t *testing.T) {
	h := listUsernamesHandler(testLibrary())

	var all []string
	if err := json.Unmarshal([]byte(text(t, call(t, h, map[string]any{}))), &all); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !equal(all, []string{"jane", "bob"}) {
		t.Errorf("unexpected usernames %v", all)
	}

	var some []string
	if err := json.Unmarshal([]byte(text(t, call(t, h, map[string]any{"prefix": "@ja"}))), &some); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !equal(some, []string{"jane"}) {
		t.Errorf("unexpected usernames %v", some)
	}
}

func TestNewXbmMCPServer(t *testing.T) {
	s := NewXbmMCPServer(testLibrary(), nil)
	if s.MCPRawServer() == nil {
		t.Fatal("expected raw server")
	}
}
