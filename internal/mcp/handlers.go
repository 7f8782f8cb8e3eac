package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/query"
)

// DefaultSearchLimit caps search results when no limit is given.
const DefaultSearchLimit = 20

// bookmarkResult is a bookmark as returned to MCP clients.
type bookmarkResult struct {
	model.Bookmark
	Permalink string `json:"permalink"`
}

type searchResult struct {
	Total     int              `json:"total"`
	Returned  int              `json:"returned"`
	Bookmarks []bookmarkResult `json:"bookmarks"`
}

func toResults(c model.Collection) []bookmarkResult {
	out := make([]bookmarkResult, 0, len(c))
	for _, b := range c {
		out = append(out, bookmarkResult{Bookmark: b, Permalink: b.Permalink()})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// RegisterSearchBookmarksTool registers the search_bookmarks tool.
func RegisterSearchBookmarksTool(s *server.MCPServer, lib *library.Library) {
	tool := mcp.NewTool("search_bookmarks",
		mcp.WithDescription("Searches the bookmarked X posts. Matches text or username, case-insensitively."),
		mcp.WithString("query", mcp.Description("Substring to look for in post text or username.")),
		mcp.WithString("sort", mcp.Description("Sort by time."), mcp.Enum(string(query.SortNewest), string(query.SortOldest))),
		mcp.WithString("media", mcp.Description("Only posts with this media."),
			mcp.Enum(string(query.MediaAll), string(query.MediaPhoto), string(query.MediaVideo), string(query.MediaAnimatedGIF), string(query.MediaNone))),
		mcp.WithString("user", mcp.Description("Only posts by this username, with or without @.")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum results to return (default %d).", DefaultSearchLimit))),
	)
	s.AddTool(tool, searchBookmarksHandler(lib))
}

func searchBookmarksHandler(lib *library.Library) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.Params.Arguments

		p := query.DefaultParams()
		p.Search, _ = args["query"].(string)

		sortArg, _ := args["sort"].(string)
		sort, err := query.ParseSortOrder(sortArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p.Sort = sort

		mediaArg, _ := args["media"].(string)
		media, err := query.ParseMediaFilter(mediaArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p.Media = media

		user, _ := args["user"].(string)
		p = p.WithUsername(model.NormalizeUsername(user))

		limit := DefaultSearchLimit
		if l, ok := args["limit"].(float64); ok {
			if l < 1 {
				return mcp.NewToolResultError("'limit' must be at least 1."), nil
			}
			limit = int(l)
		}

		view := query.Derive(lib.Collection(), p)
		total := len(view)
		if len(view) > limit {
			view = view[:limit]
		}

		return jsonResult(searchResult{Total: total, Returned: len(view), Bookmarks: toResults(view)})
	}
}

// RegisterGetBookmarkTool registers the get_bookmark tool.
func RegisterGetBookmarkTool(s *server.MCPServer, lib *library.Library) {
	tool := mcp.NewTool("get_bookmark",
		mcp.WithDescription("Retrieves one bookmarked post by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The post id as stored in the archive.")),
	)
	s.AddTool(tool, getBookmarkHandler(lib))
}

func getBookmarkHandler(lib *library.Library) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := request.Params.Arguments["id"].(string)
		if !ok || id == "" {
			return mcp.NewToolResultError("'id' parameter is required and must be a non-empty string."), nil
		}

		b := lib.Collection().ByID(id)
		if b == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Bookmark with id '%s' not found.", id)), nil
		}
		return jsonResult(bookmarkResult{Bookmark: *b, Permalink: b.Permalink()})
	}
}

// RegisterListUsernamesTool registers the list_usernames tool.
func RegisterListUsernamesTool(s *server.MCPServer, lib *library.Library) {
	tool := mcp.NewTool("list_usernames",
		mcp.WithDescription("Lists the distinct authors in the archive, fuzzy-ranked when a prefix is given."),
		mcp.WithString("prefix", mcp.Description("Optional partial username.")),
	)
	s.AddTool(tool, listUsernamesHandler(lib))
}

func listUsernamesHandler(lib *library.Library) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prefix, _ := request.Params.Arguments["prefix"].(string)

		names := []string{}
		for _, s := range query.SuggestUsernames(lib.Collection(), prefix) {
			names = append(names, s.Username)
		}
		return jsonResult(names)
	}
}
