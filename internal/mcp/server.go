// Package mcp exposes the bookmark archive to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/version"
)

type XbmMCPServer struct {
	mcpServer *server.MCPServer
	lib       *library.Library
	log       logger.Logger
}

// NewXbmMCPServer builds an MCP server with every tool registered.
func NewXbmMCPServer(lib *library.Library, log logger.Logger) *XbmMCPServer {
	if log == nil {
		log = logger.NewNop()
	}

	s := server.NewMCPServer(
		"xbm",
		version.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)

	RegisterSearchBookmarksTool(s, lib)
	RegisterGetBookmarkTool(s, lib)
	RegisterListUsernamesTool(s, lib)

	return &XbmMCPServer{mcpServer: s, lib: lib, log: log}
}

// Start runs the stdio event loop until stdin closes.
func (s *XbmMCPServer) Start() error {
	s.log.Info("mcp server listening on stdio", logger.Int("bookmarks", len(s.lib.Collection())))
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server.
func (s *XbmMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
