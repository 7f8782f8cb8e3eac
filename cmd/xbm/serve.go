package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/xbm/internal/app"
	"github.com/nikbrunner/xbm/internal/importer"
	"github.com/nikbrunner/xbm/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API on the configured address (server.addr, or $XBM_LISTEN_ADDR).

  GET    /api/bookmarks?q=&sort=&media=&user=
  POST   /api/bookmarks          multipart "file" or a raw JSON body
  DELETE /api/bookmarks
  GET    /api/usernames?prefix=
  POST   /api/ask                server-sent answer events
  GET    /healthz`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		watchPath, _ := cmd.Flags().GetString("watch")
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.Config().Server.Addr = addr
		}
		return a.Serve(watchPath)
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch <file.json>",
	Short: "Re-import an export file whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := args[0]

		if _, err := os.Stat(path); err == nil {
			outcome, err := a.Library().IngestFile(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", importer.UserMessage(err))
			} else {
				fmt.Fprintf(out, "Loaded %d bookmarks\n", len(outcome.Bookmarks))
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", path)
		return a.Watch(path, func() {
			fmt.Fprintf(out, "Reloaded %d bookmarks\n", len(a.Library().Collection()))
		})
	}),
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server (stdio)",
	Long: `Start a Model Context Protocol server exposing the archive as tools over STDIO:
search_bookmarks, get_bookmark and list_usernames.

Example client configuration:

  {"command": "xbm", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		srv := mcp.NewXbmMCPServer(a.Library(), a.Logger())

		// stdout carries the JSON-RPC stream
		fmt.Fprintf(os.Stderr, "xbm MCP server started with %d bookmarks.\n", len(a.Library().Collection()))
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address, overrides the config")
	serveCmd.Flags().String("watch", "", "re-import this export file when it changes")

	rootCmd.AddCommand(serveCmd, watchCmd, mcpCmd)
}
