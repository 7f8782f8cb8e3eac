package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/xbm/internal/app"
	"github.com/nikbrunner/xbm/internal/exporter"
	"github.com/nikbrunner/xbm/internal/query"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the archive as a browser bookmark file",
	Long: `Writes a Netscape bookmark HTML file with one entry per post, newest first.
The default path is ~/Downloads/x-bookmarks-export-DATE.html.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		var outputPath string
		if len(args) == 1 {
			outputPath = args[0]
		} else {
			var err error
			outputPath, err = exporter.DefaultExportPath()
			if err != nil {
				return fmt.Errorf("default export path: %w", err)
			}
		}

		group, _ := cmd.Flags().GetBool("group")
		c := query.Derive(a.Library().Collection(), query.DefaultParams())
		if err := exporter.ExportFile(outputPath, c, exporter.Options{GroupByUser: group}); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d bookmarks to %s\n", len(c), outputPath)
		return nil
	}),
}

func init() {
	exportCmd.Flags().Bool("group", false, "one folder per author")
	rootCmd.AddCommand(exportCmd)
}
