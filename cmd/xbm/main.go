package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/xbm/internal/app"
	"github.com/nikbrunner/xbm/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "xbm",
	Short: "Browse, search and ask questions about your X bookmarks.",
	Long: `xbm keeps an archive of bookmarked X posts exported from the browser.

Run without arguments to open the interactive viewer. Import an export first:

  xbm import ~/Downloads/bookmarks.json`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          withApp(runTUI),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

// withApp builds the App for a command and releases it afterwards.
func withApp(fn func(a *app.App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := app.New(configPath)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a, cmd, args)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/xbm/config.yaml, or $XBM_CONFIG)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
