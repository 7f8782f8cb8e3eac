package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/xbm/internal/app"
	"github.com/nikbrunner/xbm/internal/browser"
	"github.com/nikbrunner/xbm/internal/culler"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/picker"
	"github.com/nikbrunner/xbm/internal/query"
	"github.com/nikbrunner/xbm/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive viewer (default)",
	Long: `Keybindings:
  j/k, g/G    Move, jump to top/bottom
  /           Search text and usernames
  s           Toggle newest/oldest
  m           Cycle media filter
  u / U       Pick a username / clear it
  y           Copy permalink
  o, Enter    Open in browser
  a           Ask AI about your bookmarks
  ?           Help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: withApp(runTUI),
}

func runTUI(a *app.App, cmd *cobra.Command, args []string) error {
	viewer := tui.NewApp(tui.AppParams{Library: a.Library(), Session: a.Session()})
	if _, err := tea.NewProgram(viewer, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}

var openCmd = &cobra.Command{
	Use:   "open [query]",
	Short: "Search, pick one post and open it in the browser",
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		p, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			p.Search = strings.Join(args, " ")
		}

		results := query.Derive(a.Library().Collection(), p)
		if len(results) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No bookmarks found for '%s'\n", p.Search)
			return nil
		}

		selected, ok := results[0], true
		if len(results) == 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "Opening: %s\n", selected.Permalink())
		} else {
			selected, ok, err = pick(results, p.Search)
			if err != nil || !ok {
				return err
			}
		}

		return browser.Open(selected.Permalink())
	}),
}

func pick(results model.Collection, q string) (model.Bookmark, bool, error) {
	finalModel, err := tea.NewProgram(picker.New(results, q)).Run()
	if err != nil {
		return model.Bookmark{}, false, fmt.Errorf("run picker: %w", err)
	}
	final := finalModel.(picker.Picker)
	if final.Cancelled() {
		return model.Bookmark{}, false, nil
	}
	b, ok := final.SelectedBookmark()
	return b, ok, nil
}

var checkMediaCmd = &cobra.Command{
	Use:   "check-media",
	Short: "Find bookmarks whose photos or videos are gone",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		errOut := cmd.ErrOrStderr()

		results := culler.CheckMedia(cmd.Context(), a.Library().Collection(),
			culler.Options{Concurrency: concurrency, Timeout: timeout},
			func(completed, total int) {
				fmt.Fprintf(errOut, "\rChecking media %d/%d", completed, total)
			})
		if len(results) > 0 {
			fmt.Fprintln(errOut)
		}

		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Status == culler.Healthy {
				continue
			}
			reason := r.Error
			if r.StatusCode != 0 {
				reason = fmt.Sprintf("HTTP %d", r.StatusCode)
			}
			fmt.Fprintf(out, "%-11s %s  %s\n", r.Status, r.Bookmark.Permalink(), reason)
		}

		counts := culler.Summary(results)
		fmt.Fprintf(out, "%d checked: %d healthy, %d dead, %d unreachable\n",
			len(results), counts[culler.Healthy], counts[culler.Dead], counts[culler.Unreachable])
		return nil
	}),
}

func init() {
	addQueryFlags(openCmd)
	checkMediaCmd.Flags().Int("concurrency", culler.DefaultConcurrency, "parallel requests")
	checkMediaCmd.Flags().Duration("timeout", culler.DefaultTimeout, "per-request timeout")

	rootCmd.AddCommand(tuiCmd, openCmd, checkMediaCmd)
}
