package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/xbm/internal/app"
	"github.com/nikbrunner/xbm/internal/importer"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/query"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the archive with a bookmark export",
	Long: `Reads a JSON export, validates it and replaces the whole archive with it.
An invalid file leaves the current archive untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		outcome, err := a.Library().IngestFile(args[0])
		if err != nil {
			return errors.New(importer.UserMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bookmarks)\n", outcome.Format.Message(), len(outcome.Bookmarks))
		return nil
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks, filtered and sorted",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		p, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}
		view := query.Derive(a.Library().Collection(), p)

		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(view) > limit {
			view = view[:limit]
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		printBookmarks(cmd.OutOrStdout(), view)
		return nil
	}),
}

var usersCmd = &cobra.Command{
	Use:   "users [prefix]",
	Short: "List the authors in the archive",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		for _, s := range query.SuggestUsernames(a.Library().Collection(), prefix) {
			fmt.Fprintf(cmd.OutOrStdout(), "@%s\n", s.Username)
		}
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every bookmark from the archive",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		n := len(a.Library().Collection())
		a.Library().Clear()
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d bookmarks\n", n)
		return nil
	}),
}

// paramsFromFlags reads the query flags shared by list and open.
func paramsFromFlags(cmd *cobra.Command) (query.Params, error) {
	p := query.DefaultParams()

	p.Search, _ = cmd.Flags().GetString("search")

	sortFlag, _ := cmd.Flags().GetString("sort")
	sort, err := query.ParseSortOrder(sortFlag)
	if err != nil {
		return p, err
	}
	p.Sort = sort

	mediaFlag, _ := cmd.Flags().GetString("media")
	media, err := query.ParseMediaFilter(mediaFlag)
	if err != nil {
		return p, err
	}
	p.Media = media

	user, _ := cmd.Flags().GetString("user")
	return p.WithUsername(model.NormalizeUsername(user)), nil
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "s", "", "substring to match in text or username")
	cmd.Flags().String("sort", string(query.SortNewest), "newest or oldest")
	cmd.Flags().StringP("media", "m", string(query.MediaAll), "all, photo, video, animated_gif or none")
	cmd.Flags().StringP("user", "u", "", "only posts by this username")
}

func printBookmarks(w io.Writer, c model.Collection) {
	if len(c) == 0 {
		fmt.Fprintln(w, "No bookmarks found.")
		return
	}
	for _, b := range c {
		when := b.Timestamp
		if t := b.Time(); !t.IsZero() {
			when = t.Format("2006-01-02")
		}
		media := ""
		if b.HasMedia() {
			media = " [" + string(b.Media.Type) + "]"
		}
		fmt.Fprintf(w, "@%s  %s%s\n  %s\n  %s\n", b.Username, when, media, firstLine(b.CleanText()), b.Permalink())
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > 80 {
		s = string(r[:79]) + "…"
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	addQueryFlags(listCmd)
	listCmd.Flags().Int("limit", 0, "maximum number of bookmarks to print")
	listCmd.Flags().Bool("json", false, "print the canonical JSON shape")

	rootCmd.AddCommand(importCmd, listCmd, usersCmd, clearCmd)
}
