package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nikbrunner/xbm/internal/ai"
	"github.com/nikbrunner/xbm/internal/app"
	"github.com/nikbrunner/xbm/internal/format"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your bookmarks",
	Long: `Streams an answer grounded in the whole archive. Citations like [3] in the
answer link to the third bookmark.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		asHTML, _ := cmd.Flags().GetBool("html")

		ctx, cancel := a.AskContext(cmd.Context())
		defer cancel()

		out := cmd.OutOrStdout()
		var answer ai.Answer
		for ans, err := range a.Session().Ask(ctx, question, a.Library().Collection()) {
			if err != nil {
				if answer.Text != "" {
					fmt.Fprintln(out)
				}
				return errors.New(ai.UserMessage(err))
			}
			if !asHTML {
				fmt.Fprint(out, format.StripControl(strings.TrimPrefix(ans.Text, answer.Text)))
			}
			answer = ans
		}

		if asHTML {
			fmt.Fprintln(out, answer.HTML)
		} else {
			fmt.Fprintln(out)
		}

		if copyAnswer, _ := cmd.Flags().GetBool("copy"); copyAnswer {
			if err := clipboard.WriteAll(answer.Text); err != nil {
				return fmt.Errorf("copy answer: %w", err)
			}
		}
		return nil
	}),
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage your own Anthropic API key",
	Long: `The default key allows a small number of free questions. Adding your own key
removes the limit.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store your API key (prompts when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			var err error
			key, err = readKey(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return errors.New("API key cannot be empty")
		}
		a.Session().Quota().SetCustomKey(key)
		fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
		return nil
	}),
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget your API key and go back to the free queries",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		a.Session().Quota().SetCustomKey("")
		fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
		return nil
	}),
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which key is in use and the queries left",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app.App, cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), quotaStatus(a.Session().Quota()))
		return nil
	}),
}

func quotaStatus(q *ai.Quota) string {
	if remaining := q.Remaining(); remaining >= 0 {
		return fmt.Sprintf("Using the default key: %d free queries left.", remaining)
	}
	return "Using your own API key."
}

// readKey reads the key without echo from a terminal, or a line from r otherwise.
func readKey(r io.Reader, prompt io.Writer) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "API key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read key: %w", err)
	}
	return line, nil
}

func init() {
	askCmd.Flags().Bool("copy", false, "copy the answer to the clipboard")
	askCmd.Flags().Bool("html", false, "print the sanitized HTML answer instead of streaming text")

	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd)
	rootCmd.AddCommand(askCmd, keyCmd)
}
