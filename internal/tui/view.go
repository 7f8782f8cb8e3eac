package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/xbm/internal/ai"
)

// linesPerItem is the height of one rendered bookmark: meta, text, gap.
const linesPerItem = 3

// renderView lays out header, list and help bar, or a modal when one is open.
func (a App) renderView() string {
	var body string
	switch a.mode {
	case ModeUserPicker:
		body = a.renderPicker()
	case ModeAsk:
		body = a.renderAsk()
	case ModeHelp:
		body = a.renderHelp()
	default:
		body = a.renderList()
	}

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), body, a.renderHints(a.getContextualHints())),
	)

	// Place keeps the frame at the exact terminal size.
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

func (a App) renderHeader() string {
	p := a.lib.Params()

	parts := []string{a.countLabel(), string(p.Sort), "media: " + string(p.Media)}
	if p.Username != nil && *p.Username != "" {
		parts = append(parts, "@"+*p.Username)
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("xbm"))
	b.WriteString("  ")
	b.WriteString(a.styles.Status.Render(strings.Join(parts, " · ")))
	b.WriteString("\n")

	if a.mode == ModeSearch || p.Search != "" {
		b.WriteString(a.search.View())
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString(a.styles.Notice.Render(a.status))
		b.WriteString("\n")
	}
	return b.String()
}

// listHeight is the number of rows available for bookmarks.
func (a App) listHeight() int {
	// padding, header, search/status line, hints
	return max(a.height-6, linesPerItem)
}

// viewportOffset keeps the cursor visible within visible items.
func viewportOffset(cursor, total, visible int) int {
	if visible <= 0 || total <= visible {
		return 0
	}
	offset := cursor - visible/2
	return min(max(offset, 0), total-visible)
}

func (a App) renderList() string {
	if len(a.items) == 0 {
		if len(a.lib.Collection()) == 0 {
			return a.styles.Empty.Render("No bookmarks yet. Run `xbm import <file>` to load an export.")
		}
		return a.styles.Empty.Render("No bookmarks match the current filters.")
	}

	visible := max(a.listHeight()/linesPerItem, 1)
	offset := viewportOffset(a.cursor, len(a.items), visible)
	textWidth := max(a.width-8, 10)

	var b strings.Builder
	for i := offset; i < len(a.items) && i < offset+visible; i++ {
		item := a.items[i]

		meta := a.styles.Meta.Render(item.Meta())
		if label := item.MediaLabel(); label != "" {
			meta += " " + a.styles.Media.Render("["+label+"]")
		}
		row := meta + "\n" + item.Title(textWidth)

		if i == a.cursor {
			b.WriteString(a.styles.ItemSelected.Render(row))
		} else {
			b.WriteString(a.styles.Item.Render(row))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a App) renderPicker() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Filter by user"))
	b.WriteString("\n\n")
	b.WriteString(a.picker.Input.View())
	b.WriteString("\n\n")

	if len(a.picker.Suggestions) == 0 {
		b.WriteString(a.styles.Empty.Render("(no matching users)"))
	}
	limit := max(a.height-12, 1)
	for i, s := range a.picker.Suggestions {
		if i >= limit {
			b.WriteString(a.styles.Empty.Render(fmt.Sprintf("… %d more", len(a.picker.Suggestions)-limit)))
			break
		}
		line := "@" + s.Username
		if i == a.picker.Cursor {
			b.WriteString(a.styles.ItemSelected.Render(line))
		} else {
			b.WriteString(a.styles.Item.Render(line))
		}
		b.WriteString("\n")
	}

	return a.styles.Modal.Width(max(a.width/2, 30)).Render(strings.TrimRight(b.String(), "\n"))
}

func (a App) renderAsk() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Ask your bookmarks"))
	if q := a.session.Quota(); q != nil {
		if remaining := q.Remaining(); remaining >= 0 {
			b.WriteString(a.styles.Status.Render(fmt.Sprintf("  %d free questions left", remaining)))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(a.ask.Input.View())
	b.WriteString("\n\n")

	switch {
	case a.ask.Err != nil:
		b.WriteString(a.styles.Error.Render(ai.UserMessage(a.ask.Err)))
		if a.ask.Answer.Text != "" {
			b.WriteString("\n\n")
		}
	case a.ask.Loading && a.ask.Answer.Text == "":
		b.WriteString(a.styles.Empty.Render("Thinking..."))
	}
	if a.ask.Answer.Text != "" {
		b.WriteString(a.styles.Answer.Width(max(a.width-12, 20)).Render(a.ask.Answer.Text))
	}

	return a.styles.Modal.Width(max(a.width-6, 30)).Render(b.String())
}

func (a App) renderHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range a.keys.All() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("%-10s %s\n", h.Key, h.Desc))
	}
	return a.styles.Modal.Render(strings.TrimRight(b.String(), "\n"))
}
