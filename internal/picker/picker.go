// Package picker is a one-shot list for choosing a single post from
// command-line search results.
package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/xbm/internal/model"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			MarginBottom(1)
)

// rowsPerResult is the height of one result: text and permalink.
const rowsPerResult = 2

// Picker is a simple TUI for selecting from search results.
type Picker struct {
	results   model.Collection
	query     string
	cursor    int
	selected  bool
	cancelled bool
	width     int
	height    int
}

// New creates a new Picker over results, labelled with the query that produced them.
func New(results model.Collection, query string) Picker {
	return Picker{
		results: results,
		query:   query,
		cursor:  0,
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			p.cancelled = true
			return p, tea.Quit

		case tea.KeyEnter:
			p.selected = true
			return p, tea.Quit

		case tea.KeyDown:
			p.move(1)
			return p, nil

		case tea.KeyUp:
			p.move(-1)
			return p, nil
		}

		// Handle j/k vim keys
		if msg.Type == tea.KeyRunes {
			switch string(msg.Runes) {
			case "j":
				p.move(1)
			case "k":
				p.move(-1)
			case "q":
				p.cancelled = true
				return p, tea.Quit
			}
		}
	}

	return p, nil
}

func (p *Picker) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), max(len(p.results)-1, 0))
}

// window returns the range of results that fit on screen around the cursor.
func (p Picker) window() (start, end int) {
	visible := max((p.height-4)/rowsPerResult, 1)
	if len(p.results) <= visible {
		return 0, len(p.results)
	}
	start = min(max(p.cursor-visible/2, 0), len(p.results)-visible)
	return start, start + visible
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	// Header
	b.WriteString(headerStyle.Render(fmt.Sprintf("Search: %s (%d results)", p.query, len(p.results))))
	b.WriteString("\n\n")

	textWidth := max(p.width-4, 10)
	start, end := p.window()
	for i := start; i < end; i++ {
		bm := p.results[i]
		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		line := "@" + bm.Username + ": " + firstLine(bm.CleanText())
		if r := []rune(line); len(r) > textWidth {
			line = string(r[:textWidth-1]) + "…"
		}

		b.WriteString(fmt.Sprintf("%s%s\n", cursor, style.Render(line)))
		b.WriteString(fmt.Sprintf("   %s\n", urlStyle.Render(bm.Permalink())))
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("j/k: move  Enter: open  q/Esc: cancel"))

	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// SelectedBookmark returns the chosen post. ok is false if the user cancelled.
func (p Picker) SelectedBookmark() (bm model.Bookmark, ok bool) {
	if p.cancelled || !p.selected || p.cursor >= len(p.results) {
		return model.Bookmark{}, false
	}
	return p.results[p.cursor], true
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
