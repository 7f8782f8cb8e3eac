package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	App          lipgloss.Style
	Title        lipgloss.Style
	Status       lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	Meta         lipgloss.Style
	Media        lipgloss.Style
	Answer       lipgloss.Style
	Error        lipgloss.Style
	Notice       lipgloss.Style
	Empty        lipgloss.Style
	Modal        lipgloss.Style
	HintKey      lipgloss.Style
	HintDesc     lipgloss.Style
}

// DefaultStyles returns the default style configuration.
// Dark surface with the X link blue as the only accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#0F1419", Dark: "#E7E9EA"}
	subtle := lipgloss.AdaptiveColor{Light: "#536471", Dark: "#71767B"}
	accent := lipgloss.AdaptiveColor{Light: "#1D9BF0", Dark: "#1D9BF0"}
	border := lipgloss.AdaptiveColor{Light: "#CFD9DE", Dark: "#2F3336"}
	danger := lipgloss.AdaptiveColor{Light: "#F4212E", Dark: "#F4212E"}

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Status: lipgloss.NewStyle().
			Foreground(subtle),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(accent).
			Foreground(primary),

		Meta: lipgloss.NewStyle().
			Foreground(subtle),

		Media: lipgloss.NewStyle().
			Foreground(accent),

		Answer: lipgloss.NewStyle().
			Foreground(primary),

		Error: lipgloss.NewStyle().
			Foreground(danger),

		Notice: lipgloss.NewStyle().
			Foreground(accent),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(border).
			Padding(1, 2),

		HintKey: lipgloss.NewStyle().
			Foreground(accent),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),
	}
}
