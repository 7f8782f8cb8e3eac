package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Search    key.Binding
	Sort      key.Binding
	Media     key.Binding
	User      key.Binding
	ClearUser key.Binding
	Yank      key.Binding
	Open      key.Binding
	Ask       key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default vim-style key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle sort"),
		),
		Media: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "cycle media filter"),
		),
		User: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "filter by user"),
		),
		ClearUser: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "clear user filter"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy permalink"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", "enter"),
			key.WithHelp("o", "open in browser"),
		),
		Ask: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "ask AI"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// All returns the bindings in help display order.
func (k KeyMap) All() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Top, k.Bottom,
		k.Search, k.Sort, k.Media, k.User, k.ClearUser,
		k.Yank, k.Open, k.Ask,
		k.Help, k.Quit,
	}
}
