package tui

import "strings"

// Hint represents a single keybind hint for display.
type Hint struct {
	Key  string // Display key (e.g., "j/k", "Enter")
	Desc string // Short description (e.g., "move", "open")
}

// renderHint renders a single hint as "key:desc" with styling.
func (a App) renderHint(h Hint) string {
	return a.styles.HintKey.Render(h.Key) + ":" + a.styles.HintDesc.Render(h.Desc)
}

// renderHints renders hints in horizontal format for bottom bar: "j/k:move /:search q:quit"
func (a App) renderHints(hints HintSet) string {
	allHints := hints.All()
	if len(allHints) == 0 {
		return ""
	}

	parts := make([]string, len(allHints))
	for i, h := range allHints {
		parts[i] = a.renderHint(h)
	}
	return strings.Join(parts, " ")
}

// HintSet is an ordered collection of hints by group.
type HintSet struct {
	Nav    []Hint
	Action []Hint
	System []Hint
}

// All returns all hints flattened in display order: Nav + Action + System.
func (h HintSet) All() []Hint {
	result := make([]Hint, 0, len(h.Nav)+len(h.Action)+len(h.System))
	result = append(result, h.Nav...)
	result = append(result, h.Action...)
	result = append(result, h.System...)
	return result
}

// getContextualHints returns the appropriate hints for the current mode.
func (a App) getContextualHints() HintSet {
	switch a.mode {
	case ModeNormal:
		return a.getNormalModeHints()
	case ModeSearch:
		return HintSet{
			Action: []Hint{{Key: "Enter", Desc: "keep"}},
			System: []Hint{{Key: "Esc", Desc: "clear"}},
		}
	case ModeUserPicker:
		return HintSet{
			Nav:    []Hint{{Key: "↑/↓", Desc: "move"}},
			Action: []Hint{{Key: "Enter", Desc: "select"}},
			System: []Hint{{Key: "Esc", Desc: "cancel"}},
		}
	case ModeAsk:
		return HintSet{
			Action: []Hint{{Key: "Enter", Desc: "ask"}},
			System: []Hint{{Key: "Esc", Desc: "close"}},
		}
	case ModeHelp:
		return HintSet{
			System: []Hint{{Key: "?/q/Esc", Desc: "close"}},
		}
	default:
		return HintSet{}
	}
}

// getNormalModeHints returns hints for ModeNormal (main list).
func (a App) getNormalModeHints() HintSet {
	hints := HintSet{
		Nav: []Hint{
			{Key: "j/k", Desc: "move"},
		},
		Action: []Hint{
			{Key: "/", Desc: "search"},
			{Key: "s", Desc: "sort"},
			{Key: "m", Desc: "media"},
			{Key: "u", Desc: "user"},
			{Key: "y", Desc: "copy"},
			{Key: "o", Desc: "open"},
		},
		System: []Hint{
			{Key: "?", Desc: "help"},
			{Key: "q", Desc: "quit"},
		},
	}
	if a.lib.Params().Username != nil {
		hints.Action = append(hints.Action, Hint{Key: "U", Desc: "all users"})
	}
	if a.session != nil {
		hints.Action = append(hints.Action, Hint{Key: "a", Desc: "ask"})
	}
	return hints
}
