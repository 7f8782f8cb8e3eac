package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/nikbrunner/xbm/internal/ai"
	"github.com/nikbrunner/xbm/internal/query"
)

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeUserPicker
	ModeAsk
	ModeHelp
)

// PickerState holds the fuzzy username picker.
type PickerState struct {
	Input       textinput.Model
	Suggestions []query.Suggestion
	Cursor      int
}

func NewPickerState() PickerState {
	input := textinput.New()
	input.Placeholder = "username"
	input.Prompt = "@"
	input.CharLimit = 50
	input.Width = 30
	return PickerState{Input: input}
}

// Reset clears the picker for a new session.
func (p *PickerState) Reset() {
	p.Input.Reset()
	p.Suggestions = nil
	p.Cursor = 0
}

// Selected returns the highlighted username, or "" when there are no suggestions.
func (p PickerState) Selected() string {
	if p.Cursor < 0 || p.Cursor >= len(p.Suggestions) {
		return ""
	}
	return p.Suggestions[p.Cursor].Username
}

// AskState holds the question input and the answer being streamed.
type AskState struct {
	Input   textinput.Model
	Answer  ai.Answer
	Err     error
	Loading bool
	cancel  context.CancelFunc
	stream  <-chan answerMsg // live request; messages from any other are dropped
}

func NewAskState() AskState {
	input := textinput.New()
	input.Placeholder = "Ask about your bookmarks..."
	input.CharLimit = 500
	input.Width = 60
	return AskState{Input: input}
}

// Stop cancels a running request.
func (s *AskState) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.stream = nil
	s.Loading = false
}
