package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/xbm/internal/ai"
	"github.com/nikbrunner/xbm/internal/browser"
	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/query"
)

// App is the main bubbletea model for browsing the archive.
type App struct {
	lib     *library.Library
	session *ai.Session // nil disables ask
	keys    KeyMap
	styles  Styles

	mode   Mode
	items  []Item
	cursor int
	search textinput.Model
	picker PickerState
	ask    AskState
	status string

	copy func(string) error
	open func(string) error

	// For gg command
	lastKeyWasG bool

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Library   *library.Library
	Session   *ai.Session
	Keys      *KeyMap            // optional, uses default if nil
	Styles    *Styles            // optional, uses default if nil
	Clipboard func(string) error // optional, system clipboard if nil
	Open      func(string) error // optional, default browser if nil
}

// NewApp creates a new App with the given parameters.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	search := textinput.New()
	search.Placeholder = "Search posts or usernames"
	search.Prompt = "/"
	search.CharLimit = 200
	search.Width = 40
	search.SetValue(params.Library.Params().Search)

	app := App{
		lib:     params.Library,
		session: params.Session,
		keys:    keys,
		styles:  styles,
		search:  search,
		picker:  NewPickerState(),
		ask:     NewAskState(),
		copy:    params.Clipboard,
		open:    params.Open,
		width:   80,
		height:  24,
	}
	if app.copy == nil {
		app.copy = clipboard.WriteAll
	}
	if app.open == nil {
		app.open = browser.Open
	}

	app.refreshItems()
	return app
}

// refreshItems rebuilds the list from the library's current view.
func (a *App) refreshItems() {
	view := a.lib.View()
	a.items = make([]Item, len(view))
	for i, b := range view {
		a.items[i] = Item{Bookmark: b}
	}
	if a.cursor >= len(a.items) {
		a.cursor = max(len(a.items)-1, 0)
	}
}

// WithDimensions returns a copy with a fixed terminal size.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Mode returns the current input mode.
func (a App) Mode() Mode {
	return a.mode
}

// Items returns the bookmarks currently listed.
func (a App) Items() []Item {
	return a.items
}

// Status returns the last status line message.
func (a App) Status() string {
	return a.status
}

// Answer returns the latest AI answer snapshot.
func (a App) Answer() ai.Answer {
	return a.ask.Answer
}

// Selected returns the bookmark under the cursor.
func (a App) Selected() (model.Bookmark, bool) {
	if a.cursor < 0 || a.cursor >= len(a.items) {
		return model.Bookmark{}, false
	}
	return a.items[a.cursor].Bookmark, true
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case answerMsg:
		return a.handleAnswer(msg)

	case tea.KeyMsg:
		switch a.mode {
		case ModeSearch:
			return a.updateSearch(msg)
		case ModeUserPicker:
			return a.updatePicker(msg)
		case ModeAsk:
			return a.updateAsk(msg)
		case ModeHelp:
			if key.Matches(msg, a.keys.Help, a.keys.Quit) || msg.Type == tea.KeyEsc {
				a.mode = ModeNormal
			}
			return a, nil
		}
		return a.updateNormal(msg)
	}

	return a, nil
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false
	a.status = ""

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.ask.Stop()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if len(a.items) > 0 && a.cursor < len(a.items)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.items) > 0 {
			a.cursor = len(a.items) - 1
		}

	case key.Matches(msg, a.keys.Search):
		a.mode = ModeSearch
		return a, a.search.Focus()

	case key.Matches(msg, a.keys.Sort):
		p := a.lib.UpdateParams(func(p query.Params) query.Params {
			p.Sort = p.Sort.Toggle()
			return p
		})
		a.status = "Sorted by " + string(p.Sort)
		a.refreshItems()

	case key.Matches(msg, a.keys.Media):
		p := a.lib.UpdateParams(func(p query.Params) query.Params {
			p.Media = p.Media.Next()
			return p
		})
		a.status = "Media: " + string(p.Media)
		a.cursor = 0
		a.refreshItems()

	case key.Matches(msg, a.keys.User):
		a.mode = ModeUserPicker
		a.picker.Reset()
		a.picker.Suggestions = query.SuggestUsernames(a.lib.Collection(), "")
		return a, a.picker.Input.Focus()

	case key.Matches(msg, a.keys.ClearUser):
		a.lib.UpdateParams(func(p query.Params) query.Params { return p.WithUsername("") })
		a.status = "Showing all users"
		a.cursor = 0
		a.refreshItems()

	case key.Matches(msg, a.keys.Yank):
		if b, ok := a.Selected(); ok {
			if err := a.copy(b.Permalink()); err != nil {
				a.status = "Copy failed: " + err.Error()
			} else {
				a.status = "Copied " + b.Permalink()
			}
		}

	case key.Matches(msg, a.keys.Open):
		if b, ok := a.Selected(); ok {
			if err := a.open(b.Permalink()); err != nil {
				a.status = "Open failed: " + err.Error()
			}
		}

	case key.Matches(msg, a.keys.Ask):
		if a.session == nil {
			a.status = ai.NoKeyMessage
			return a, nil
		}
		a.mode = ModeAsk
		return a, a.ask.Input.Focus()

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp
	}

	return a, nil
}

// updateSearch applies the query as it is typed.
func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.mode = ModeNormal
		a.search.Blur()
		return a, nil
	case tea.KeyEsc:
		a.mode = ModeNormal
		a.search.Blur()
		a.search.Reset()
		a.setSearch("")
		return a, nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	a.setSearch(a.search.Value())
	return a, cmd
}

func (a *App) setSearch(s string) {
	a.lib.UpdateParams(func(p query.Params) query.Params {
		p.Search = s
		return p
	})
	a.cursor = 0
	a.refreshItems()
}

func (a App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = ModeNormal
		a.picker.Input.Blur()
		return a, nil

	case tea.KeyEnter:
		if name := a.picker.Selected(); name != "" {
			a.lib.UpdateParams(func(p query.Params) query.Params { return p.WithUsername(name) })
			a.status = "Showing @" + name
			a.cursor = 0
			a.refreshItems()
		}
		a.mode = ModeNormal
		a.picker.Input.Blur()
		return a, nil

	case tea.KeyDown, tea.KeyCtrlN, tea.KeyTab:
		if a.picker.Cursor < len(a.picker.Suggestions)-1 {
			a.picker.Cursor++
		}
		return a, nil

	case tea.KeyUp, tea.KeyCtrlP, tea.KeyShiftTab:
		if a.picker.Cursor > 0 {
			a.picker.Cursor--
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.picker.Input, cmd = a.picker.Input.Update(msg)
	a.picker.Suggestions = query.SuggestUsernames(a.lib.Collection(), a.picker.Input.Value())
	a.picker.Cursor = 0
	return a, cmd
}

func (a App) updateAsk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.ask.Stop()
		a.ask.Input.Blur()
		a.mode = ModeNormal
		return a, nil

	case tea.KeyEnter:
		question := a.ask.Input.Value()
		if question == "" || a.ask.Loading {
			return a, nil
		}
		a.ask.Stop()
		ctx, cancel := context.WithCancel(context.Background())
		a.ask.cancel = cancel
		a.ask.Loading = true
		a.ask.Err = nil
		a.ask.stream = startAsk(ctx, a.session, question, a.lib.Collection())
		return a, waitForAnswer(a.ask.stream)
	}

	var cmd tea.Cmd
	a.ask.Input, cmd = a.ask.Input.Update(msg)
	return a, cmd
}

func (a App) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	if msg.ch == nil || msg.ch != a.ask.stream {
		return a, nil
	}
	switch {
	case msg.done:
		a.ask.stream = nil
		a.ask.Loading = false
		return a, nil
	case msg.err != nil:
		a.ask.stream = nil
		a.ask.Err = msg.err
		a.ask.Loading = false
		return a, nil
	}
	a.ask.Answer = msg.answer
	return a, waitForAnswer(msg.ch)
}

// answerMsg carries one element of an answer stream to Update.
type answerMsg struct {
	answer ai.Answer
	err    error
	done   bool
	ch     <-chan answerMsg
}

// startAsk runs the question on its own goroutine. Its snapshots arrive on
// the returned channel, which identifies the request.
func startAsk(ctx context.Context, session *ai.Session, question string, c model.Collection) <-chan answerMsg {
	ch := make(chan answerMsg)
	go func() {
		defer close(ch)
		for answer, err := range session.Ask(ctx, question, c) {
			select {
			case ch <- answerMsg{answer: answer, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

func waitForAnswer(ch <-chan answerMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return answerMsg{done: true, ch: ch}
		}
		msg.ch = ch
		return msg
	}
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}

func (a App) countLabel() string {
	return fmt.Sprintf("%d of %d", len(a.items), len(a.lib.Collection()))
}
