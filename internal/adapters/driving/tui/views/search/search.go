// Package search provides the main search view for the TUI.
package search

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

// View represents the search view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.HitList
	statusbar *status.Bar

	searchService driving.SearchService
	owner         string
	ctx           context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a query, false = navigating results
}

// NewView creates a new search view scoped to owner.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	searchService driving.SearchService,
	owner string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQueryInput(s),
		list:          list.NewHitList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		owner:         owner,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	// Cursor blink and other field ticks.
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := v.input.Submit()
			if query == "" {
				return v, nil
			}
			v.statusbar.Searching()
			v.focusInput = false
			v.input.Blur()
			return v, v.performSearch(query)
		}
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		v.list.Up()
		return v, nil
	case tea.KeyDown:
		v.list.Down()
		return v, nil
	case tea.KeyEnter:
		hit := v.list.Selected()
		if hit == nil {
			return v, nil
		}
		id := hit.DocumentID
		return v, func() tea.Msg {
			return messages.DocumentRequested{ID: id, Back: messages.ViewSearch}
		}
	}

	switch msg.String() {
	case "k":
		v.list.Up()
	case "j":
		v.list.Down()
	case "n":
		v.focusInput = true
		v.input.Focus()
		v.input.Clear()
	}

	return v, nil
}

// performSearch runs the query off the update loop.
func (v *View) performSearch(query string) tea.Cmd {
	owner := v.owner
	return func() tea.Msg {
		if v.searchService == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}

		hits, err := v.searchService.Search(v.ctx, query, domain.SearchOptions{
			OwnerID:         owner,
			IncludeLocation: true,
		})
		return messages.SearchCompleted{Results: hits, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetHits(msg.Results)
	v.statusbar.Results(len(msg.Results))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.Failed(err)
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("docshelf"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())
	if !v.focusInput && v.list.Len() > 0 {
		sections = append(sections, "", v.styles.Help.Render(keymap.HelpLine(v.keymap.ResultsHelp()...)))
	}
	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetSize(width, height-10)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchHit {
	return v.list.Hits()
}

// SelectedResult returns the currently selected result.
func (v *View) SelectedResult() *domain.SearchHit {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Notify shows a transient message in the status bar.
func (v *View) Notify(message string) {
	v.statusbar.Notify(message)
}

// Reset returns the view to an empty query.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.Clear()
	v.list.SetHits(nil)
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
