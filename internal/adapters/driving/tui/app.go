package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/views/failed"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/views/search"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView       *menu.View
	searchView     *search.View
	documentsView  *documents.View
	failedView     *failed.View
	docDetailsView *docdetails.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, ErrInvalidPorts
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		keymap:         km,
		menuView:       menu.NewView(s),
		searchView:     search.NewView(s, km, ports.Search, ports.Owner),
		documentsView:  documents.NewView(s, km, ports.Document, ports.Owner),
		failedView:     failed.NewView(s, km, ports.Document, ports.Ingest),
		docDetailsView: docdetails.NewView(s),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("docshelf"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.FailedLoaded, messages.RetryCompleted, messages.FailedDeleted:
		a.failedView, cmd = a.failedView.Update(msg)
		return a, cmd

	case messages.DocumentRequested:
		a.docDetailsView.SetBack(msg.Back)
		return a, a.loadDocument(msg)

	case messages.DocumentLoaded:
		a.currentView = messages.ViewDocDetails
		switch {
		case msg.Err != nil:
			a.err = msg.Err
			a.docDetailsView.SetDocument(nil)
			a.docDetailsView.SetError(msg.Err)
		case msg.Failure != nil:
			a.docDetailsView.SetFailure(msg.Failure)
		default:
			a.docDetailsView.SetDocument(msg.Document)
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward hands msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewFailed:
		a.failedView, cmd = a.failedView.Update(msg)
	case messages.ViewDocDetails:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// switchTo activates a view and returns its start-up command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	previous := a.currentView
	a.currentView = view

	switch view {
	case messages.ViewSearch:
		// Coming back from a document keeps the results.
		if previous == messages.ViewDocDetails {
			return nil
		}
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewDocuments:
		if previous == messages.ViewDocDetails {
			return nil
		}
		return a.documentsView.Load()
	case messages.ViewFailed:
		if previous == messages.ViewDocDetails {
			return nil
		}
		return a.failedView.Load()
	case messages.ViewMenu, messages.ViewDocDetails, messages.ViewHelp:
	}
	return nil
}

// loadDocument fetches the requested document off the update loop.
func (a *App) loadDocument(req messages.DocumentRequested) tea.Cmd {
	ctx, docs := a.ctx, a.ports.Document
	return func() tea.Msg {
		if req.Back == messages.ViewFailed {
			doc, err := docs.GetFailed(ctx, req.ID)
			return messages.DocumentLoaded{Failure: doc, Err: err}
		}
		rec, _, err := docs.Get(ctx, req.ID, false)
		return messages.DocumentLoaded{Document: rec, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewFailed:
		return a.failedView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

// viewHelp renders the help view from the keymap.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Muted.Render("Search looks for documents by meaning, so \"car insurance\" finds a policy renewal."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.failedView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
}
