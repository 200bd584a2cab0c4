// Package failed provides the failed ingestions view for the TUI.
package failed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

var (
	// ErrNoDocumentService indicates that no document service was provided.
	ErrNoDocumentService = errors.New("document service not available")

	// ErrNoIngestService indicates retries are not available.
	ErrNoIngestService = errors.New("retry not available: ingest service not configured")
)

// View lists documents whose ingestion failed.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	ingestService   driving.IngestService

	documents  []domain.ErrorDocument
	selected   int
	width      int
	height     int
	ready      bool
	loading    bool
	retrying   bool
	confirming bool
	notice     string
	err        error
}

// NewView creates a failed ingestions view. ingestService may be nil,
// in which case retry is disabled.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	documentService driving.DocumentService,
	ingestService driving.IngestService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:          s,
		keymap:          km,
		documentService: documentService,
		ingestService:   ingestService,
		width:           80,
		height:          24,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches the failed documents.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.confirming = false
	v.err = nil

	svc := v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.FailedLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.ListFailed(context.Background())
		return messages.FailedLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the failed view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.FailedLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			if v.selected >= len(v.documents) {
				v.selected = max(len(v.documents)-1, 0)
			}
		}
		return v, nil

	case messages.RetryCompleted:
		v.retrying = false
		return v, v.handleRetry(msg)

	case messages.FailedDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		cmd := v.Load()
		v.notice = "Discarded " + msg.ID
		return v, cmd

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleRetry(msg messages.RetryCompleted) tea.Cmd {
	switch {
	case msg.Err != nil:
		v.err = msg.Err
		return nil
	case msg.State != nil && msg.State.Status.IsFailure():
		v.notice = fmt.Sprintf("Retry of %s failed at %s: %s", msg.ErrorID, msg.State.Status.FailedStep(), msg.State.Error)
	case msg.State != nil && msg.State.DocumentID != "":
		v.notice = fmt.Sprintf("Retried %s, catalogued as %s", msg.ErrorID, msg.State.DocumentID)
	default:
		v.notice = "Retried " + msg.ErrorID
	}
	return v.Load()
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if v.confirming {
		v.confirming = false
		v.notice = ""
		if keymap.Matches(key, v.keymap.Confirm) {
			return v, v.deleteSelected()
		}
		return v, nil
	}

	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
		}
	case keymap.Matches(key, v.keymap.Open):
		if doc := v.SelectedDocument(); doc != nil {
			id := doc.ID
			return v, func() tea.Msg {
				return messages.DocumentRequested{ID: id, Back: messages.ViewFailed}
			}
		}
	case keymap.Matches(key, v.keymap.Retry):
		return v, v.retrySelected()
	case keymap.Matches(key, v.keymap.Delete):
		if doc := v.SelectedDocument(); doc != nil {
			v.confirming = true
			v.notice = fmt.Sprintf("Discard %s? [y] to confirm", doc.ID)
		}
	case keymap.Matches(key, v.keymap.Reload):
		return v, v.Load()
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

func (v *View) retrySelected() tea.Cmd {
	doc := v.SelectedDocument()
	if doc == nil || v.retrying {
		return nil
	}
	if v.ingestService == nil {
		v.err = ErrNoIngestService
		return nil
	}

	v.retrying = true
	v.notice = "Retrying " + doc.ID + "..."
	id, svc := doc.ID, v.ingestService
	return func() tea.Msg {
		state, err := svc.Retry(context.Background(), id)
		return messages.RetryCompleted{ErrorID: id, State: state, Err: err}
	}
}

func (v *View) deleteSelected() tea.Cmd {
	doc := v.SelectedDocument()
	if doc == nil {
		return nil
	}
	id, svc := doc.ID, v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.FailedDeleted{ID: id, Err: ErrNoDocumentService}
		}
		return messages.FailedDeleted{ID: id, Err: svc.DeleteFailed(context.Background(), id)}
	}
}

// View renders the failed ingestions list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Failed ingestions (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading failed ingestions..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Success.Render("Nothing failed. Every scan made it onto the shelf."))
	default:
		for i := range v.documents {
			b.WriteString(v.renderDocument(i, &v.documents[i]))
			b.WriteString("\n")
		}
	}

	if v.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Warning.Render(v.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keymap.FailedHelp()...)))
	return b.String()
}

func (v *View) renderDocument(index int, doc *domain.ErrorDocument) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	source := doc.Source
	if limit := max(v.width/2, 20); len([]rune(source)) > limit {
		source = "..." + string([]rune(source)[len([]rune(source))-limit+3:])
	}
	line := fmt.Sprintf("%s%-12s  %s", indicator, doc.FailedStep, source)
	reason := domain.Truncate(doc.ErrorMessage, max(v.width-len([]rune(line))-4, 20))

	if index == v.selected {
		return v.styles.Selected.Render(line) + "  " + v.styles.Error.Render(reason)
	}
	return v.styles.Normal.Render(line) + "  " + v.styles.Muted.Render(reason)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the loaded failed documents.
func (v *View) Documents() []domain.ErrorDocument {
	return v.documents
}

// SelectedIndex returns the currently selected index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected failed document.
func (v *View) SelectedDocument() *domain.ErrorDocument {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
