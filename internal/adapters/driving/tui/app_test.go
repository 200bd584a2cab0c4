package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

func newTestApp(t *testing.T) (*App, *MockDocumentService) {
	t.Helper()
	docs := &MockDocumentService{
		ListFunc: func(_ context.Context, ownerID string) ([]domain.IndexEntry, error) {
			return []domain.IndexEntry{{ID: "doc-1", OwnerID: ownerID, CategoryCode: "INSURANCE"}}, nil
		},
		ListFailedFunc: func(context.Context) ([]domain.ErrorDocument, error) {
			return []domain.ErrorDocument{{
				DocumentRecord: domain.DocumentRecord{ID: "err-1", Source: "/scans/blurry.jpg"},
				FailedStep:     "ocr",
				ErrorMessage:   "no text found",
			}}, nil
		},
	}
	search := &MockSearchService{
		SearchFunc: func(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchHit, error) {
			return []domain.SearchHit{{DocumentID: "doc-1", Title: "Car insurance", Score: 0.9}}, nil
		},
	}
	app, err := NewApp(NewPorts(search, docs, &MockIngestService{}, "alice"))
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app, docs
}

// run feeds msg to the app and then every message its commands produce.
func run(app *App, msg tea.Msg) {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		_, cmd := app.Update(next)
		queue = append(queue, collect(cmd)...)
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch m := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, collect(c)...)
		}
		return out
	case tea.QuitMsg:
		return nil
	case messages.ViewChanged, messages.SearchCompleted, messages.DocumentsLoaded,
		messages.DocumentDeleted, messages.FailedLoaded, messages.RetryCompleted,
		messages.FailedDeleted, messages.DocumentRequested, messages.DocumentLoaded,
		messages.ErrorOccurred:
		return []tea.Msg{msg}
	}
	// Cursor blinks and window titles are not replayed.
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.True(t, app.Ready())
	assert.NotNil(t, app.Init())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(nil)
	assert.ErrorIs(t, err, ErrInvalidPorts)

	_, err = NewApp(&Ports{Document: &MockDocumentService{}})
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, &MockDocumentService{}, nil, ""))
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())

	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "docshelf")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(key("ctrl+c"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_SearchAndOpenResult(t *testing.T) {
	app, _ := newTestApp(t)

	run(app, messages.ViewChanged{View: messages.ViewSearch})
	require.Equal(t, messages.ViewSearch, app.CurrentView())

	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("insurance")})
	run(app, key("enter"))
	assert.Contains(t, app.View(), "Car insurance")

	run(app, key("enter"))
	assert.Equal(t, messages.ViewDocDetails, app.CurrentView())
	assert.Contains(t, app.View(), "doc-1")

	run(app, key("esc"))
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Contains(t, app.View(), "Car insurance", "results survive a round trip to the document")
}

func TestApp_DocumentsView(t *testing.T) {
	app, _ := newTestApp(t)

	run(app, messages.ViewChanged{View: messages.ViewDocuments})

	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	out := app.View()
	assert.Contains(t, out, "Documents for alice (1)")
	assert.Contains(t, out, "INSURANCE")
}

func TestApp_DeleteDocument(t *testing.T) {
	app, docs := newTestApp(t)
	run(app, messages.ViewChanged{View: messages.ViewDocuments})

	run(app, key("d"))
	run(app, key("y"))

	assert.Equal(t, []string{"doc-1"}, docs.Deleted)
	assert.Contains(t, app.View(), "Deleted doc-1")
}

func TestApp_FailedViewRetry(t *testing.T) {
	app, _ := newTestApp(t)
	ingest := app.ports.Ingest.(*MockIngestService)

	run(app, messages.ViewChanged{View: messages.ViewFailed})
	assert.Contains(t, app.View(), "no text found")

	run(app, key("R"))

	assert.Equal(t, []string{"err-1"}, ingest.Retried)
	assert.Contains(t, app.View(), "catalogued as doc-retried")
}

func TestApp_OpenFailedDocument(t *testing.T) {
	app, _ := newTestApp(t)
	run(app, messages.ViewChanged{View: messages.ViewFailed})

	run(app, key("enter"))

	assert.Equal(t, messages.ViewDocDetails, app.CurrentView())
	assert.Contains(t, app.View(), "Failed ingestion")

	run(app, key("esc"))
	assert.Equal(t, messages.ViewFailed, app.CurrentView())
}

func TestApp_DocumentLoadError(t *testing.T) {
	app, docs := newTestApp(t)
	docs.GetFunc = func(context.Context, string) (*domain.DocumentRecord, error) {
		return nil, domain.ErrNotFound
	}

	run(app, messages.DocumentRequested{ID: "missing", Back: messages.ViewDocuments})

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
	assert.Equal(t, messages.ViewDocDetails, app.CurrentView())
	assert.Contains(t, app.View(), "not found")
}

func TestApp_HelpView(t *testing.T) {
	app, _ := newTestApp(t)

	run(app, messages.ViewChanged{View: messages.ViewHelp})
	out := app.View()
	assert.Contains(t, out, "Help")
	assert.Contains(t, out, "retry")
	assert.Contains(t, out, "new search")

	run(app, key("esc"))
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)
	run(app, messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.ErrorOccurred{Err: errors.New("llm unavailable")})

	assert.EqualError(t, app.Err(), "llm unavailable")
	assert.Contains(t, app.View(), "llm unavailable")
}

func TestApp_MenuNavigation(t *testing.T) {
	app, _ := newTestApp(t)

	run(app, key("j"))
	run(app, key("enter"))

	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
}
