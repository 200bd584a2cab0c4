// Package documents provides the catalogued documents list view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = fmt.Errorf("document service not available")

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	owner           string

	entries      []domain.IndexEntry
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	confirming   bool
	notice       string
	err          error
}

// NewView creates a new documents view listing owner's documents.
// An empty owner lists every document.
func NewView(s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService, owner string) *View {
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
		owner:           owner,
		width:           80,
		height:          24,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load resets the view and returns a command that fetches the index.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.confirming = false
	v.notice = ""
	v.err = nil

	svc, owner := v.documentService, v.owner
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		entries, err := svc.List(context.Background(), owner)
		return messages.DocumentsLoaded{Entries: entries, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.entries = msg.Entries
			if v.selected >= len(v.entries) {
				v.selected = max(len(v.entries)-1, 0)
			}
			v.adjustScroll()
		}
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		cmd := v.Load()
		v.notice = "Deleted " + msg.ID
		return v, cmd

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if v.confirming {
		v.confirming = false
		if keymap.Matches(key, v.keymap.Confirm) {
			return v, v.deleteSelected()
		}
		v.notice = ""
		return v, nil
	}

	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.entries)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Open):
		if entry := v.SelectedEntry(); entry != nil {
			id := entry.ID
			return v, func() tea.Msg {
				return messages.DocumentRequested{ID: id, Back: messages.ViewDocuments}
			}
		}
	case keymap.Matches(key, v.keymap.Delete):
		if entry := v.SelectedEntry(); entry != nil {
			v.confirming = true
			v.notice = fmt.Sprintf("Delete %s and its scan? [y] to confirm", entry.ID)
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

func (v *View) deleteSelected() tea.Cmd {
	entry := v.SelectedEntry()
	if entry == nil {
		return nil
	}
	id, svc := entry.ID, v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{ID: id, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{ID: id, Err: svc.Delete(context.Background(), id)}
	}
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// title, separator, notice, help
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Documents (%d)", len(v.entries))
	if v.owner != "" {
		title = fmt.Sprintf("Documents for %s (%d)", v.owner, len(v.entries))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.entries) == 0:
		b.WriteString(v.styles.Muted.Render("The shelf is empty. Ingest a scan with \"docshelf ingest\"."))
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.entries))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderEntry(i, &v.entries[i]))
			b.WriteString("\n")
		}
		if len(v.entries) > visible {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.entries))))
		}
	}

	if v.notice != "" {
		b.WriteString("\n\n")
		if v.confirming {
			b.WriteString(v.styles.Warning.Render(v.notice))
		} else {
			b.WriteString(v.styles.Success.Render(v.notice))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keymap.ListHelp()...)))
	return b.String()
}

func (v *View) renderEntry(index int, entry *domain.IndexEntry) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	date := entry.CreatedAt.Format("2006-01-02")
	category := entry.CategoryCode
	if category == "" {
		category = "unfiled"
	}
	preview := domain.Truncate(strings.Join(strings.Fields(entry.TextPreview), " "), max(v.width-50, 20))

	line := fmt.Sprintf("%s%-10s  %-14s", indicator, date, category)
	if index == v.selected {
		return v.styles.Selected.Render(line) + "  " + v.styles.Normal.Render(preview)
	}
	out := v.styles.Normal.Render(line)
	if entry.LocationName != "" {
		out += " " + v.styles.Location.Render(entry.LocationName)
	}
	return out + "  " + v.styles.Muted.Render(preview)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Entries returns the loaded index entries.
func (v *View) Entries() []domain.IndexEntry {
	return v.entries
}

// SelectedIndex returns the currently selected index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedEntry returns the currently selected entry.
func (v *View) SelectedEntry() *domain.IndexEntry {
	if v.selected < len(v.entries) {
		return &v.entries[v.selected]
	}
	return nil
}

// Confirming reports whether a delete is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
