// Package input provides the query box used by the search view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
)

// MaxHistory caps the number of remembered queries.
const MaxHistory = 50

const (
	minFieldWidth = 20
	labelWidth    = 10
)

// QueryInput is a single-line query box that remembers submitted queries.
// Up and Down walk the history, newest first.
type QueryInput struct {
	field   textinput.Model
	styles  *styles.Styles
	width   int
	history []string
	cursor  int    // index into history while browsing; len(history) when not
	draft   string // what was typed before browsing started
}

// NewQueryInput creates a focused query box.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "What are you looking for? e.g. car insurance renewal"
	field.CharLimit = 256
	field.Width = 50
	field.Focus()

	return &QueryInput{field: field, styles: s, width: 50}
}

// Init starts the cursor blinking.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update feeds a message to the field. Up and Down recall history.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // only history keys are intercepted
		switch key.Type {
		case tea.KeyUp:
			q.Previous()
			return q, nil
		case tea.KeyDown:
			q.Next()
			return q, nil
		}
	}
	var cmd tea.Cmd
	q.field, cmd = q.field.Update(msg)
	return q, cmd
}

// Submit returns the trimmed query and records it in the history.
// Blank queries return "" and are not recorded.
func (q *QueryInput) Submit() string {
	query := strings.TrimSpace(q.field.Value())
	if query == "" {
		return ""
	}
	if n := len(q.history); n == 0 || q.history[n-1] != query {
		q.history = append(q.history, query)
		if len(q.history) > MaxHistory {
			q.history = q.history[len(q.history)-MaxHistory:]
		}
	}
	q.cursor = len(q.history)
	q.draft = ""
	return query
}

// Previous replaces the field with the next older query.
func (q *QueryInput) Previous() {
	if q.cursor == 0 || len(q.history) == 0 {
		return
	}
	if q.cursor == len(q.history) {
		q.draft = q.field.Value()
	}
	q.cursor--
	q.setText(q.history[q.cursor])
}

// Next moves toward newer queries, ending at the unsent draft.
func (q *QueryInput) Next() {
	if q.cursor >= len(q.history) {
		return
	}
	q.cursor++
	if q.cursor == len(q.history) {
		q.setText(q.draft)
		return
	}
	q.setText(q.history[q.cursor])
}

// History returns submitted queries, oldest first.
func (q *QueryInput) History() []string {
	return q.history
}

func (q *QueryInput) setText(s string) {
	q.field.SetValue(s)
	q.field.CursorEnd()
}

// View renders the label and field.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Find: ")
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, q.styles.InputField.Render(q.field.View()))
}

// Value returns the current text.
func (q *QueryInput) Value() string { return q.field.Value() }

// SetValue replaces the text without touching the history.
func (q *QueryInput) SetValue(s string) { q.setText(s) }

// Focus gives the field keyboard focus.
func (q *QueryInput) Focus() tea.Cmd { return q.field.Focus() }

// Blur removes keyboard focus.
func (q *QueryInput) Blur() { q.field.Blur() }

// Focused reports whether the field has focus.
func (q *QueryInput) Focused() bool { return q.field.Focused() }

// SetWidth fits the field to width, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.field.Width = max(width-labelWidth, minFieldWidth)
}

// Width returns the configured width.
func (q *QueryInput) Width() int { return q.width }

// Clear empties the field and leaves history browsing.
func (q *QueryInput) Clear() {
	q.field.Reset()
	q.cursor = len(q.history)
	q.draft = ""
}
