// Package status renders the one-line footer of the search view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
)

// State is what the search view is doing.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateResults
	StateError
)

// Bar shows the search state on the left and key hints on the right.
// It holds no tea.Model logic; the owning view drives it.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	width  int

	state  State
	hits   int
	notice string
	err    string
}

// NewBar creates an idle bar.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, width: 80}
}

// Searching marks a query as in flight.
func (b *Bar) Searching() {
	b.state = StateSearching
	b.err = ""
}

// Results records how many documents the last query matched.
func (b *Bar) Results(n int) {
	b.state = StateResults
	b.hits = n
	b.err = ""
	b.notice = ""
}

// Failed shows err until the next search.
func (b *Bar) Failed(err error) {
	b.state = StateError
	b.err = err.Error()
}

// Notify shows a one-off message in place of the result count.
func (b *Bar) Notify(msg string) {
	b.notice = msg
}

// Clear returns the bar to idle.
func (b *Bar) Clear() {
	*b = Bar{styles: b.styles, keymap: b.keymap, width: b.width}
}

// State returns the current state.
func (b *Bar) State() State { return b.state }

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) { b.width = width }

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left, right := b.left(), b.hints()
	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) left() string {
	switch {
	case b.state == StateError:
		return b.styles.Error.Render("Error: " + b.err)
	case b.state == StateSearching:
		return b.styles.Muted.Render("Searching...")
	case b.notice != "":
		return b.styles.Success.Render(b.notice)
	case b.state != StateResults:
		return b.styles.Muted.Render("Ready")
	case b.hits == 0:
		return b.styles.Muted.Render("No matching documents")
	case b.hits == 1:
		return b.styles.Normal.Render("1 document")
	default:
		return b.styles.Normal.Render(fmt.Sprintf("%d documents", b.hits))
	}
}

func (b *Bar) hints() string {
	bindings := b.keymap.ShortHelp()
	if b.state == StateResults && b.hits > 0 {
		bindings = b.keymap.ResultsHelp()
	}
	return b.styles.Muted.Render(keymap.HelpLine(bindings...))
}
