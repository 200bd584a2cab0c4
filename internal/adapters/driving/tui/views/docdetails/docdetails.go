// Package docdetails provides the document details view for the TUI.
package docdetails

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// View shows a catalogued or failed document with its text.
type View struct {
	styles *styles.Styles

	document     *domain.DocumentRecord
	failure      *domain.ErrorDocument
	back         messages.ViewType
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a new document details view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		back:   messages.ViewMenu,
		width:  80,
		height: 24,
	}
}

// SetDocument shows a catalogued document.
func (v *View) SetDocument(rec *domain.DocumentRecord) {
	v.document = rec
	v.failure = nil
	v.reset()
}

// SetFailure shows a document whose ingestion failed.
func (v *View) SetFailure(doc *domain.ErrorDocument) {
	v.failure = doc
	v.document = nil
	if doc != nil {
		v.document = &doc.DocumentRecord
	}
	v.reset()
}

// SetBack sets the view esc returns to.
func (v *View) SetBack(back messages.ViewType) {
	v.back = back
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

func (v *View) reset() {
	v.scrollOffset = 0
	v.err = nil
	v.lines = v.buildContent()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgdown", " ":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "pgup":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "g", "home":
		v.scrollOffset = 0
	case "G", "end":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}

	return v, nil
}

func (v *View) visibleLines() int {
	// title, separator, help, padding
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// buildContent renders the document as display lines.
func (v *View) buildContent() []string {
	doc := v.document
	if doc == nil {
		return nil
	}

	var lines []string
	lines = append(lines, field("ID", doc.ID))
	if doc.OwnerID != "" {
		lines = append(lines, field("Owner", doc.OwnerID))
	}
	lines = append(lines, field("Source", doc.Source))
	if doc.FileType != "" {
		lines = append(lines, field("Type", doc.FileType))
	}
	if !doc.CreatedAt.IsZero() {
		lines = append(lines, field("Created", doc.CreatedAt.Format(timeLayout)))
	}
	if doc.Status != "" {
		lines = append(lines, field("Status", doc.Status.String()))
	}
	if doc.OCRConfidence > 0 {
		lines = append(lines, field("OCR", fmt.Sprintf("%.0f%% confidence", doc.OCRConfidence*100)))
	}
	if doc.UserNotes != "" {
		lines = append(lines, field("Notes", doc.UserNotes))
	}

	if f := v.failure; f != nil {
		lines = append(lines, "", "Failure:",
			field("  Step", f.FailedStep),
			field("  Error", f.ErrorMessage))
		if !f.FailedAt.IsZero() {
			lines = append(lines, field("  Failed at", f.FailedAt.Format(timeLayout)))
		}
	}

	if a := doc.Assignment; a != nil {
		category := a.CategoryCode
		if a.CategoryName != "" {
			category = fmt.Sprintf("%s (%s)", a.CategoryCode, a.CategoryName)
		}
		lines = append(lines, "", "Filing:", field("  Category", category))
		if a.HasLocation() {
			lines = append(lines, field("  Location", a.LocationName))
		}
		if len(a.Tags) > 0 {
			lines = append(lines, field("  Tags", strings.Join(a.Tags, ", ")))
		}
		if a.Reason != "" {
			lines = append(lines, field("  Reason", a.Reason))
		}
	}

	if len(doc.Steps) > 0 {
		lines = append(lines, "", field("Steps", strings.Join(doc.Steps, " → ")))
	}

	text := doc.Text
	if text == "" {
		text = doc.RawText
	}
	if text != "" {
		lines = append(lines, "", "Text:")
		lines = append(lines, wrap(text, max(v.width-4, 20))...)
	}

	return lines
}

func field(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// wrap splits text into lines no wider than width runes.
func wrap(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			out = append(out, string(runes[:width]))
			runes = runes[width:]
		}
		out = append(out, string(runes))
	}
	return out
}

// View renders the document details view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.failure != nil {
		title = "Failed ingestion"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.document == nil:
		b.WriteString(v.styles.Muted.Render("No document selected"))
	default:
		v.renderLines(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [pgup/pgdn] page  [esc] back"))
	return b.String()
}

func (v *View) renderLines(b *strings.Builder) {
	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	inText := false
	for i := 0; i < end; i++ {
		line := v.lines[i]
		if line == "Text:" {
			inText = true
		}
		if i < v.scrollOffset {
			continue
		}
		b.WriteString(v.renderLine(line, inText))
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", v.scrollOffset+1, end, len(v.lines))))
	}
}

func (v *View) renderLine(line string, inText bool) string {
	switch {
	case line == "Text:" || line == "Filing:" || line == "Failure:":
		return v.styles.Subtitle.Render(line)
	case inText:
		return v.styles.Normal.Render(line)
	}

	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return v.styles.Normal.Render(line)
	}
	valueStyle := v.styles.Normal
	switch strings.TrimSpace(label) {
	case "Category":
		valueStyle = v.styles.Category
	case "Location":
		valueStyle = v.styles.Location
	case "Error":
		valueStyle = v.styles.Error
	}
	return v.styles.Muted.Render(label+":") + valueStyle.Render(value)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.lines = v.buildContent()
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// Document returns the displayed document.
func (v *View) Document() *domain.DocumentRecord {
	return v.document
}

// Failure returns the displayed failure, if any.
func (v *View) Failure() *domain.ErrorDocument {
	return v.failure
}

// Back returns the view esc returns to.
func (v *View) Back() messages.ViewType {
	return v.back
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
