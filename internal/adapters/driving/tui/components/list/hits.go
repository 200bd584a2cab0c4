// Package list renders ranked search hits as a scrolling list of cards.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// cardHeight is the number of lines one hit occupies, including the gap.
const cardHeight = 4

// HitList holds the hits of the last search and a cursor.
type HitList struct {
	styles *styles.Styles
	hits   []domain.SearchHit
	cursor int
	width  int
	height int
}

// NewHitList creates an empty list.
func NewHitList(s *styles.Styles) *HitList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &HitList{styles: s, width: 80, height: 12}
}

// SetHits replaces the hits and moves the cursor to the best match.
func (l *HitList) SetHits(hits []domain.SearchHit) {
	l.hits = hits
	l.cursor = 0
}

// Hits returns the hits in rank order.
func (l *HitList) Hits() []domain.SearchHit { return l.hits }

// Len returns the number of hits.
func (l *HitList) Len() int { return len(l.hits) }

// Cursor returns the index of the highlighted hit.
func (l *HitList) Cursor() int { return l.cursor }

// Selected returns the highlighted hit, or nil when the list is empty.
func (l *HitList) Selected() *domain.SearchHit {
	if l.cursor >= len(l.hits) {
		return nil
	}
	return &l.hits[l.cursor]
}

// Up moves the cursor toward better matches.
func (l *HitList) Up() {
	l.cursor = max(l.cursor-1, 0)
}

// Down moves the cursor toward weaker matches.
func (l *HitList) Down() {
	l.cursor = min(l.cursor+1, max(len(l.hits)-1, 0))
}

// SetSize sets the area available to the list.
func (l *HitList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// window returns the range of hits that fit, keeping the cursor visible.
func (l *HitList) window() (int, int) {
	fits := max((l.height-2)/cardHeight, 1)
	start := max(l.cursor-fits+1, 0)
	return start, min(start+fits, len(l.hits))
}

// View renders the visible cards under a header.
func (l *HitList) View() string {
	if len(l.hits) == 0 {
		return l.styles.Muted.Render("Nothing found yet. Try describing the paper, not the filename.")
	}

	start, end := l.window()
	var b strings.Builder
	b.WriteString(l.styles.Subtitle.Render(fmt.Sprintf("Best matches %d-%d of %d", start+1, end, len(l.hits))))
	for i := start; i < end; i++ {
		b.WriteString("\n\n")
		b.WriteString(l.card(i))
	}
	return b.String()
}

// card renders one hit: heading, where it is filed, and a snippet.
func (l *HitList) card(i int) string {
	hit := &l.hits[i]
	textWidth := max(l.width-8, 20)

	title := hit.Title
	if title == "" {
		title = hit.DocumentID
	}
	heading := fmt.Sprintf("%2d. %s", i+1, domain.Truncate(title, textWidth-8))
	match := fmt.Sprintf("%3.0f%%", hit.Score*100)
	if i == l.cursor {
		heading = l.styles.Selected.Render(heading + "  " + match)
	} else {
		heading = l.styles.Normal.Render(heading) + "  " + l.styles.Muted.Render(match)
	}

	return heading + "\n" +
		l.styles.Subtitle.Render("    "+filing(hit)) + "\n" +
		l.styles.Muted.Render("    "+domain.Truncate(hit.Snippet, textWidth))
}

// filing describes where the paper copy lives.
func filing(hit *domain.SearchHit) string {
	parts := make([]string, 0, 3)
	if hit.Category != "" {
		parts = append(parts, hit.Category)
	} else {
		parts = append(parts, "unfiled")
	}
	if hit.Location != nil && hit.Location.Name != "" {
		parts = append(parts, "in "+hit.Location.Name)
	}
	if date, _, _ := strings.Cut(hit.CreatedAt, "T"); date != "" {
		parts = append(parts, "scanned "+date)
	}
	return strings.Join(parts, " · ")
}
