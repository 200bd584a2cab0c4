package input

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(q *QueryInput, s string) {
	for _, r := range s {
		q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func submit(q *QueryInput, s string) string {
	q.Clear()
	typeText(q, s)
	return q.Submit()
}

func TestNewQueryInput(t *testing.T) {
	q := NewQueryInput(nil)

	require.NotNil(t, q.styles)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.Equal(t, 50, q.Width())
	assert.NotNil(t, q.Init())
}

func TestQueryInput_Typing(t *testing.T) {
	q := NewQueryInput(nil)

	typeText(q, "tax")
	q.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "ta", q.Value())
}

func TestQueryInput_Submit(t *testing.T) {
	t.Run("trims and records", func(t *testing.T) {
		q := NewQueryInput(nil)

		assert.Equal(t, "boiler warranty", submit(q, "  boiler warranty "))
		assert.Equal(t, []string{"boiler warranty"}, q.History())
	})

	t.Run("blank is ignored", func(t *testing.T) {
		q := NewQueryInput(nil)

		assert.Empty(t, submit(q, "   "))
		assert.Empty(t, q.History())
	})

	t.Run("repeat is recorded once", func(t *testing.T) {
		q := NewQueryInput(nil)
		submit(q, "passport")
		submit(q, "passport")

		assert.Len(t, q.History(), 1)
	})

	t.Run("history is capped", func(t *testing.T) {
		q := NewQueryInput(nil)
		for i := range MaxHistory + 5 {
			submit(q, fmt.Sprintf("q%d", i))
		}

		require.Len(t, q.History(), MaxHistory)
		assert.Equal(t, "q5", q.History()[0])
	})
}

func TestQueryInput_HistoryNavigation(t *testing.T) {
	q := NewQueryInput(nil)
	submit(q, "payslip")
	submit(q, "council tax")
	q.Clear()
	typeText(q, "insu")

	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}

	q.Update(up)
	assert.Equal(t, "council tax", q.Value())
	q.Update(up)
	assert.Equal(t, "payslip", q.Value())
	q.Update(up)
	assert.Equal(t, "payslip", q.Value(), "stops at the oldest")

	q.Update(down)
	assert.Equal(t, "council tax", q.Value())
	q.Update(down)
	assert.Equal(t, "insu", q.Value(), "returns to the draft")
	q.Update(down)
	assert.Equal(t, "insu", q.Value())
}

func TestQueryInput_NavigationWithoutHistory(t *testing.T) {
	q := NewQueryInput(nil)
	typeText(q, "x")

	q.Previous()
	q.Next()

	assert.Equal(t, "x", q.Value())
}

func TestQueryInput_FocusAndWidth(t *testing.T) {
	q := NewQueryInput(nil)

	q.Blur()
	assert.False(t, q.Focused())
	q.Focus()
	assert.True(t, q.Focused())

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 90, q.field.Width)

	q.SetWidth(10)
	assert.Equal(t, minFieldWidth, q.field.Width)
}

func TestQueryInput_View(t *testing.T) {
	q := NewQueryInput(nil)
	q.SetValue("deeds")

	assert.Contains(t, q.View(), "Find")
}
