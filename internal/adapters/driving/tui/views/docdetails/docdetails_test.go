package docdetails

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docshelf/internal/core/domain"
)

func testRecord() *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:            "doc-1",
		OwnerID:       "alice",
		Source:        "/scans/policy.jpg",
		FileType:      "image/jpeg",
		UserNotes:     "renewal letter",
		Text:          "Your car insurance renews on 1 April.\nPremium: 412.00",
		OCRConfidence: 0.92,
		Status:        domain.StatusCompleted,
		Steps:         []string{"ocr", "cleaning", "assignment", "embedding"},
		CreatedAt:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Assignment: &domain.Assignment{
			CategoryCode: "INSURANCE",
			CategoryName: "Insurance",
			LocationID:   3,
			LocationName: "Blue binder",
			Tags:         []string{"car", "renewal"},
			Reason:       "mentions premium and policy",
		},
	}
}

func TestNewView(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Equal(t, messages.ViewMenu, view.Back())
	assert.Nil(t, view.Init())
	assert.Contains(t, view.View(), "No document selected")
}

func TestView_SetDocument(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 60)

	view.SetDocument(testRecord())

	out := view.View()
	for _, want := range []string{
		"doc-1", "alice", "/scans/policy.jpg", "renewal letter", "92% confidence",
		"INSURANCE (Insurance)", "Blue binder", "car, renewal", "mentions premium",
		"ocr → cleaning", "Your car insurance renews", "Premium: 412.00",
	} {
		assert.Contains(t, out, want)
	}
	assert.Nil(t, view.Failure())
}

func TestView_SetFailure(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 60)

	view.SetFailure(&domain.ErrorDocument{
		DocumentRecord: domain.DocumentRecord{ID: "err-1", Source: "/scans/blurry.jpg"},
		FailedStep:     "ocr",
		ErrorMessage:   "no text found",
		FailedAt:       time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})

	out := view.View()
	assert.Contains(t, out, "Failed ingestion")
	assert.Contains(t, out, "no text found")
	assert.Contains(t, out, "2026-03-14 10:00:00")
	require.NotNil(t, view.Document())
	assert.Equal(t, "err-1", view.Document().ID)
}

func TestView_FallsBackToRawText(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 40)

	view.SetDocument(&domain.DocumentRecord{ID: "doc-2", RawText: "UNCLEANED OCR"})

	assert.Contains(t, view.View(), "UNCLEANED OCR")
}

func TestView_Error(t *testing.T) {
	view := NewView(nil)
	view.SetDocument(testRecord())

	view.Update(messages.ErrorOccurred{Err: errors.New("document not found")})

	assert.EqualError(t, view.Err(), "document not found")
	assert.Contains(t, view.View(), "document not found")
}

func TestView_Scroll(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 10)
	rec := testRecord()
	rec.Text = strings.Repeat("line\n", 50)
	view.SetDocument(rec)

	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	view.Update(down)
	view.Update(down)
	assert.Equal(t, 2, view.scrollOffset)

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.Equal(t, view.maxScrollOffset(), view.scrollOffset)
	view.Update(down)
	assert.Equal(t, view.maxScrollOffset(), view.scrollOffset, "stops at the end")

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, view.scrollOffset)
	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.scrollOffset, "stops at the top")

	assert.Contains(t, view.View(), "[Line 1-4 of")
}

func TestView_EscReturnsToCaller(t *testing.T) {
	view := NewView(nil)
	view.SetBack(messages.ViewFailed)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewFailed}, cmd())
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"abcd", "ef", "gh"}, wrap("abcdef\ngh", 4))
	assert.Equal(t, []string{"ééé", "é"}, wrap("éééé", 3))
	assert.Equal(t, []string{""}, wrap("", 10))
}
