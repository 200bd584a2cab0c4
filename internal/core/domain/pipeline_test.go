package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIngestStatus_IsFailure(t *testing.T) {
	tests := []struct {
		status   IngestStatus
		expected bool
	}{
		{StatusInitialized, false},
		{StatusOCRFailed, true},
		{StatusCleaningFailed, false},
		{StatusAssignmentFailed, true},
		{StatusEmbeddingFailed, true},
		{StatusPersistenceFailed, true},
		{StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsFailure())
		})
	}
}

func TestIngestStatus_FailedStep(t *testing.T) {
	assert.Equal(t, StepOCR, StatusOCRFailed.FailedStep())
	assert.Equal(t, StepAssignment, StatusAssignmentFailed.FailedStep())
	assert.Equal(t, StepEmbedding, StatusEmbeddingFailed.FailedStep())
	assert.Equal(t, StepPersistence, StatusPersistenceFailed.FailedStep())
	assert.Empty(t, StatusCompleted.FailedStep())
}

// TestIngestState_Text tests cleaned text preference with raw fallback
func TestIngestState_Text(t *testing.T) {
	state := &IngestState{}
	assert.Empty(t, state.Text())

	state.Extraction = &Extraction{Text: "raw"}
	assert.Equal(t, "raw", state.Text())

	state.Cleaning = &CleaningResult{Cleaned: "clean"}
	assert.Equal(t, "clean", state.Text())
}

func TestIngestState_Record(t *testing.T) {
	state := &IngestState{
		Request:    IngestRequest{Source: "/tmp/a.jpg", OwnerID: "o", UserNotes: "n"},
		ImagePath:  "/data/images/x.jpg",
		Extraction: &Extraction{Text: "raw text", Confidence: 0.9},
		Cleaning:   &CleaningResult{Cleaned: "clean text"},
		Assignment: &Assignment{CategoryCode: CodeTax},
		Embedding:  []float32{0.1},
		Steps:      []string{StepOCR, StepCleaning},
		Status:     StatusCompleted,
	}

	rec := state.Record()

	assert.Equal(t, "o", rec.OwnerID)
	assert.Equal(t, "/tmp/a.jpg", rec.Source)
	assert.Equal(t, "/data/images/x.jpg", rec.ImagePath)
	assert.Equal(t, DefaultFileType, rec.FileType)
	assert.Equal(t, "raw text", rec.RawText)
	assert.Equal(t, "clean text", rec.Text)
	assert.InDelta(t, 0.9, rec.OCRConfidence, 1e-9)
	assert.True(t, rec.HasEmbedding)
	assert.Equal(t, CodeTax, rec.Assignment.CategoryCode)

	// Step log is copied
	state.Steps[0] = "changed"
	assert.Equal(t, StepOCR, rec.Steps[0])
}

func TestNewRemotePayload(t *testing.T) {
	now := time.Now()
	rec := &DocumentRecord{ID: "d", OwnerID: "o", Source: "s", FileType: "pdf", Text: "t", CreatedAt: now}

	p := NewRemotePayload(rec)

	assert.Equal(t, "d", p.DocumentID)
	assert.Equal(t, "pdf", p.FileType)
	assert.Equal(t, now, p.CreatedAt)
}
