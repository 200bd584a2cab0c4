package domain

import (
	"strings"
	"time"
)

// Preview and presentation lengths, counted in runes.
const (
	PreviewLength = 200
	TitleLength   = 100
	SnippetLength = 300
)

// DefaultFileType is recorded when the caller does not say what was photographed.
const DefaultFileType = "image"

// DocumentRecord is a catalogued physical document.
// It is the body persisted by the DocumentStore; the embedding lives
// separately in an EmbeddingRecord under the same ID.
type DocumentRecord struct {
	// ID is assigned by the store at save time and never reused.
	ID string

	// OwnerID is the household account the document belongs to.
	OwnerID string

	// Source is the original reference (file path or URL) the scan came from.
	Source string

	// ImagePath is where the store kept its own copy of the scan.
	ImagePath string

	// FileType describes the scanned artefact (image, pdf, ...).
	FileType string

	// UserNotes is free text supplied at ingestion.
	UserNotes string

	// RawText is the extracted OCR output before cleaning.
	RawText string

	// Text is the cleaned text used for embedding and display.
	Text string

	// OCRConfidence is the extractor's confidence in [0,1].
	OCRConfidence float64

	// Assignment is the resolved category and location, nil when unassigned.
	Assignment *Assignment

	// Steps is the processing-step log in completion order.
	Steps []string

	// Status is the lifecycle status tag at the time of persistence.
	Status IngestStatus

	// HasEmbedding is true when an EmbeddingRecord exists under ID.
	HasEmbedding bool

	// CreatedAt is when the record was saved.
	CreatedAt time.Time
}

// Preview returns the leading text used in index entries.
func (d *DocumentRecord) Preview() string {
	return Truncate(d.Text, PreviewLength)
}

// EmbeddingRecord is the stored vector for a document.
type EmbeddingRecord struct {
	DocumentID string
	Vector     []float32
	Dimension  int
	CreatedAt  time.Time
}

// Valid reports whether the declared dimension matches the vector.
func (e *EmbeddingRecord) Valid() bool {
	return len(e.Vector) > 0 && len(e.Vector) == e.Dimension
}

// IndexEntry is the denormalised summary kept in the owner and global indexes.
type IndexEntry struct {
	ID           string
	OwnerID      string
	CreatedAt    time.Time
	HasEmbedding bool
	TextPreview  string
	CategoryCode string
	LocationName string
	Tags         []string
}

// NewIndexEntry derives the index entry for a saved record.
func NewIndexEntry(rec *DocumentRecord) IndexEntry {
	entry := IndexEntry{
		ID:           rec.ID,
		OwnerID:      rec.OwnerID,
		CreatedAt:    rec.CreatedAt,
		HasEmbedding: rec.HasEmbedding,
		TextPreview:  rec.Preview(),
	}
	if rec.Assignment != nil {
		entry.CategoryCode = rec.Assignment.CategoryCode
		entry.LocationName = rec.Assignment.LocationName
		entry.Tags = rec.Assignment.Tags
	}
	return entry
}

// EmbeddedDocument is a document loaded together with its vector for scoring.
type EmbeddedDocument struct {
	ID         string
	OwnerID    string
	Text       string
	Embedding  []float32
	Assignment *Assignment
	CreatedAt  time.Time
}

// ErrorDocument is a record whose ingestion failed, kept for review or retry.
type ErrorDocument struct {
	DocumentRecord

	// FailedStep names the pipeline step that failed.
	FailedStep string

	// ErrorMessage is the captured failure.
	ErrorMessage string

	// FailedAt is when the failure was recorded.
	FailedAt time.Time
}

// IntegrityReport lists inconsistencies between index entries and stored artefacts.
type IntegrityReport struct {
	// OrphanEntries are index entries without a document body.
	OrphanEntries []string

	// MissingEntries are bodies that no index entry references.
	MissingEntries []string

	// MissingEmbeddings are entries flagged has_embedding with no vector stored.
	MissingEmbeddings []string
}

// Clean reports whether no inconsistency was found.
func (r *IntegrityReport) Clean() bool {
	return len(r.OrphanEntries) == 0 && len(r.MissingEntries) == 0 && len(r.MissingEmbeddings) == 0
}

// Truncate returns the first n runes of s with surrounding whitespace trimmed.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.TrimSpace(string(runes))
}
