package domain

import "time"

// Pipeline step names recorded in step logs.
const (
	StepOCR              = "OCR"
	StepCleaning         = "Cleaning"
	StepAssignment       = "Assignment"
	StepEmbedding        = "Embedding"
	StepPersistence      = "Persistence"
	StepNormalizeQuery   = "QueryNormalization"
	StepSimilaritySearch = "SimilaritySearch"
	StepResultAssembly   = "ResultAssembly"
)

// IngestStatus is the lifecycle tag of an ingestion run.
type IngestStatus string

// Ingestion statuses.
const (
	StatusInitialized         IngestStatus = "initialized"
	StatusOCRFailed           IngestStatus = "ocr_failed"
	StatusOCRCompleted        IngestStatus = "ocr_completed"
	StatusCleaningCompleted   IngestStatus = "cleaning_completed"
	StatusCleaningFailed      IngestStatus = "cleaning_failed"
	StatusAssignmentCompleted IngestStatus = "assignment_completed"
	StatusAssignmentFailed    IngestStatus = "assignment_failed"
	StatusEmbeddingCompleted  IngestStatus = "embedding_completed"
	StatusEmbeddingFailed     IngestStatus = "embedding_failed"
	StatusCompleted           IngestStatus = "completed"
	StatusPersistenceFailed   IngestStatus = "persistence_failed"
)

// IsFailure reports whether the status routes the document to the error store.
func (s IngestStatus) IsFailure() bool {
	switch s {
	case StatusOCRFailed, StatusAssignmentFailed, StatusEmbeddingFailed, StatusPersistenceFailed:
		return true
	default:
		return false
	}
}

// FailedStep maps a failing status to the step that produced it.
func (s IngestStatus) FailedStep() string {
	switch s {
	case StatusOCRFailed:
		return StepOCR
	case StatusCleaningFailed:
		return StepCleaning
	case StatusAssignmentFailed:
		return StepAssignment
	case StatusEmbeddingFailed:
		return StepEmbedding
	case StatusPersistenceFailed:
		return StepPersistence
	default:
		return ""
	}
}

// String returns the status tag.
func (s IngestStatus) String() string {
	return string(s)
}

// Extraction is the output of a TextExtractor.
type Extraction struct {
	Text       string
	// Confidence is in [0,1]; 0 means the extractor reports none.
	Confidence float64
	Pages      int
}

// CleaningResult describes what text cleaning did.
type CleaningResult struct {
	Original       string
	Cleaned        string
	OriginalLength int
	CleanedLength  int
	Applied        bool
}

// IngestRequest starts an ingestion run.
type IngestRequest struct {
	// Source is a local path or URL to the scanned document.
	Source string

	// OwnerID scopes the document.
	OwnerID string

	UserNotes string
	FileType  string

	// SkipPersist stops the run before persistence (dry run).
	SkipPersist bool

	// SkipRemote disables forwarding to the remote database service.
	SkipRemote bool
}

// IngestState is the shared state object threaded through an ingestion run.
type IngestState struct {
	Request       IngestRequest
	DocumentID    string
	ErrorID       string
	RemoteID      string
	ImagePath     string
	Extraction    *Extraction
	Cleaning      *CleaningResult
	Assignment    *Assignment
	Embedding     []float32
	Steps         []string
	Status        IngestStatus
	Error         string
	AssignmentErr string
	EmbeddingErr  string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Text returns the best available text: cleaned, else raw OCR.
func (s *IngestState) Text() string {
	if s.Cleaning != nil && s.Cleaning.Cleaned != "" {
		return s.Cleaning.Cleaned
	}
	if s.Extraction != nil {
		return s.Extraction.Text
	}
	return ""
}

// Record builds the document body for persistence.
func (s *IngestState) Record() *DocumentRecord {
	rec := &DocumentRecord{
		OwnerID:      s.Request.OwnerID,
		Source:       s.Request.Source,
		ImagePath:    s.ImagePath,
		FileType:     s.Request.FileType,
		UserNotes:    s.Request.UserNotes,
		Text:         s.Text(),
		Assignment:   s.Assignment,
		Steps:        append([]string(nil), s.Steps...),
		Status:       s.Status,
		HasEmbedding: len(s.Embedding) > 0,
	}
	if rec.FileType == "" {
		rec.FileType = DefaultFileType
	}
	if s.Extraction != nil {
		rec.RawText = s.Extraction.Text
		rec.OCRConfidence = s.Extraction.Confidence
	}
	return rec
}

// RemotePayload is forwarded to the external relational store.
type RemotePayload struct {
	DocumentID   string      `json:"document_id"`
	OwnerID      string      `json:"owner_id"`
	Source       string      `json:"source"`
	ImagePath    string      `json:"image_path,omitempty"`
	FileType     string      `json:"file_type"`
	Text         string      `json:"text"`
	UserNotes    string      `json:"user_notes,omitempty"`
	Assignment   *Assignment `json:"assignment,omitempty"`
	HasEmbedding bool        `json:"has_embedding"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewRemotePayload converts a saved record into the remote payload.
func NewRemotePayload(rec *DocumentRecord) RemotePayload {
	return RemotePayload{
		DocumentID:   rec.ID,
		OwnerID:      rec.OwnerID,
		Source:       rec.Source,
		ImagePath:    rec.ImagePath,
		FileType:     rec.FileType,
		Text:         rec.Text,
		UserNotes:    rec.UserNotes,
		Assignment:   rec.Assignment,
		HasEmbedding: rec.HasEmbedding,
		CreatedAt:    rec.CreatedAt,
	}
}

// MigrationStats summarises an inline-embedding migration.
type MigrationStats struct {
	Total          int
	WithEmbeddings int
	Migrated       int
	Skipped        int
	Errors         int
}

// ReindexStats summarises a re-embedding pass.
type ReindexStats struct {
	Total     int
	Reindexed int
	Failed    int
}
