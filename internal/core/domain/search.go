package domain

// Search defaults.
const (
	DefaultTopK     = 5
	DefaultMinScore = 0.0
)

// Search pipeline statuses.
const (
	SearchStatusNoResults       = "no_results"
	SearchStatusEmbeddingFailed = "embedding_failed"
	SearchStatusCompleted       = "completed"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	// OwnerID restricts results to one owner when set.
	OwnerID string

	// TopK is the maximum number of results (default 5).
	TopK int

	// MinScore discards results scoring below it.
	MinScore float64

	// IncludeLocation attaches location display data.
	IncludeLocation bool

	// IncludeText attaches the full text and assignment to each hit.
	IncludeText bool
}

// WithDefaults fills unset fields.
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	return o
}

// RankedResult is a scored document ID produced by the similarity engine.
type RankedResult struct {
	ID    string
	Score float64
}

// SearchHit is a presentation record for one ranked document.
type SearchHit struct {
	DocumentID string        `json:"document_id"`
	Score      float64       `json:"score"`
	Title      string        `json:"title"`
	Snippet    string        `json:"snippet"`
	Preview    string        `json:"preview,omitempty"`
	FileType   string        `json:"file_type"`
	CreatedAt  string        `json:"created_at,omitempty"`
	Category   string        `json:"category,omitempty"`
	Location   *LocationInfo `json:"location,omitempty"`
	FullText   string        `json:"full_text,omitempty"`
	Source     string        `json:"source,omitempty"`
	Assignment *Assignment   `json:"assignment,omitempty"`
}

// SearchState is the shared state object of a search run.
type SearchState struct {
	Query           string
	NormalizedQuery string
	Options         SearchOptions
	Ranked          []RankedResult
	Results         []SearchHit
	Steps           []string
	Status          string
	Error           string
}
