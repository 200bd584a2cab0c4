package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates an embedding whose length differs
	// from the dimension already fixed for the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptIndex indicates the on-disk index could not be decoded.
	ErrCorruptIndex = errors.New("corrupt index")

	// Capability errors.

	// ErrExtractionFailed indicates OCR produced no usable text.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrClassificationFailed indicates the classifier failed after retries.
	ErrClassificationFailed = errors.New("classification failed")

	// ErrInvalidProposal indicates a classifier response that failed validation.
	ErrInvalidProposal = errors.New("invalid category proposal")

	// ErrUnresolvableCategory indicates a proposal code that is neither an
	// existing category nor a canonical code.
	ErrUnresolvableCategory = errors.New("unresolvable category")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Classification is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractorUnavailable indicates no text extractor is configured.
	ErrExtractorUnavailable = errors.New("text extractor unavailable")

	// ErrRateLimited indicates the provider rejected a call for rate reasons.
	ErrRateLimited = errors.New("rate limited")
)
