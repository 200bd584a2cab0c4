package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/logger"
	"github.com/custodia-labs/docshelf/internal/metrics"
)

// Ensure IngestionPipeline implements the interface.
var _ driving.IngestService = (*IngestionPipeline)(nil)

// IngestionPipeline runs OCR, cleaning, assignment, embedding and persistence.
type IngestionPipeline struct {
	store      driven.DocumentStore
	errorStore driven.ErrorStore
	extractor  driven.TextExtractor
	assigner   *AssignmentEngine
	embedding  driven.EmbeddingService
	retry      *RetryPolicy
	images     driven.ImageStore
	remote     driven.RemotePersister
}

// NewIngestionPipeline creates an ingestion pipeline.
// The embedding service is optional; without it documents are stored unembedded.
func NewIngestionPipeline(
	store driven.DocumentStore,
	errorStore driven.ErrorStore,
	extractor driven.TextExtractor,
	assigner *AssignmentEngine,
	embedding driven.EmbeddingService,
	retry *RetryPolicy,
) *IngestionPipeline {
	if retry == nil {
		retry = NewRetryPolicy(domain.RetrySettings{})
	}
	return &IngestionPipeline{
		store:      store,
		errorStore: errorStore,
		extractor:  extractor,
		assigner:   assigner,
		embedding:  embedding,
		retry:      retry,
	}
}

// SetImageStore sets where scanned images are copied.
func (p *IngestionPipeline) SetImageStore(images driven.ImageStore) {
	p.images = images
}

// SetRemotePersister enables best-effort forwarding of saved documents.
func (p *IngestionPipeline) SetRemotePersister(remote driven.RemotePersister) {
	p.remote = remote
}

// Ingest processes one scanned document.
func (p *IngestionPipeline) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestState, error) {
	state := &domain.IngestState{
		Request:   req,
		Status:    domain.StatusInitialized,
		StartedAt: time.Now(),
	}
	if strings.TrimSpace(req.Source) == "" {
		state.Error = "source is required"
		return state, fmt.Errorf("%w: empty source", domain.ErrInvalidInput)
	}

	logger.Section("Ingest")
	logger.Debug("Source: %s, owner: %s", req.Source, req.OwnerID)

	if p.stepOCR(ctx, state) {
		p.process(ctx, state, "")
	}
	p.finish(state)
	return state, nil
}

// Retry re-runs a failed document from its stored OCR text.
// On success the error document is removed; on failure it is replaced.
func (p *IngestionPipeline) Retry(ctx context.Context, errorID string) (*domain.IngestState, error) {
	if p.errorStore == nil {
		return nil, fmt.Errorf("retry %s: %w: no error store", errorID, domain.ErrNotFound)
	}
	failed, err := p.errorStore.Get(ctx, errorID)
	if err != nil {
		return nil, fmt.Errorf("get failed document %s: %w", errorID, err)
	}

	raw := failed.RawText
	if raw == "" {
		raw = failed.Text
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("retry %s: %w: no stored text", errorID, domain.ErrInvalidInput)
	}

	state := &domain.IngestState{
		Request: domain.IngestRequest{
			Source:    failed.Source,
			OwnerID:   failed.OwnerID,
			UserNotes: failed.UserNotes,
			FileType:  failed.FileType,
		},
		ImagePath:  failed.ImagePath,
		Extraction: &domain.Extraction{Text: raw, Confidence: failed.OCRConfidence},
		Steps:      []string{domain.StepOCR},
		Status:     domain.StatusOCRCompleted,
		StartedAt:  time.Now(),
	}

	logger.Section("Retry")
	logger.Debug("Retrying failed document %s (failed at %s)", errorID, failed.FailedStep)

	p.process(ctx, state, errorID)
	p.finish(state)
	return state, nil
}

// process runs everything after OCR.
func (p *IngestionPipeline) process(ctx context.Context, state *domain.IngestState, retryOf string) {
	p.stepCleaning(state)
	p.stepAssignAndEmbed(ctx, state)

	if state.Request.SkipPersist {
		logger.Info("Dry run, skipping persistence")
		return
	}
	p.stepPersist(ctx, state, retryOf)
}

func (p *IngestionPipeline) stepOCR(ctx context.Context, state *domain.IngestState) bool {
	start := time.Now()
	defer observeStep(domain.StepOCR, start)

	if p.images != nil && !state.Request.SkipPersist {
		ref, err := p.images.Save(ctx, uuid.New().String(), state.Request.Source)
		if err != nil {
			logger.Warn("Image not stored: %v", err)
		} else {
			state.ImagePath = ref
		}
	}

	fail := func(err error) bool {
		state.Status = domain.StatusOCRFailed
		state.Error = err.Error()
		logger.Warn("OCR failed for %s: %v", state.Request.Source, err)
		p.discardImage(ctx, state)
		return false
	}

	if p.extractor == nil {
		return fail(domain.ErrExtractorUnavailable)
	}

	var extraction *domain.Extraction
	err := p.retry.Do(ctx, "ocr", func(ctx context.Context) error {
		ext, err := p.extractor.ExtractText(ctx, state.Request.Source)
		if err != nil {
			return err
		}
		extraction = ext
		return nil
	})
	if err != nil {
		return fail(fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err))
	}
	if extraction == nil || strings.TrimSpace(extraction.Text) == "" {
		return fail(fmt.Errorf("%w: empty text", domain.ErrExtractionFailed))
	}

	state.Extraction = extraction
	state.Steps = append(state.Steps, domain.StepOCR)
	state.Status = domain.StatusOCRCompleted
	logger.Debug("OCR extracted %d characters (confidence %.2f)", len(extraction.Text), extraction.Confidence)
	return true
}

func (p *IngestionPipeline) discardImage(ctx context.Context, state *domain.IngestState) {
	if p.images == nil || state.ImagePath == "" {
		return
	}
	if err := p.images.Delete(ctx, state.ImagePath); err != nil {
		logger.Warn("Image cleanup failed: %v", err)
	}
	state.ImagePath = ""
}

func (p *IngestionPipeline) stepCleaning(state *domain.IngestState) {
	start := time.Now()
	defer observeStep(domain.StepCleaning, start)

	res, err := CleanText(state.Extraction.Text)
	if err != nil {
		// Raw text is used downstream.
		state.Status = domain.StatusCleaningFailed
		state.Error = err.Error()
		logger.Warn("Cleaning failed, using raw text: %v", err)
		return
	}
	state.Cleaning = res
	state.Steps = append(state.Steps, domain.StepCleaning)
	state.Status = domain.StatusCleaningCompleted
	logger.Debug("Cleaned text: %d -> %d characters", res.OriginalLength, res.CleanedLength)
}

// stepAssignAndEmbed runs assignment and embedding concurrently.
// Neither cancels the other; when both fail the assignment failure wins.
func (p *IngestionPipeline) stepAssignAndEmbed(ctx context.Context, state *domain.IngestState) {
	text := state.Text()

	var (
		wg         sync.WaitGroup
		stepsMu    sync.Mutex
		assignment *domain.Assignment
		assignErr  error
		embedding  []float32
		embedErr   error
	)
	done := func(step string) {
		stepsMu.Lock()
		state.Steps = append(state.Steps, step)
		stepsMu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		defer observeStep(domain.StepAssignment, start)
		if p.assigner == nil {
			assignErr = &domain.AssignmentError{Stage: domain.AssignmentStageClassify, Err: domain.ErrLLMUnavailable}
			return
		}
		assignment, assignErr = p.assigner.Assign(ctx, text)
		if assignErr == nil {
			done(domain.StepAssignment)
		}
	}()
	go func() {
		defer wg.Done()
		if p.embedding == nil {
			return
		}
		start := time.Now()
		defer observeStep(domain.StepEmbedding, start)
		embedErr = p.retry.Do(ctx, "embed", func(ctx context.Context) error {
			vec, err := p.embedding.Embed(ctx, text)
			if err != nil {
				return err
			}
			if len(vec) == 0 {
				return errors.New("empty embedding vector")
			}
			embedding = vec
			return nil
		})
		if embedErr == nil {
			done(domain.StepEmbedding)
		}
	}()
	wg.Wait()

	state.Assignment = assignment
	state.Embedding = embedding
	if embedErr != nil {
		state.EmbeddingErr = embedErr.Error()
		state.Status = domain.StatusEmbeddingFailed
		state.Error = embedErr.Error()
		logger.Warn("Embedding failed: %v", embedErr)
	}
	if assignErr != nil {
		state.AssignmentErr = assignErr.Error()
		state.Status = domain.StatusAssignmentFailed
		state.Error = assignErr.Error()
		logger.Warn("Assignment failed: %v", assignErr)
	}
	if assignErr == nil && embedErr == nil {
		state.Status = domain.StatusAssignmentCompleted
		if p.embedding != nil {
			state.Status = domain.StatusEmbeddingCompleted
		}
	}
}

func (p *IngestionPipeline) stepPersist(ctx context.Context, state *domain.IngestState, retryOf string) {
	start := time.Now()
	defer observeStep(domain.StepPersistence, start)

	if state.Status.IsFailure() {
		p.saveError(ctx, state, retryOf)
		return
	}

	rec := state.Record()
	rec.Status = domain.StatusCompleted
	rec.Steps = append(rec.Steps, domain.StepPersistence)

	id, err := p.store.Save(ctx, rec, state.Embedding)
	if err != nil {
		state.Status = domain.StatusPersistenceFailed
		state.Error = fmt.Sprintf("save document: %v", err)
		logger.Warn("Persistence failed: %v", err)
		p.saveError(ctx, state, retryOf)
		return
	}

	state.DocumentID = id
	state.Steps = append(state.Steps, domain.StepPersistence)
	state.Status = domain.StatusCompleted
	logger.Info("Document saved: %s", id)

	if retryOf != "" {
		if err := p.errorStore.Delete(ctx, retryOf); err != nil {
			logger.Warn("Failed document %s not removed: %v", retryOf, err)
		}
	}

	if p.remote != nil && !state.Request.SkipRemote {
		remoteID, err := p.remote.PersistRemote(ctx, domain.NewRemotePayload(rec))
		if err != nil {
			logger.Warn("Remote persistence failed for %s: %v", id, err)
			return
		}
		state.RemoteID = remoteID
		logger.Debug("Remote persistence returned %s", remoteID)
	}
}

// saveError routes a failed run to the error store.
// A failed retry replaces the error document it came from.
func (p *IngestionPipeline) saveError(ctx context.Context, state *domain.IngestState, retryOf string) {
	if p.errorStore == nil {
		logger.Warn("No error store, dropping failed document")
		return
	}
	doc := &domain.ErrorDocument{
		DocumentRecord: *state.Record(),
		FailedStep:     state.Status.FailedStep(),
		ErrorMessage:   state.Error,
		FailedAt:       time.Now(),
	}
	id, err := p.errorStore.Save(ctx, doc)
	if err != nil {
		logger.Warn("Failed document not saved: %v", err)
		return
	}
	state.ErrorID = id
	logger.Info("Failed document saved: %s (step %s)", id, doc.FailedStep)

	if retryOf != "" {
		if err := p.errorStore.Delete(ctx, retryOf); err != nil {
			logger.Warn("Previous failed document %s not removed: %v", retryOf, err)
		}
	}
}

func (p *IngestionPipeline) finish(state *domain.IngestState) {
	state.FinishedAt = time.Now()
	metrics.IngestTotal.WithLabelValues(state.Status.String()).Inc()
	logger.Info("Ingest finished with status %s in %s", state.Status, state.FinishedAt.Sub(state.StartedAt))
}

func observeStep(step string, start time.Time) {
	metrics.StepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}
