package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages catalogued and failed documents.
type DocumentService struct {
	docStore   driven.DocumentStore
	errorStore driven.ErrorStore
	images     driven.ImageStore
}

// NewDocumentService creates a new document service.
// The error store and image store are optional.
func NewDocumentService(
	docStore driven.DocumentStore,
	errorStore driven.ErrorStore,
	images driven.ImageStore,
) *DocumentService {
	return &DocumentService{
		docStore:   docStore,
		errorStore: errorStore,
		images:     images,
	}
}

// List returns index entries for an owner in insertion order.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]domain.IndexEntry, error) {
	return s.docStore.ListAll(ctx, ownerID)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(
	ctx context.Context, id string, includeEmbedding bool,
) (*domain.DocumentRecord, []float32, error) {
	return s.docStore.Get(ctx, id, includeEmbedding)
}

// Delete removes a document, its embedding and its image.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	rec, _, err := s.docStore.Get(ctx, id, false)
	if err != nil {
		return err
	}

	deleted, err := s.docStore.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("delete document %s: %w", id, domain.ErrNotFound)
	}

	s.deleteImage(ctx, rec.ImagePath)
	logger.Info("Deleted document %s", id)
	return nil
}

// ListFailed returns failed documents, newest first.
func (s *DocumentService) ListFailed(ctx context.Context) ([]domain.ErrorDocument, error) {
	if s.errorStore == nil {
		return []domain.ErrorDocument{}, nil
	}
	return s.errorStore.List(ctx)
}

// GetFailed retrieves a failed document.
func (s *DocumentService) GetFailed(ctx context.Context, id string) (*domain.ErrorDocument, error) {
	if s.errorStore == nil {
		return nil, domain.ErrNotFound
	}
	return s.errorStore.Get(ctx, id)
}

// DeleteFailed discards a failed document and its image.
func (s *DocumentService) DeleteFailed(ctx context.Context, id string) error {
	if s.errorStore == nil {
		return domain.ErrNotFound
	}
	doc, err := s.errorStore.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.errorStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete failed document %s: %w", id, err)
	}
	s.deleteImage(ctx, doc.ImagePath)
	return nil
}

func (s *DocumentService) deleteImage(ctx context.Context, ref string) {
	if s.images == nil || ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		logger.Warn("Image %s not removed: %v", ref, err)
	}
}
