package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/ai"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/images/local"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/images/s3"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/remote"
	filestore "github.com/custodia-labs/docshelf/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docshelf/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docshelf/internal/adapters/driving/cli"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/core/services"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// application is the wired dependency graph.
type application struct {
	services cli.Services
	closers  []func()
}

// Close releases stores and AI clients in reverse order of creation.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// stores groups the persistence ports chosen by storage.backend.
type stores struct {
	documents  driven.DocumentStore
	errors     driven.ErrorStore
	categories driven.CategoryStore
	locations  driven.LocationStore
	mappings   driven.MappingStore
}

// wire builds every service from the configuration under configDir.
// An empty configDir means ~/.docshelf.
func wire(configDir string) (*application, error) {
	app := &application{}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	st, err := openStores(app, settings.Storage)
	if err != nil {
		app.Close()
		return nil, err
	}

	images, err := openImages(settings)
	if err != nil {
		app.Close()
		return nil, err
	}

	promptDir := ""
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	capabilities := ai.Init(settings, prompts, false)
	app.closers = append(app.closers, capabilities.Close)

	retry := services.NewRetryPolicy(settings.Retry)
	assigner := services.NewAssignmentEngine(capabilities.Classifier, st.categories, st.locations, st.mappings, retry)
	assembler := services.NewResultAssembler(st.documents, st.locations)
	engine := services.NewSimilarityEngine(st.documents, capabilities.EmbeddingService, retry)

	ingest := services.NewIngestionPipeline(st.documents, st.errors, capabilities.Extractor, assigner, capabilities.EmbeddingService, retry)
	if images != nil {
		ingest.SetImageStore(images)
	}
	if persister := remote.New(settings.Remote); persister != nil {
		ingest.SetRemotePersister(persister)
	}

	catalog := services.NewCatalogService(st.categories, st.locations, st.mappings, assigner)
	catalog.SetResultAssembler(assembler)

	app.services = cli.Services{
		Ingest:      ingest,
		Search:      services.NewSearchPipeline(capabilities.EmbeddingService, engine, assembler, retry),
		Document:    services.NewDocumentService(st.documents, st.errors, images),
		Catalog:     catalog,
		Maintenance: services.NewMaintenanceService(st.documents, capabilities.EmbeddingService, retry),
		Settings:    settingsService,
	}

	logger.Debug("Wired %s storage, %s images", settings.Storage.Backend, settings.Images.Backend)
	return app, nil
}

// openStores opens the document store for the configured backend.
// The catalog lives in sqlite unless the memory backend is chosen; the
// file backend only replaces the document and error stores.
func openStores(app *application, cfg domain.StorageSettings) (*stores, error) {
	if cfg.Backend == domain.StorageMemory {
		logger.Warn("memory storage: documents are discarded on exit")
		return &stores{
			documents:  memory.NewDocumentStore(),
			errors:     memory.NewErrorStore(),
			categories: memory.NewCategoryStore(),
			locations:  memory.NewLocationStore(),
			mappings:   memory.NewMappingStore(),
		}, nil
	}

	db, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	app.closers = append(app.closers, func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing sqlite store: %v", err)
		}
	})

	st := &stores{
		documents:  db.DocumentStore(),
		errors:     db.ErrorStore(),
		categories: db.CategoryStore(),
		locations:  db.LocationStore(),
		mappings:   db.MappingStore(),
	}

	switch cfg.Backend {
	case domain.StorageSQLite, "":
	case domain.StorageFile:
		fs, err := filestore.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}
		st.documents = fs
		st.errors = fs.ErrorStore()
	default:
		return nil, fmt.Errorf("storage backend %q: %w", cfg.Backend, domain.ErrInvalidInput)
	}
	return st, nil
}

// openImages builds the image store. A nil store disables image copies.
func openImages(settings *domain.AppSettings) (driven.ImageStore, error) {
	switch settings.Images.Backend {
	case domain.ImagesLocal, "":
		dir := ""
		if settings.Storage.DataDir != "" {
			dir = filepath.Join(settings.Storage.DataDir, "images")
		}
		store, err := local.NewStore(dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.ImagesS3:
		store, err := s3.NewFromSettings(context.Background(), settings.Images)
		if err != nil {
			return nil, fmt.Errorf("opening s3 image store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("image backend %q: %w", settings.Images.Backend, domain.ErrInvalidInput)
	}
}
