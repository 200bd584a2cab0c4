// Package watcher ingests scans as they land in an inbox directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driving"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
// Scanners write in several chunks.
const DefaultDebounce = 2 * time.Second

// DefaultExtensions are the file types picked up from the inbox.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".txt"}

// Result is the outcome of ingesting one file.
type Result struct {
	Path  string
	State *domain.IngestState
	Err   error
}

// Options configures a Watcher.
type Options struct {
	OwnerID    string
	UserNotes  string
	SkipRemote bool

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Extensions defaults to DefaultExtensions.
	Extensions []string

	// OnResult is called after each ingestion, from the watcher goroutine.
	OnResult func(Result)
}

// Watcher feeds new and modified files in a directory to the ingestion pipeline.
type Watcher struct {
	dir        string
	ingest     driving.IngestService
	opts       Options
	extensions map[string]struct{}
	pending    map[string]time.Time
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts Options) (*Watcher, error) {
	if ingest == nil {
		return nil, errors.New("ingest service is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox %s: %w", dir, domain.ErrInvalidInput)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}

	return &Watcher{
		dir:        dir,
		ingest:     ingest,
		opts:       opts,
		extensions: exts,
		pending:    make(map[string]time.Time),
	}, nil
}

// Run watches the directory until ctx is cancelled.
// Files already present are not ingested; use the ingest command for a backlog.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for new scans", w.dir)

	ticker := time.NewTicker(w.opts.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path := w.handleFsEvent(event); path != "" {
				w.pending[path] = time.Now()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				w.ingestFile(ctx, path)
			}
		}
	}
}

// handleFsEvent returns the path to queue for an event, or "" to ignore it.
func (w *Watcher) handleFsEvent(event fsnotify.Event) string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		// Removed before ingestion: drop it from the queue.
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			delete(w.pending, event.Name)
		}
		return ""
	}
	if isHidden(w.relative(event.Name)) {
		return ""
	}
	if _, ok := w.extensions[strings.ToLower(filepath.Ext(event.Name))]; !ok {
		return ""
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return ""
	}
	return event.Name
}

// due removes and returns queued paths that have been quiet for the debounce window.
func (w *Watcher) due(now time.Time) []string {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	logger.Debug("Ingesting %s", path)
	state, err := w.ingest.Ingest(ctx, domain.IngestRequest{
		Source:     path,
		OwnerID:    w.opts.OwnerID,
		UserNotes:  w.opts.UserNotes,
		SkipRemote: w.opts.SkipRemote,
	})
	switch {
	case err != nil:
		logger.Warn("ingesting %s: %v", path, err)
	case state.Status.IsFailure():
		logger.Warn("ingesting %s failed at %s: %s", path, state.Status.FailedStep(), state.Error)
	default:
		logger.Info("Catalogued %s as %s", filepath.Base(path), state.DocumentID)
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(Result{Path: path, State: state, Err: err})
	}
}

// relative returns path relative to the watched directory, so a dot
// directory above the inbox does not hide everything in it.
func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return path
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
