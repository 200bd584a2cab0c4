// Package local keeps scanned images on the local filesystem.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/images"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ImageStore = (*Store)(nil)

// Store copies or downloads scans into a directory as {id}{ext}.
type Store struct {
	dir string
}

// NewStore creates an image store under dir, creating it if needed.
// If dir is empty, defaults to ~/.docshelf/data/images.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".docshelf", "data", "images")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the image directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save copies or downloads source to {dir}/{id}{ext} and returns that path.
func (s *Store) Save(ctx context.Context, id, source string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("save image: invalid id %q", id)
	}

	r, _, err := images.Open(ctx, source)
	if err != nil {
		return "", err
	}
	defer r.Close()

	dest := filepath.Join(s.dir, id+images.Extension(source))
	tmp, err := os.CreateTemp(s.dir, ".img-*")
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save image: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save image: %w", err)
	}

	logger.Debug("saved image %s", dest)
	return dest, nil
}

// Delete removes a stored image. ref may be the path returned by Save or a
// bare ID, in which case every known extension is tried.
func (s *Store) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	candidates := []string{ref}
	if filepath.Ext(ref) == "" && !strings.ContainsAny(ref, `/\`) {
		candidates = candidates[:0]
		for _, ext := range images.Extensions {
			candidates = append(candidates, filepath.Join(s.dir, ref+ext))
		}
	}

	for _, path := range candidates {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("delete image: %w", err)
		}
		logger.Debug("deleted image %s", path)
	}
	return nil
}
