// Package images holds the ImageStore adapters and the helpers they share
// for reading a scan from a local path or a URL.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// DownloadTimeout bounds fetching a remote image.
const DownloadTimeout = 30 * time.Second

// DefaultExtension is used when the source has no recognised extension.
const DefaultExtension = ".jpg"

// Extensions are the image suffixes tried when deleting by ID.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

var httpClient = &http.Client{Timeout: DownloadTimeout}

// IsURL reports whether source is an http(s) URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Confine checks that a local source lies inside root and returns its cleaned
// absolute path. Relative sources are resolved against root. URLs pass
// unchanged; an empty root rejects every local path.
func Confine(source, root string) (string, error) {
	if IsURL(source) {
		return source, nil
	}
	if root == "" {
		return "", fmt.Errorf("local source %q: %w: only http(s) URLs are accepted", source, domain.ErrInvalidInput)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("inbox root: %w", err)
	}
	p := source
	if !filepath.IsAbs(p) {
		p = filepath.Join(absRoot, p)
	}
	p = filepath.Clean(p)
	if !within(absRoot, p) {
		return "", fmt.Errorf("local source %q: %w: outside the inbox", source, domain.ErrInvalidInput)
	}

	// A symlink inside the inbox must not lead out of it.
	if real, err := filepath.EvalSymlinks(p); err == nil {
		realRoot, err := filepath.EvalSymlinks(absRoot)
		if err != nil {
			realRoot = absRoot
		}
		if !within(realRoot, real) {
			return "", fmt.Errorf("local source %q: %w: outside the inbox", source, domain.ErrInvalidInput)
		}
	}
	return p, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Extension returns the lower-case image extension of source, or DefaultExtension.
func Extension(source string) string {
	p := source
	if IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			p = u.Path
		}
		p = path.Ext(p)
	} else {
		p = filepath.Ext(p)
	}
	ext := strings.ToLower(p)
	for _, known := range Extensions {
		if ext == known {
			return ext
		}
	}
	return DefaultExtension
}

// Open returns a reader over the scan at source. Remote sources are
// downloaded with DownloadTimeout; size is -1 when unknown.
func Open(ctx context.Context, source string) (io.ReadCloser, int64, error) {
	if !IsURL(source) {
		f, err := os.Open(source)
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("open image %s: %w", source, domain.ErrNotFound)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("open image: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("stat image: %w", err)
		}
		return f, info.Size(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, DownloadTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		cancel()
		return nil, 0, fmt.Errorf("download image: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, 0, fmt.Errorf("download image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, 0, fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, resp.ContentLength, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
