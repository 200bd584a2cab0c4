package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var builtinPrompts embed.FS

// placeholders is the number of %s verbs each template must carry.
var placeholders = map[string]int{
	driven.PromptClassify: 3,
	driven.PromptExtract:  0,
}

// PromptStore serves prompt templates from <dir>/<name>.txt.
// Missing files are seeded from the built-in copies on first use.
// A file with the wrong number of placeholders is ignored in favour
// of the built-in template.
type PromptStore struct {
	dir string

	mu     sync.Mutex
	loaded map[string]string // nil until the directory has been read
}

// NewPromptStore creates a store rooted at dir, or ~/.docshelf/prompts
// when dir is empty. No I/O happens until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".docshelf", "prompts")
	}
	return &PromptStore{dir: dir}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	want, known := placeholders[name]
	if !known {
		return "", fmt.Errorf("prompt %q: %w", name, os.ErrNotExist)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == nil {
		s.loaded = s.readAll()
	}
	if tmpl, ok := s.loaded[name]; ok {
		return tmpl, nil
	}

	tmpl := builtin(name)
	if got := strings.Count(tmpl, "%s"); got != want {
		return "", fmt.Errorf("built-in prompt %q has %d placeholders, want %d", name, got, want)
	}
	return tmpl, nil
}

// Reload forgets every template so the next Load rereads the directory.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.loaded = nil
	s.mu.Unlock()
}

// readAll seeds missing files and returns the usable templates on disk.
// I/O failures are logged; callers fall back to the built-in text.
func (s *PromptStore) readAll() map[string]string {
	out := make(map[string]string, len(placeholders))
	if err := s.seed(); err != nil {
		logger.Warn("prompts: %v; using built-in prompts", err)
		return out
	}

	for name, want := range placeholders {
		data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
		if err != nil {
			logger.Warn("prompts: reading %s: %v", name, err)
			continue
		}
		tmpl := strings.TrimSpace(string(data))
		if got := strings.Count(tmpl, "%s"); got != want {
			logger.Warn("prompts: %s.txt has %d %%s placeholders, want %d; using built-in", name, got, want)
			continue
		}
		out[name] = tmpl
	}
	return out
}

// seed creates the directory and copies in any missing default file.
// Existing files are never overwritten.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	entries, err := builtinPrompts.ReadDir("defaults")
	if err != nil {
		return err
	}
	for _, e := range entries {
		path := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := builtinPrompts.ReadFile("defaults/" + e.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", e.Name(), err)
		}
	}
	return nil
}

// builtin returns the embedded template for name.
func builtin(name string) string {
	data, err := builtinPrompts.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
