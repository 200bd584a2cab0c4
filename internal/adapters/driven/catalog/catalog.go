// Package catalog reads location and category catalogs from YAML files.
//
// A file either holds a top-level list or a mapping with a "locations" or
// "categories" key. JSON files parse too, since JSON is valid YAML.
package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

type locationEntry struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PhotoURL    string `yaml:"photo_url"`
	ParentID    int64  `yaml:"parent_id"`
}

type categoryEntry struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadLocations reads a location catalog from path.
func LoadLocations(path string) ([]domain.Location, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLocations(data)
}

// ParseLocations decodes a location catalog.
func ParseLocations(data []byte) ([]domain.Location, error) {
	var entries []locationEntry
	if err := decodeList(data, "locations", &entries); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(entries))
	out := make([]domain.Location, 0, len(entries))
	for i, e := range entries {
		if e.ID <= 0 {
			return nil, fmt.Errorf("%w: location %d has no positive id", domain.ErrInvalidInput, i+1)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("%w: location %d has no name", domain.ErrInvalidInput, e.ID)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: duplicate location id %d", domain.ErrInvalidInput, e.ID)
		}
		seen[e.ID] = true
		out = append(out, domain.Location{
			ID:          e.ID,
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
			PhotoURL:    strings.TrimSpace(e.PhotoURL),
			ParentID:    e.ParentID,
		})
	}
	return out, nil
}

// LoadCategories reads a category catalog from path.
func LoadCategories(path string) ([]domain.Category, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCategories(data)
}

// ParseCategories decodes a category catalog. Codes are normalised and
// must have the 2-4 uppercase letter shape.
func ParseCategories(data []byte) ([]domain.Category, error) {
	var entries []categoryEntry
	if err := decodeList(data, "categories", &entries); err != nil {
		return nil, err
	}

	out := make([]domain.Category, 0, len(entries))
	for i, e := range entries {
		code := domain.NormalizeCode(e.Code)
		if !domain.ValidCode(code) {
			return nil, fmt.Errorf("%w: category %d has invalid code %q", domain.ErrInvalidInput, i+1, e.Code)
		}
		name := strings.TrimSpace(e.Name)
		desc := strings.TrimSpace(e.Description)
		if name == "" {
			s := domain.SuggestionFor(code)
			name = s.Name
			if desc == "" {
				desc = s.Description
			}
		}
		out = append(out, domain.Category{Code: code, Name: name, Description: desc})
	}
	return out, nil
}

// decodeList accepts either a bare sequence or a mapping holding key.
func decodeList(data []byte, key string, out any) error {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: parse catalog: %w", domain.ErrInvalidInput, err)
	}
	if len(root.Content) == 0 {
		return nil
	}

	node := root.Content[0]
	if node.Kind == yaml.MappingNode {
		var found *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				found = node.Content[i+1]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("%w: catalog has no %q list", domain.ErrInvalidInput, key)
		}
		node = found
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w: %s must be a list", domain.ErrInvalidInput, key)
	}
	if err := node.Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrInvalidInput, key, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
