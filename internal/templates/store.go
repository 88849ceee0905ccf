package templates

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed template.schema.json
var schemaJSON []byte

var (
	// ErrNotFound is returned when no template has the requested ID.
	ErrNotFound = errors.New("template not found")

	// ErrInvalid wraps schema violations.
	ErrInvalid = errors.New("invalid template")
)

// Template describes a form: the ordered fields to extract and the PDF
// and/or LaTeX file they are written into.
type Template struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []string `yaml:"fields" json:"fields"`
	// PDF and LaTeX paths are relative to the templates directory unless absolute.
	PDF       string    `yaml:"pdf,omitempty" json:"pdf,omitempty"`
	LaTeX     string    `yaml:"latex,omitempty" json:"latex,omitempty"`
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitzero"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitzero"`
}

// Store keeps templates as YAML files in one directory.
type Store struct {
	dir    string
	mu     sync.RWMutex
	schema *jsonschema.Schema
}

// NewStore opens a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create templates directory: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("template.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to load template schema: %w", err)
	}
	schema, err := compiler.Compile("template.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile template schema: %w", err)
	}

	return &Store{dir: dir, schema: schema}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// List returns all templates sorted by ID.
func (s *Store) List() ([]*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	var out []*Template
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		t, err := s.load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the template with the given ID.
func (s *Store) Get(id string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	t, err := s.load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, err
}

// Save validates and writes t. An empty ID is assigned a new UUID.
func (s *Store) Save(t *Template) (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *t
	saved.Fields = append([]string(nil), t.Fields...)
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	if err := s.Validate(&saved); err != nil {
		return nil, err
	}
	path, err := s.path(saved.ID)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return &saved, nil
}

// Delete removes the template with the given ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// Validate checks t against the template schema.
func (s *Store) Validate(t *Template) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode template: %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Resolve returns p as an absolute path, relative to the store directory.
func (s *Store) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

func (s *Store) load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if t.ID == "" {
		t.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(&t); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &t, nil
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: bad id %q", ErrInvalid, id)
	}
	return filepath.Join(s.dir, id+".yaml"), nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
