// internal/manifest/manifest.go
//
// Manifest I/O collaborator. Packages declare themselves through a
// package.json-style manifest; the store reads them for discovery and writes
// version bumps back without disturbing fields it does not model.

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// FileName is the manifest file expected in every package directory.
const FileName = "package.json"

// ErrNotFound reports a missing manifest file.
var ErrNotFound = errors.New("manifest: not found")

// Manifest models the fields the release engine cares about. Anything else in
// the file is preserved verbatim on write.
type Manifest struct {
	Name       string   `json:"name" validate:"required"`
	Version    string   `json:"version" validate:"required,semver"`
	Private    bool     `json:"private,omitempty"`
	RepoType   string   `json:"repoType,omitempty" validate:"omitempty,oneof=single monorepo"`
	Workspaces []string `json:"workspaces,omitempty"`
}

// Store reads and writes manifests under a repository root.
type Store struct {
	root     string
	validate *validator.Validate
}

// NewStore creates a manifest store rooted at the repository directory.
func NewStore(root string) *Store {
	return &Store{
		root:     root,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Root returns the repository root the store resolves paths against.
func (s *Store) Root() string {
	return s.root
}

// Read parses the manifest at the given repo-relative (or absolute) path. The
// path may point at either the manifest file or its directory.
func (s *Store) Read(path string) (Manifest, error) {
	full := s.resolve(path)
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrNotFound, full)
		}
		return Manifest{}, fmt.Errorf("manifest: read %s: %w", full, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: parse %s: %w", full, err)
	}
	return m, nil
}

// Validate checks a manifest against the package schema: name and a
// syntactically valid semver version are required.
func (s *Store) Validate(m Manifest) error {
	if err := s.validate.Struct(m); err != nil {
		return fmt.Errorf("manifest: invalid %q: %w", m.Name, err)
	}
	return nil
}

// WriteVersion rewrites only the version field, keeping every other key in
// the file untouched.
func (s *Store) WriteVersion(path, version string) error {
	full := s.resolve(path)
	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("manifest: read %s: %w", full, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("manifest: parse %s: %w", full, err)
	}
	encoded, err := json.Marshal(version)
	if err != nil {
		return fmt.Errorf("manifest: encode version: %w", err)
	}
	raw["version"] = encoded
	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode %s: %w", full, err)
	}
	out = append(out, '\n')
	if err := os.WriteFile(full, out, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", full, err)
	}
	return nil
}

// PathExists reports whether a manifest exists at the repo-relative path.
func (s *Store) PathExists(path string) bool {
	_, err := os.Stat(s.resolve(path))
	return err == nil
}

func (s *Store) resolve(path string) string {
	if path == "" {
		path = FileName
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	if filepath.Base(path) != FileName {
		path = filepath.Join(path, FileName)
	}
	return path
}
