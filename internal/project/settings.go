package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SettingsFile is the optional per-repository override file.
const SettingsFile = ".relkit.yaml"

// Settings models .relkit.yaml. Every field is optional; absent values fall
// back to the topology defaults.
type Settings struct {
	TagFormat    string `yaml:"tagFormat,omitempty"`
	Strategy     string `yaml:"strategy,omitempty"`
	PreReleaseID string `yaml:"preReleaseId,omitempty"`
	RepoType     string `yaml:"repoType,omitempty"`
}

func loadSettings(root string) (Settings, error) {
	path := filepath.Join(root, SettingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read %s: %w", path, err)
	}
	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", SettingsFile, err)
	}
	return parsed, nil
}

func (s *Settings) normalize() {
	s.TagFormat = strings.TrimSpace(s.TagFormat)
	s.Strategy = strings.ToLower(strings.TrimSpace(s.Strategy))
	s.PreReleaseID = strings.TrimSpace(s.PreReleaseID)
	s.RepoType = strings.ToLower(strings.TrimSpace(s.RepoType))
}

func (s Settings) validate() error {
	switch s.Strategy {
	case "", string(StrategyFixed), string(StrategyIndependent):
	default:
		return fmt.Errorf("strategy must be %q or %q", StrategyFixed, StrategyIndependent)
	}
	switch s.RepoType {
	case "", string(TopologySingle), string(TopologyMonorepo):
	default:
		return fmt.Errorf("repoType must be %q or %q", TopologySingle, TopologyMonorepo)
	}
	if s.TagFormat != "" && !strings.Contains(s.TagFormat, "${version}") {
		return fmt.Errorf("tagFormat must contain ${version}")
	}
	return nil
}
