// internal/project/topology.go
//
// Repository topology detection. A repository is either a single package or a
// monorepo; the distinction is read once per invocation from the root
// manifest, optionally adjusted by .relkit.yaml, and drives tag formats and
// versioning strategy everywhere downstream.

package project

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/manifest"
	"github.com/relkit/relkit/internal/result"
)

// Topology distinguishes single-package repositories from monorepos.
type Topology string

const (
	TopologySingle   Topology = "single"
	TopologyMonorepo Topology = "monorepo"
)

// Strategy selects how monorepo packages are versioned.
type Strategy string

const (
	// StrategyFixed versions every package in lockstep under one tag.
	StrategyFixed Strategy = "fixed"
	// StrategyIndependent gives each package its own version and tag.
	StrategyIndependent Strategy = "independent"
)

// ErrConfiguration covers a missing or contradictory release configuration.
var ErrConfiguration = errors.New("project: configuration error")

// ReleaseConfig is the per-topology release configuration. It is constructed
// fresh for every resolution; downstream components treat it as read-only.
type ReleaseConfig struct {
	TagFormat    string
	Strategy     Strategy
	PreReleaseID string
	Workspaces   []string
}

// DefaultSingleConfig returns the configuration applied to single-package
// repositories when nothing overrides it.
func DefaultSingleConfig() ReleaseConfig {
	return ReleaseConfig{TagFormat: "v${version}"}
}

// DefaultMonorepoConfig returns the configuration applied to monorepos when
// nothing overrides it.
func DefaultMonorepoConfig() ReleaseConfig {
	return ReleaseConfig{TagFormat: "${name}@${version}", Strategy: StrategyIndependent}
}

// Resolution is the outcome of topology detection.
type Resolution struct {
	Topology Topology
	Config   ReleaseConfig
	Root     manifest.Manifest
}

// Resolver determines the repository topology from the root manifest.
type Resolver struct {
	store *manifest.Store
	log   *zap.Logger
}

// NewResolver builds a resolver over the given manifest store.
func NewResolver(store *manifest.Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// Resolve reads the root manifest and settings file and reports the topology
// with its effective release configuration.
func (r *Resolver) Resolve() result.Result[Resolution] {
	res, err := r.resolve()
	if err != nil {
		return result.FromErr[Resolution](err)
	}
	return result.Ok(res, "resolved %s repository", res.Topology)
}

func (r *Resolver) resolve() (Resolution, error) {
	root, err := r.store.Read("")
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			return Resolution{}, fmt.Errorf("%w: no root manifest in %s", ErrConfiguration, r.store.Root())
		}
		return Resolution{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	settings, err := loadSettings(r.store.Root())
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	topology, err := detectTopology(root, settings)
	if err != nil {
		return Resolution{}, err
	}
	cfg, err := buildConfig(topology, root, settings)
	if err != nil {
		return Resolution{}, err
	}
	r.log.Debug("resolved topology",
		zap.String("topology", string(topology)),
		zap.String("tagFormat", cfg.TagFormat),
		zap.String("strategy", string(cfg.Strategy)))
	return Resolution{Topology: topology, Config: cfg, Root: root}, nil
}

// detectTopology applies the determination rule: a workspaces declaration or
// an explicit monorepo marker makes the repository a monorepo. A declared
// single topology alongside workspaces is a conflict, not a tiebreak.
func detectTopology(root manifest.Manifest, settings Settings) (Topology, error) {
	declared := strings.TrimSpace(root.RepoType)
	if declared == "" {
		declared = settings.RepoType
	}
	hasWorkspaces := len(root.Workspaces) > 0
	switch declared {
	case "":
		if hasWorkspaces {
			return TopologyMonorepo, nil
		}
		return TopologySingle, nil
	case string(TopologyMonorepo):
		return TopologyMonorepo, nil
	case string(TopologySingle):
		if hasWorkspaces {
			return "", fmt.Errorf("%w: repoType %q conflicts with a workspaces declaration", ErrConfiguration, declared)
		}
		return TopologySingle, nil
	default:
		return "", fmt.Errorf("%w: unknown repoType %q", ErrConfiguration, declared)
	}
}

func buildConfig(topology Topology, root manifest.Manifest, settings Settings) (ReleaseConfig, error) {
	var cfg ReleaseConfig
	switch topology {
	case TopologyMonorepo:
		cfg = DefaultMonorepoConfig()
		if settings.Strategy != "" {
			cfg.Strategy = Strategy(settings.Strategy)
		}
		if cfg.Strategy == StrategyFixed && settings.TagFormat == "" {
			// fixed monorepos share one version, so the tag carries no name
			cfg.TagFormat = DefaultSingleConfig().TagFormat
		}
		cfg.Workspaces = append([]string(nil), root.Workspaces...)
	default:
		cfg = DefaultSingleConfig()
		if settings.Strategy != "" {
			return ReleaseConfig{}, fmt.Errorf("%w: versioning strategy only applies to monorepos", ErrConfiguration)
		}
	}
	if settings.TagFormat != "" {
		cfg.TagFormat = settings.TagFormat
	}
	cfg.PreReleaseID = settings.PreReleaseID
	if !strings.Contains(cfg.TagFormat, "${version}") {
		return ReleaseConfig{}, fmt.Errorf("%w: tag format %q must contain ${version}", ErrConfiguration, cfg.TagFormat)
	}
	return cfg, nil
}
