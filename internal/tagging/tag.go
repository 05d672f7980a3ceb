// internal/tagging/tag.go
//
// Renders release tag names from the topology's tag format and, outside
// dry-run, creates and pushes them. Dry-run is an idempotent preview: the
// returned data is identical to a real run, no git mutation happens.

package tagging

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/gitx"
	"github.com/relkit/relkit/internal/project"
	"github.com/relkit/relkit/internal/result"
)

var (
	// ErrInvalidVersion reports a version that is not valid semver.
	ErrInvalidVersion = errors.New("tagging: invalid version")
	// ErrMissingPackageName reports an independent-strategy tag request
	// without a package name.
	ErrMissingPackageName = errors.New("tagging: package name required under the independent strategy")
)

// Ref names what is being tagged.
type Ref struct {
	PackageName string
	Version     string
}

// Options controls tag creation side effects.
type Options struct {
	Push   bool
	DryRun bool
}

// Created is the outcome of a tag operation.
type Created struct {
	TagName string `json:"tagName"`
	DryRun  bool   `json:"dryRun,omitempty"`
	Pushed  bool   `json:"pushed,omitempty"`
}

// Creator formats and creates release tags.
type Creator struct {
	repo gitx.Repository
	res  project.Resolution
	log  *zap.Logger
}

// NewCreator builds a tag creator for a resolved repository.
func NewCreator(repo gitx.Repository, res project.Resolution, log *zap.Logger) *Creator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Creator{repo: repo, res: res, log: log}
}

// FormatTagName renders the tag for a reference without touching git.
func (c *Creator) FormatTagName(ref Ref) (string, error) {
	if _, err := semver.NewVersion(ref.Version); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, ref.Version)
	}
	requireName := c.res.Topology == project.TopologyMonorepo && c.res.Config.Strategy == project.StrategyIndependent
	if requireName && ref.PackageName == "" {
		return "", ErrMissingPackageName
	}
	format, err := NewFormat(c.res.Config.TagFormat, requireName)
	if err != nil {
		return "", err
	}
	return format.Render(ref.PackageName, ref.Version), nil
}

// CreateTag validates the reference, renders the tag name, and outside
// dry-run creates the annotated tag and optionally pushes it. A failure names
// the stage it happened in so partial state is never silent.
func (c *Creator) CreateTag(ctx context.Context, ref Ref, opts Options) result.Result[Created] {
	tag, err := c.FormatTagName(ref)
	if err != nil {
		return result.FromErr[Created](err)
	}
	if opts.DryRun {
		return result.Ok(Created{TagName: tag, DryRun: true}, "dry-run: would create tag %s", tag)
	}
	if err := c.repo.CreateTag(ctx, tag, "Release "+tag); err != nil {
		return result.Fail[Created]("create tag %s: %v", tag, err)
	}
	if opts.Push {
		if err := c.repo.PushTags(ctx); err != nil {
			return result.Fail[Created]("tag %s created locally but pushing tags failed: %v", tag, err)
		}
	}
	c.log.Info("release tag created", zap.String("tag", tag), zap.Bool("pushed", opts.Push))
	return result.Ok(Created{TagName: tag, Pushed: opts.Push}, "created tag %s", tag)
}
