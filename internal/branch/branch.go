// internal/branch/branch.go
//
// Release-branch workflow: validate, compute the plan, then branch, bump the
// manifest, commit and optionally push. Steps run strictly in order and a
// failure surfaces the step it happened in. There is no rollback: a branch
// created before a later failure is left in place for manual inspection.

package branch

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/gitx"
	"github.com/relkit/relkit/internal/manifest"
	"github.com/relkit/relkit/internal/project"
	"github.com/relkit/relkit/internal/result"
	"github.com/relkit/relkit/internal/tagging"
)

// Request carries the inputs for a release branch.
type Request struct {
	PackageName  string
	Version      string
	ReleaseNotes string
}

// Options controls side effects.
type Options struct {
	Push   bool
	DryRun bool
}

// Executed reports the computed plan and, outside dry-run, what was done.
type Executed struct {
	BranchName      string `json:"branchName"`
	PackagePath     string `json:"packagePath"`
	PreviousVersion string `json:"previousVersion"`
	DryRun          bool   `json:"dryRun,omitempty"`
	Pushed          bool   `json:"pushed,omitempty"`
}

// Strategy executes the branch release workflow.
type Strategy struct {
	repo    gitx.Repository
	store   *manifest.Store
	catalog *project.Catalog
	res     project.Resolution
	log     *zap.Logger
}

// NewStrategy builds a branch release strategy for a resolved repository.
func NewStrategy(repo gitx.Repository, store *manifest.Store, catalog *project.Catalog, res project.Resolution, log *zap.Logger) *Strategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Strategy{repo: repo, store: store, catalog: catalog, res: res, log: log}
}

// Execute runs the state machine. Dry-run stops after the plan is computed
// and returns it unchanged.
func (s *Strategy) Execute(ctx context.Context, req Request, opts Options) result.Result[Executed] {
	plan, err := s.plan(req)
	if err != nil {
		return result.FromErr[Executed](err)
	}
	if opts.DryRun {
		plan.DryRun = true
		return result.Ok(plan, "dry-run: would create branch %s", plan.BranchName)
	}

	if err := s.repo.CreateBranch(ctx, plan.BranchName); err != nil {
		return result.Fail[Executed]("create branch %s: %v", plan.BranchName, err)
	}
	if err := s.store.WriteVersion(plan.PackagePath, req.Version); err != nil {
		return result.Fail[Executed]("branch %s created but bumping the manifest failed: %v", plan.BranchName, err)
	}
	change := gitx.ChangeSet{
		Type:    "chore",
		Message: fmt.Sprintf("release %s", req.Version),
		Body:    req.ReleaseNotes,
	}
	if s.res.Topology == project.TopologyMonorepo {
		change.Scope = req.PackageName
	}
	if err := s.repo.CommitChanges(ctx, change); err != nil {
		return result.Fail[Executed]("branch %s created but committing the version bump failed: %v", plan.BranchName, err)
	}
	if opts.Push {
		if err := s.repo.PushBranch(ctx, plan.BranchName); err != nil {
			return result.Fail[Executed]("branch %s committed locally but pushing failed: %v", plan.BranchName, err)
		}
		plan.Pushed = true
	}
	s.log.Info("release branch ready",
		zap.String("branch", plan.BranchName),
		zap.String("version", req.Version),
		zap.Bool("pushed", plan.Pushed))
	return result.Ok(plan, "created release branch %s", plan.BranchName)
}

// plan validates the request and computes branch name, manifest path and the
// version being replaced. It performs no mutation.
func (s *Strategy) plan(req Request) (Executed, error) {
	if _, err := semver.NewVersion(req.Version); err != nil {
		return Executed{}, fmt.Errorf("%w: %q", tagging.ErrInvalidVersion, req.Version)
	}
	if s.res.Topology == project.TopologyMonorepo {
		if req.PackageName == "" {
			return Executed{}, fmt.Errorf("branch: package name is required in a monorepo")
		}
		lookup := s.catalog.GetByName(req.PackageName)
		if !lookup.Success {
			return Executed{}, fmt.Errorf("branch: %s", lookup.Message)
		}
		return Executed{
			BranchName:      fmt.Sprintf("release/%s@%s", req.PackageName, req.Version),
			PackagePath:     lookup.Data.Path,
			PreviousVersion: lookup.Data.Version,
		}, nil
	}
	return Executed{
		BranchName:      fmt.Sprintf("release/v%s", req.Version),
		PreviousVersion: s.res.Root.Version,
	}, nil
}
