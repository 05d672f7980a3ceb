// internal/commitfilter/filter.go
//
// Decides which commits are relevant to a package. Strategies run in strict
// priority order and the first match wins: file paths are authoritative but
// cost a git query per commit, so scope and name-mention matching exist as
// cheap fallbacks for squashed or externally-authored commits where file data
// is unavailable.

package commitfilter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/conventional"
	"github.com/relkit/relkit/internal/gitx"
	"github.com/relkit/relkit/internal/project"
	"github.com/relkit/relkit/internal/result"
)

// Reason records which strategy matched a commit.
type Reason string

const (
	ReasonFileBased   Reason = "file-based"
	ReasonScopeBased  Reason = "scope-based"
	ReasonNameMention Reason = "name-mention"
)

// FilteredCommit is a commit record plus the reason it was kept.
type FilteredCommit struct {
	gitx.CommitRecord
	Reason Reason `json:"filterReason"`
}

// Strategy is one relevance heuristic. Match reports whether the commit
// belongs to the package; a non-match falls through to the next strategy.
type Strategy struct {
	Reason Reason
	Match  func(ctx context.Context, pkg project.PackageDescriptor, commit gitx.CommitRecord) bool
}

// Engine filters commit history down to package-relevant commits.
type Engine struct {
	repo       gitx.Repository
	parser     *conventional.Parser
	log        *zap.Logger
	strategies []Strategy
}

// NewEngine builds a filter engine over the given git collaborator.
func NewEngine(repo gitx.Repository, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{repo: repo, parser: conventional.NewParser(), log: log}
	e.strategies = []Strategy{
		{Reason: ReasonFileBased, Match: e.matchFiles},
		{Reason: ReasonScopeBased, Match: e.matchScope},
		{Reason: ReasonNameMention, Match: e.matchMention},
	}
	return e
}

// FilterForPackage applies the strategies to every commit in order, keeping
// the supplied commit order in the output.
func (e *Engine) FilterForPackage(ctx context.Context, pkg project.PackageDescriptor, commits []gitx.CommitRecord) result.Result[[]FilteredCommit] {
	filtered := make([]FilteredCommit, 0, len(commits))
	for _, commit := range commits {
		if reason, ok := e.match(ctx, pkg, commit); ok {
			filtered = append(filtered, FilteredCommit{CommitRecord: commit, Reason: reason})
		}
	}
	return result.Ok(filtered, "%d of %d commit(s) relevant to %s", len(filtered), len(commits), pkg.Name)
}

func (e *Engine) match(ctx context.Context, pkg project.PackageDescriptor, commit gitx.CommitRecord) (Reason, bool) {
	for _, strategy := range e.strategies {
		if strategy.Match(ctx, pkg, commit) {
			e.log.Debug("commit matched",
				zap.String("hash", commit.Hash),
				zap.String("package", pkg.Name),
				zap.String("reason", string(strategy.Reason)))
			return strategy.Reason, true
		}
	}
	return "", false
}

// matchFiles asks git which files the commit touched. A failed query for a
// single commit must not abort the scan, so errors simply fall through to the
// next strategy.
func (e *Engine) matchFiles(ctx context.Context, pkg project.PackageDescriptor, commit gitx.CommitRecord) bool {
	dir := normalizeDir(pkg.Path)
	if dir == "" {
		return false
	}
	files, err := e.repo.ChangedFiles(ctx, commit.Hash)
	if err != nil {
		e.log.Debug("changed-files lookup failed, falling through",
			zap.String("hash", commit.Hash), zap.Error(err))
		return false
	}
	for _, file := range files {
		if strings.HasPrefix(file, dir) {
			return true
		}
	}
	return false
}

// matchScope compares the conventional-commit scope against the package name
// and against the final segment of the package directory.
func (e *Engine) matchScope(_ context.Context, pkg project.PackageDescriptor, commit gitx.CommitRecord) bool {
	msg, ok := e.parser.Parse(commit.Subject())
	if !ok || msg.Scope == "" {
		return false
	}
	if msg.Scope == pkg.Name || strings.Contains(msg.Scope, pkg.Name) {
		return true
	}
	return pkg.DirName() != "" && msg.Scope == pkg.DirName()
}

// matchMention keeps commits that mention the package name anywhere in the
// message body.
func (e *Engine) matchMention(_ context.Context, pkg project.PackageDescriptor, commit gitx.CommitRecord) bool {
	return pkg.Name != "" && strings.Contains(commit.Message, pkg.Name)
}

func normalizeDir(dir string) string {
	if dir == "" {
		return ""
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir
}
