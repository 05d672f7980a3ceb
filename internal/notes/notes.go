// internal/notes/notes.go
//
// Structured release notes. Commits since the previous tag are grouped by
// conventional-commit type and rendered in a fixed section order that puts
// user-facing changes first. The ordering is a readability convention and is
// deliberately not configurable.

package notes

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/commitfilter"
	"github.com/relkit/relkit/internal/conventional"
	"github.com/relkit/relkit/internal/gitx"
	"github.com/relkit/relkit/internal/project"
	"github.com/relkit/relkit/internal/result"
)

// section pairs a conventional-commit type with its rendered heading.
type section struct {
	commitType string
	title      string
}

// sectionOrder renders user-facing changes before internal ones. Types
// outside this list (revert and malformed subjects) land in "other".
func sectionOrder() []section {
	return []section{
		{"feat", "Features"},
		{"fix", "Bug Fixes"},
		{"perf", "Performance Improvements"},
		{"refactor", "Refactoring"},
		{"docs", "Documentation"},
		{"style", "Styles"},
		{"test", "Tests"},
		{"chore", "Chores"},
		{"build", "Build"},
		{"ci", "CI"},
		{"other", "Other Changes"},
	}
}

// Request names the release the notes describe.
type Request struct {
	// TagName heads the rendered fragment.
	TagName string
	// PackageName scopes the commit set through the filter engine; empty
	// means all commits since the previous tag (single repo or fixed
	// strategy).
	PackageName string
}

// Generator renders Markdown changelog fragments.
type Generator struct {
	repo    gitx.Repository
	catalog *project.Catalog
	filter  *commitfilter.Engine
	parser  *conventional.Parser
	log     *zap.Logger
}

// NewGenerator builds a notes generator.
func NewGenerator(repo gitx.Repository, catalog *project.Catalog, filter *commitfilter.Engine, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		repo:    repo,
		catalog: catalog,
		filter:  filter,
		parser:  conventional.NewParser(),
		log:     log,
	}
}

// Generate collects the commit set, groups it by type, and renders the
// fragment.
func (g *Generator) Generate(ctx context.Context, req Request) result.Result[string] {
	commits, err := g.commitsSincePreviousTag(ctx)
	if err != nil {
		return result.FromErr[string](err)
	}
	if req.PackageName != "" {
		lookup := g.catalog.GetByName(req.PackageName)
		if !lookup.Success {
			return result.Result[string]{Success: false, Message: lookup.Message}
		}
		filtered := g.filter.FilterForPackage(ctx, lookup.Data, commits)
		if !filtered.Success {
			return result.Result[string]{Success: false, Message: filtered.Message}
		}
		commits = commits[:0]
		for _, fc := range filtered.Data {
			commits = append(commits, fc.CommitRecord)
		}
	}
	doc := g.render(req.TagName, commits)
	return result.Ok(doc, "release notes for %s cover %d commit(s)", req.TagName, len(commits))
}

func (g *Generator) commitsSincePreviousTag(ctx context.Context) ([]gitx.CommitRecord, error) {
	latest, err := g.repo.LatestTag(ctx)
	if err != nil {
		return nil, fmt.Errorf("notes: find previous tag: %w", err)
	}
	if latest == "" {
		commits, err := g.repo.Commits(ctx)
		if err != nil {
			return nil, fmt.Errorf("notes: read history: %w", err)
		}
		return commits, nil
	}
	commits, err := g.repo.CommitsSinceTag(ctx, latest)
	if err != nil {
		return nil, fmt.Errorf("notes: read history since %s: %w", latest, err)
	}
	return commits, nil
}

// render groups commits by type and emits non-empty sections in the fixed
// order, keeping the supplied (most-recent-first) commit order inside each.
func (g *Generator) render(tagName string, commits []gitx.CommitRecord) string {
	grouped := make(map[string][]string)
	for _, commit := range commits {
		subject := commit.Subject()
		commitType, line := "other", subject
		if msg, ok := g.parser.Parse(subject); ok {
			line = msg.Description
			if knownType(msg.Type) {
				commitType = msg.Type
			}
		}
		grouped[commitType] = append(grouped[commitType], line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", tagName)
	for _, sec := range sectionOrder() {
		lines := grouped[sec.commitType]
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", sec.title)
		for _, line := range lines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	return b.String()
}

func knownType(commitType string) bool {
	for _, sec := range sectionOrder() {
		if sec.commitType == commitType {
			return true
		}
	}
	return false
}
