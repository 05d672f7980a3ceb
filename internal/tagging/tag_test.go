package tagging

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/relkit/relkit/internal/gitx/gitxtest"
	"github.com/relkit/relkit/internal/project"
)

func singleRes() project.Resolution {
	return project.Resolution{Topology: project.TopologySingle, Config: project.DefaultSingleConfig()}
}

func monorepoRes(strategy project.Strategy) project.Resolution {
	cfg := project.DefaultMonorepoConfig()
	cfg.Strategy = strategy
	if strategy == project.StrategyFixed {
		cfg.TagFormat = project.DefaultSingleConfig().TagFormat
	}
	return project.Resolution{Topology: project.TopologyMonorepo, Config: cfg}
}

func TestCreateTagSingleRepo(t *testing.T) {
	repo := &gitxtest.Fake{}
	creator := NewCreator(repo, singleRes(), nil)
	res := creator.CreateTag(context.Background(), Ref{Version: "2.0.0"}, Options{})
	if !res.Success {
		t.Fatalf("CreateTag: %s", res.Message)
	}
	if res.Data.TagName != "v2.0.0" {
		t.Fatalf("unexpected tag name %q", res.Data.TagName)
	}
	if len(repo.Tags) != 1 || repo.Tags[0].Name != "v2.0.0" {
		t.Fatalf("tag not created: %+v", repo.Tags)
	}
	if repo.Tags[0].Message != "Release v2.0.0" {
		t.Fatalf("unexpected annotation %q", repo.Tags[0].Message)
	}
	if repo.TagsPushed != 0 {
		t.Fatalf("push not requested but tags were pushed")
	}
}

func TestCreateTagIndependentStrategy(t *testing.T) {
	repo := &gitxtest.Fake{}
	creator := NewCreator(repo, monorepoRes(project.StrategyIndependent), nil)
	res := creator.CreateTag(context.Background(), Ref{PackageName: "pkg", Version: "1.2.3"}, Options{Push: true})
	if !res.Success || res.Data.TagName != "pkg@1.2.3" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if repo.TagsPushed != 1 {
		t.Fatalf("expected tags pushed once, got %d", repo.TagsPushed)
	}
	parsed, err := ParseTagName("${name}@${version}", res.Data.TagName)
	if err != nil {
		t.Fatalf("ParseTagName: %v", err)
	}
	if parsed.Name != "pkg" || parsed.Version != "1.2.3" {
		t.Fatalf("round trip lost data: %+v", parsed)
	}
}

// Fixed-strategy monorepos share one version, so no package name is needed.
func TestCreateTagFixedStrategyNeedsNoPackageName(t *testing.T) {
	repo := &gitxtest.Fake{}
	creator := NewCreator(repo, monorepoRes(project.StrategyFixed), nil)
	res := creator.CreateTag(context.Background(), Ref{Version: "3.0.0"}, Options{})
	if !res.Success || res.Data.TagName != "v3.0.0" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCreateTagIndependentRequiresPackageName(t *testing.T) {
	repo := &gitxtest.Fake{}
	creator := NewCreator(repo, monorepoRes(project.StrategyIndependent), nil)
	res := creator.CreateTag(context.Background(), Ref{Version: "1.0.0"}, Options{})
	if res.Success {
		t.Fatalf("expected failure without package name")
	}
	if len(repo.Tags) != 0 {
		t.Fatalf("no tag should exist after validation failure")
	}
}

func TestCreateTagRejectsInvalidVersion(t *testing.T) {
	creator := NewCreator(&gitxtest.Fake{}, singleRes(), nil)
	res := creator.CreateTag(context.Background(), Ref{Version: "not-a-version"}, Options{})
	if res.Success {
		t.Fatalf("expected invalid version failure")
	}
	if !strings.Contains(res.Message, "invalid version") {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

// Dry-run returns identical data on repeated calls and performs no mutation.
func TestCreateTagDryRunIsIdempotent(t *testing.T) {
	repo := &gitxtest.Fake{}
	creator := NewCreator(repo, singleRes(), nil)
	first := creator.CreateTag(context.Background(), Ref{Version: "2.0.0"}, Options{DryRun: true, Push: true})
	second := creator.CreateTag(context.Background(), Ref{Version: "2.0.0"}, Options{DryRun: true, Push: true})
	if !first.Success || !reflect.DeepEqual(first, second) {
		t.Fatalf("dry-run not idempotent: %+v vs %+v", first, second)
	}
	if first.Data.TagName != "v2.0.0" {
		t.Fatalf("dry-run must compute the real tag name, got %q", first.Data.TagName)
	}
	if len(repo.Tags) != 0 || repo.TagsPushed != 0 {
		t.Fatalf("dry-run mutated git state: %+v", repo)
	}
}

func TestCreateTagReportsFailingStage(t *testing.T) {
	repo := &gitxtest.Fake{PushTagsErr: errors.New("remote rejected")}
	creator := NewCreator(repo, singleRes(), nil)
	res := creator.CreateTag(context.Background(), Ref{Version: "2.0.0"}, Options{Push: true})
	if res.Success {
		t.Fatalf("expected push failure")
	}
	if !strings.Contains(res.Message, "created locally") || !strings.Contains(res.Message, "remote rejected") {
		t.Fatalf("message must name the failed stage: %q", res.Message)
	}
	if len(repo.Tags) != 1 {
		t.Fatalf("local tag should remain after push failure")
	}
}
