package branch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/relkit/relkit/internal/gitx/gitxtest"
	"github.com/relkit/relkit/internal/manifest"
	"github.com/relkit/relkit/internal/project"
)

func fixture(t *testing.T, files map[string]string) (*manifest.Store, project.Resolution, *project.Catalog) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	store := manifest.NewStore(root)
	res := project.NewResolver(store, nil).Resolve()
	if !res.Success {
		t.Fatalf("Resolve: %s", res.Message)
	}
	return store, res.Data, project.NewCatalog(store, res.Data, nil)
}

func singleFixture(t *testing.T) (*manifest.Store, project.Resolution, *project.Catalog) {
	return fixture(t, map[string]string{
		"package.json": `{"name":"app","version":"1.0.0","license":"MIT"}`,
	})
}

func monorepoFixture(t *testing.T) (*manifest.Store, project.Resolution, *project.Catalog) {
	return fixture(t, map[string]string{
		"package.json":               `{"name":"root","version":"0.0.0","workspaces":["packages/*"]}`,
		"packages/auth/package.json": `{"name":"auth","version":"1.0.0"}`,
	})
}

func TestExecuteSingleRepo(t *testing.T) {
	store, res, catalog := singleFixture(t)
	repo := &gitxtest.Fake{}
	strategy := NewStrategy(repo, store, catalog, res, nil)
	executed := strategy.Execute(context.Background(),
		Request{Version: "2.0.0", ReleaseNotes: "## v2.0.0"},
		Options{Push: true})
	if !executed.Success {
		t.Fatalf("Execute: %s", executed.Message)
	}
	if executed.Data.BranchName != "release/v2.0.0" {
		t.Fatalf("unexpected branch %q", executed.Data.BranchName)
	}
	if executed.Data.PreviousVersion != "1.0.0" {
		t.Fatalf("unexpected previous version %q", executed.Data.PreviousVersion)
	}
	if len(repo.Branches) != 1 || repo.Branches[0] != "release/v2.0.0" {
		t.Fatalf("branch not created: %+v", repo.Branches)
	}
	if len(repo.PushedBranches) != 1 {
		t.Fatalf("branch not pushed: %+v", repo.PushedBranches)
	}
	// the manifest bump happened and kept unrelated fields
	m, err := store.Read("")
	if err != nil {
		t.Fatalf("re-read manifest: %v", err)
	}
	if m.Version != "2.0.0" {
		t.Fatalf("version not bumped: %q", m.Version)
	}
	data, err := os.ReadFile(filepath.Join(store.Root(), "package.json"))
	if err != nil {
		t.Fatalf("read manifest file: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parse manifest file: %v", err)
	}
	if _, ok := raw["license"]; !ok {
		t.Fatalf("unrelated manifest field lost: %s", data)
	}
	// the bump commit is conventional and carries the notes as its body
	if len(repo.Changes) != 1 {
		t.Fatalf("expected one commit, got %+v", repo.Changes)
	}
	change := repo.Changes[0]
	if change.Type != "chore" || change.Scope != "" || change.Message != "release 2.0.0" {
		t.Fatalf("unexpected change set: %+v", change)
	}
	if change.Body != "## v2.0.0" {
		t.Fatalf("release notes missing from commit body: %+v", change)
	}
}

func TestExecuteMonorepoScopesCommit(t *testing.T) {
	store, res, catalog := monorepoFixture(t)
	repo := &gitxtest.Fake{}
	strategy := NewStrategy(repo, store, catalog, res, nil)
	executed := strategy.Execute(context.Background(),
		Request{PackageName: "auth", Version: "1.1.0"},
		Options{})
	if !executed.Success {
		t.Fatalf("Execute: %s", executed.Message)
	}
	if executed.Data.BranchName != "release/auth@1.1.0" {
		t.Fatalf("unexpected branch %q", executed.Data.BranchName)
	}
	if executed.Data.PackagePath != "packages/auth/" {
		t.Fatalf("unexpected package path %q", executed.Data.PackagePath)
	}
	m, err := store.Read("packages/auth")
	if err != nil || m.Version != "1.1.0" {
		t.Fatalf("package manifest not bumped: %+v %v", m, err)
	}
	if len(repo.Changes) != 1 || repo.Changes[0].Scope != "auth" {
		t.Fatalf("commit not scoped to package: %+v", repo.Changes)
	}
	if len(repo.PushedBranches) != 0 {
		t.Fatalf("push not requested but branch was pushed")
	}
}

func TestExecuteMonorepoRequiresPackageName(t *testing.T) {
	store, res, catalog := monorepoFixture(t)
	repo := &gitxtest.Fake{}
	executed := NewStrategy(repo, store, catalog, res, nil).Execute(context.Background(),
		Request{Version: "1.1.0"}, Options{})
	if executed.Success {
		t.Fatalf("expected failure without package name")
	}
	if len(repo.Branches) != 0 {
		t.Fatalf("validation failure must not create branches")
	}
}

func TestExecuteRejectsInvalidVersion(t *testing.T) {
	store, res, catalog := singleFixture(t)
	executed := NewStrategy(&gitxtest.Fake{}, store, catalog, res, nil).Execute(context.Background(),
		Request{Version: "nope"}, Options{})
	if executed.Success {
		t.Fatalf("expected invalid version failure")
	}
}

func TestExecuteDryRunIsIdempotent(t *testing.T) {
	store, res, catalog := singleFixture(t)
	repo := &gitxtest.Fake{}
	strategy := NewStrategy(repo, store, catalog, res, nil)
	req := Request{Version: "2.0.0"}
	first := strategy.Execute(context.Background(), req, Options{DryRun: true, Push: true})
	second := strategy.Execute(context.Background(), req, Options{DryRun: true, Push: true})
	if !first.Success || !reflect.DeepEqual(first, second) {
		t.Fatalf("dry-run not idempotent: %+v vs %+v", first, second)
	}
	if len(repo.Branches) != 0 || len(repo.Changes) != 0 || len(repo.PushedBranches) != 0 {
		t.Fatalf("dry-run mutated git state: %+v", repo)
	}
	if m, err := store.Read(""); err != nil || m.Version != "1.0.0" {
		t.Fatalf("dry-run touched the manifest: %+v %v", m, err)
	}
}

// A push failure after the commit leaves the branch in place and names the
// failed stage; nothing is rolled back.
func TestExecuteReportsFailingStage(t *testing.T) {
	store, res, catalog := singleFixture(t)
	repo := &gitxtest.Fake{PushErr: os.ErrPermission}
	executed := NewStrategy(repo, store, catalog, res, nil).Execute(context.Background(),
		Request{Version: "2.0.0"}, Options{Push: true})
	if executed.Success {
		t.Fatalf("expected push failure")
	}
	if !strings.Contains(executed.Message, "committed locally but pushing failed") {
		t.Fatalf("message must name the failed stage: %q", executed.Message)
	}
	if len(repo.Branches) != 1 {
		t.Fatalf("branch should remain after push failure: %+v", repo.Branches)
	}
}
