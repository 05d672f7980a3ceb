package notes

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relkit/relkit/internal/commitfilter"
	"github.com/relkit/relkit/internal/gitx"
	"github.com/relkit/relkit/internal/gitx/gitxtest"
	"github.com/relkit/relkit/internal/manifest"
	"github.com/relkit/relkit/internal/project"
)

func newGenerator(t *testing.T, repo *gitxtest.Fake) *Generator {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"package.json":               `{"name":"root","version":"0.0.0","workspaces":["packages/*"]}`,
		"packages/auth/package.json": `{"name":"auth","version":"1.0.0"}`,
	}
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
	catalog := project.NewCatalog(store, res.Data, nil)
	return NewGenerator(repo, catalog, commitfilter.NewEngine(repo, nil), nil)
}

// Sections must appear in the fixed priority order no matter how the commits
// arrive.
func TestGenerateSectionOrdering(t *testing.T) {
	repo := &gitxtest.Fake{
		History: []gitx.CommitRecord{
			{Hash: "c1", Message: "chore: tidy lockfile"},
			{Hash: "c2", Message: "feat: add login flow"},
			{Hash: "c3", Message: "fix: handle expired sessions"},
		},
	}
	res := newGenerator(t, repo).Generate(context.Background(), Request{TagName: "v1.1.0"})
	if !res.Success {
		t.Fatalf("Generate: %s", res.Message)
	}
	doc := res.Data
	features := strings.Index(doc, "### Features")
	fixes := strings.Index(doc, "### Bug Fixes")
	chores := strings.Index(doc, "### Chores")
	if features < 0 || fixes < 0 || chores < 0 {
		t.Fatalf("missing sections:\n%s", doc)
	}
	if !(features < fixes && fixes < chores) {
		t.Fatalf("sections out of order:\n%s", doc)
	}
}

func TestGenerateStripsSubjectPrefix(t *testing.T) {
	repo := &gitxtest.Fake{
		History: []gitx.CommitRecord{{Hash: "c1", Message: "feat(auth): add login flow"}},
	}
	res := newGenerator(t, repo).Generate(context.Background(), Request{TagName: "v1.1.0"})
	if !strings.Contains(res.Data, "- add login flow\n") {
		t.Fatalf("prefix not stripped:\n%s", res.Data)
	}
	if strings.Contains(res.Data, "feat(auth)") {
		t.Fatalf("raw prefix leaked into notes:\n%s", res.Data)
	}
}

func TestGenerateBucketsUnconventionalIntoOther(t *testing.T) {
	repo := &gitxtest.Fake{
		History: []gitx.CommitRecord{{Hash: "c1", Message: "Merge branch main"}},
	}
	res := newGenerator(t, repo).Generate(context.Background(), Request{TagName: "v1.0.1"})
	if !strings.Contains(res.Data, "### Other Changes") || !strings.Contains(res.Data, "- Merge branch main") {
		t.Fatalf("unconventional commit not bucketed:\n%s", res.Data)
	}
}

func TestGenerateOmitsEmptySections(t *testing.T) {
	repo := &gitxtest.Fake{
		History: []gitx.CommitRecord{{Hash: "c1", Message: "feat: one feature"}},
	}
	res := newGenerator(t, repo).Generate(context.Background(), Request{TagName: "v1.1.0"})
	if strings.Contains(res.Data, "### Bug Fixes") {
		t.Fatalf("empty section rendered:\n%s", res.Data)
	}
}

func TestGenerateUsesCommitsSincePreviousTag(t *testing.T) {
	repo := &gitxtest.Fake{
		Latest: "v1.0.0",
		SinceTag: map[string][]gitx.CommitRecord{
			"v1.0.0": {{Hash: "c9", Message: "fix: only this one"}},
		},
		History: []gitx.CommitRecord{
			{Hash: "c9", Message: "fix: only this one"},
			{Hash: "c0", Message: "feat: already released"},
		},
	}
	res := newGenerator(t, repo).Generate(context.Background(), Request{TagName: "v1.0.1"})
	if strings.Contains(res.Data, "already released") {
		t.Fatalf("commits before the previous tag leaked in:\n%s", res.Data)
	}
	if !strings.Contains(res.Data, "only this one") {
		t.Fatalf("expected commit missing:\n%s", res.Data)
	}
}

func TestGenerateFiltersByPackage(t *testing.T) {
	repo := &gitxtest.Fake{
		History: []gitx.CommitRecord{
			{Hash: "c1", Message: "feat(auth): add login flow"},
			{Hash: "c2", Message: "feat(billing): add invoices"},
		},
	}
	res := newGenerator(t, repo).Generate(context.Background(), Request{TagName: "auth@1.1.0", PackageName: "auth"})
	if !res.Success {
		t.Fatalf("Generate: %s", res.Message)
	}
	if !strings.Contains(res.Data, "add login flow") || strings.Contains(res.Data, "add invoices") {
		t.Fatalf("package filtering wrong:\n%s", res.Data)
	}
}

func TestGenerateUnknownPackageFails(t *testing.T) {
	repo := &gitxtest.Fake{}
	res := newGenerator(t, repo).Generate(context.Background(), Request{TagName: "x@1.0.0", PackageName: "nope"})
	if res.Success {
		t.Fatalf("expected unknown package failure")
	}
}
