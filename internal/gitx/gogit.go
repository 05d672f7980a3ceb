package gitx

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"go.uber.org/zap"
)

const defaultRemote = "origin"

// Option customizes an opened repository.
type Option func(*GoGit)

// GoGit implements Repository on top of go-git.
type GoGit struct {
	repo *gogit.Repository
	log  *zap.Logger
	now  func() time.Time

	// identity used for tags and commits when the repository config carries
	// none (fresh test repositories, CI runners).
	name  string
	email string
}

// WithClock overrides the signature timestamp source (tests).
func WithClock(clock func() time.Time) Option {
	return func(g *GoGit) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithIdentity overrides the fallback author identity.
func WithIdentity(name, email string) Option {
	return func(g *GoGit) {
		g.name, g.email = name, email
	}
}

// Open opens the repository rooted at path.
func Open(path string, log *zap.Logger, opts ...Option) (*GoGit, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("gitx: open %s: %w", path, err)
	}
	return Wrap(repo, log, opts...), nil
}

// Wrap adapts an already-open go-git repository.
func Wrap(repo *gogit.Repository, log *zap.Logger, opts ...Option) *GoGit {
	if log == nil {
		log = zap.NewNop()
	}
	g := &GoGit{
		repo:  repo,
		log:   log,
		now:   time.Now,
		name:  "relkit",
		email: "relkit@localhost",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// ChangedFiles resolves the paths touched by one commit via its diff stats.
func (g *GoGit) ChangedFiles(ctx context.Context, hash string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	commit, err := g.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("gitx: lookup commit %s: %w", hash, err)
	}
	stats, err := commit.Stats()
	if err != nil {
		return nil, fmt.Errorf("gitx: stats for %s: %w", hash, err)
	}
	files := make([]string, 0, len(stats))
	for _, stat := range stats {
		files = append(files, stat.Name)
	}
	return files, nil
}

// Commits walks history from HEAD, most recent first.
func (g *GoGit) Commits(ctx context.Context) ([]CommitRecord, error) {
	return g.commitsUntil(ctx, plumbing.ZeroHash)
}

// CommitsSinceTag returns commits after the tagged commit, exclusive.
func (g *GoGit) CommitsSinceTag(ctx context.Context, tag string) ([]CommitRecord, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(tag))
	if err != nil {
		return nil, fmt.Errorf("gitx: resolve tag %s: %w", tag, err)
	}
	return g.commitsUntil(ctx, *hash)
}

func (g *GoGit) commitsUntil(ctx context.Context, stop plumbing.Hash) ([]CommitRecord, error) {
	head, err := g.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("gitx: resolve HEAD: %w", err)
	}
	iter, err := g.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("gitx: read log: %w", err)
	}
	defer iter.Close()
	var records []CommitRecord
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.Hash == stop {
			return storer.ErrStop
		}
		records = append(records, CommitRecord{
			Hash:    c.Hash.String(),
			Message: c.Message,
			Author:  c.Author.Name,
			Date:    c.Author.When.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("gitx: walk log: %w", err)
	}
	return records, nil
}

// LatestTag picks the tag whose target commit is newest.
func (g *GoGit) LatestTag(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	iter, err := g.repo.Tags()
	if err != nil {
		return "", fmt.Errorf("gitx: list tags: %w", err)
	}
	defer iter.Close()
	var (
		latest     string
		latestWhen time.Time
	)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash, err := g.repo.ResolveRevision(plumbing.Revision(ref.Name().String()))
		if err != nil {
			return nil // unreadable tag, skip
		}
		commit, err := g.repo.CommitObject(*hash)
		if err != nil {
			return nil
		}
		if latest == "" || commit.Committer.When.After(latestWhen) {
			latest = ref.Name().Short()
			latestWhen = commit.Committer.When
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gitx: walk tags: %w", err)
	}
	return latest, nil
}

// CreateTag records an annotated tag at HEAD.
func (g *GoGit) CreateTag(ctx context.Context, name, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	head, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("gitx: resolve HEAD: %w", err)
	}
	_, err = g.repo.CreateTag(name, head.Hash(), &gogit.CreateTagOptions{
		Tagger:  g.signature(),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("gitx: create tag %s: %w", name, err)
	}
	g.log.Info("created annotated tag", zap.String("tag", name))
	return nil
}

// PushTags pushes all tag refs to origin.
func (g *GoGit) PushTags(ctx context.Context) error {
	err := g.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: defaultRemote,
		RefSpecs:   []gitcfg.RefSpec{"refs/tags/*:refs/tags/*"},
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("gitx: push tags: %w", err)
	}
	return nil
}

// CreateBranch creates the branch off HEAD and checks it out.
func (g *GoGit) CreateBranch(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitx: open worktree: %w", err)
	}
	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("gitx: create branch %s: %w", name, err)
	}
	g.log.Info("created branch", zap.String("branch", name))
	return nil
}

// PushBranch pushes a single branch ref to origin.
func (g *GoGit) PushBranch(ctx context.Context, name string) error {
	spec := gitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", name, name))
	err := g.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: defaultRemote,
		RefSpecs:   []gitcfg.RefSpec{spec},
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("gitx: push branch %s: %w", name, err)
	}
	return nil
}

// CommitChanges stages the whole tree and records a conventional commit.
func (g *GoGit) CommitChanges(ctx context.Context, change ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitx: open worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("gitx: stage changes: %w", err)
	}
	message := change.Subject()
	if change.Body != "" {
		message = message + "\n\n" + change.Body
	}
	if _, err := wt.Commit(message, &gogit.CommitOptions{Author: g.signature()}); err != nil {
		return fmt.Errorf("gitx: commit: %w", err)
	}
	g.log.Info("recorded commit", zap.String("subject", change.Subject()))
	return nil
}

// RemoteURL returns the first configured URL of the named remote.
func (g *GoGit) RemoteURL(ctx context.Context, remote string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if remote == "" {
		remote = defaultRemote
	}
	r, err := g.repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("gitx: remote %s: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("gitx: remote %s has no URL", remote)
	}
	return urls[0], nil
}

func (g *GoGit) signature() *object.Signature {
	name, email := g.name, g.email
	if cfg, err := g.repo.ConfigScoped(gitcfg.GlobalScope); err == nil {
		if cfg.User.Name != "" {
			name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			email = cfg.User.Email
		}
	}
	return &object.Signature{Name: name, Email: email, When: g.now()}
}
