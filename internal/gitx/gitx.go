// internal/gitx/gitx.go
//
// Git collaborator consumed by the release engine. The engine only ever talks
// to the Repository interface so tests can substitute stubs; the real
// implementation lives in gogit.go.

package gitx

import (
	"context"
	"fmt"
	"strings"
)

// CommitRecord is an immutable view of one commit as supplied by git history,
// most-recent-first.
type CommitRecord struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

// Subject returns the first line of the commit message.
func (c CommitRecord) Subject() string {
	if i := strings.IndexByte(c.Message, '\n'); i >= 0 {
		return strings.TrimSpace(c.Message[:i])
	}
	return strings.TrimSpace(c.Message)
}

// ChangeSet describes a conventional commit to record against the working tree.
type ChangeSet struct {
	Type    string
	Scope   string
	Message string
	Body    string
}

// Subject renders the conventional-commit subject line.
func (c ChangeSet) Subject() string {
	if c.Scope != "" {
		return fmt.Sprintf("%s(%s): %s", c.Type, c.Scope, c.Message)
	}
	return fmt.Sprintf("%s: %s", c.Type, c.Message)
}

// Repository is the set of git operations the release engine depends on.
type Repository interface {
	// ChangedFiles lists the paths touched by a single commit, relative to
	// the repository root.
	ChangedFiles(ctx context.Context, hash string) ([]string, error)
	// Commits returns the full history reachable from HEAD.
	Commits(ctx context.Context) ([]CommitRecord, error)
	// CommitsSinceTag returns the commits after the given tag, exclusive.
	CommitsSinceTag(ctx context.Context, tag string) ([]CommitRecord, error)
	// LatestTag returns the most recently committed tag name, or "" when the
	// repository has no tags.
	LatestTag(ctx context.Context) (string, error)
	CreateTag(ctx context.Context, name, message string) error
	PushTags(ctx context.Context) error
	// CreateBranch creates the branch and checks it out.
	CreateBranch(ctx context.Context, name string) error
	PushBranch(ctx context.Context, name string) error
	// CommitChanges stages everything and records a conventional commit.
	CommitChanges(ctx context.Context, change ChangeSet) error
	RemoteURL(ctx context.Context, remote string) (string, error)
}
