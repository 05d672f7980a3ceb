// internal/gitx/gitxtest/fake.go
//
// In-memory Repository for component tests. Every mutation is recorded so
// tests can assert on exactly what the engine asked git to do.

package gitxtest

import (
	"context"
	"fmt"

	"github.com/relkit/relkit/internal/gitx"
)

// Tag records one created tag.
type Tag struct {
	Name    string
	Message string
}

// Fake implements gitx.Repository from canned data.
type Fake struct {
	History      []gitx.CommitRecord
	SinceTag     map[string][]gitx.CommitRecord
	Latest       string
	Files        map[string][]string
	FilesErr     map[string]error
	Remote       string
	CreateTagErr error
	PushTagsErr  error
	BranchErr    error
	PushErr      error
	CommitErr    error

	Tags           []Tag
	TagsPushed     int
	Branches       []string
	PushedBranches []string
	Changes        []gitx.ChangeSet
}

var _ gitx.Repository = (*Fake)(nil)

func (f *Fake) ChangedFiles(_ context.Context, hash string) ([]string, error) {
	if err := f.FilesErr[hash]; err != nil {
		return nil, err
	}
	return f.Files[hash], nil
}

func (f *Fake) Commits(context.Context) ([]gitx.CommitRecord, error) {
	return f.History, nil
}

func (f *Fake) CommitsSinceTag(_ context.Context, tag string) ([]gitx.CommitRecord, error) {
	commits, ok := f.SinceTag[tag]
	if !ok {
		return nil, fmt.Errorf("unknown tag %q", tag)
	}
	return commits, nil
}

func (f *Fake) LatestTag(context.Context) (string, error) {
	return f.Latest, nil
}

func (f *Fake) CreateTag(_ context.Context, name, message string) error {
	if f.CreateTagErr != nil {
		return f.CreateTagErr
	}
	f.Tags = append(f.Tags, Tag{Name: name, Message: message})
	return nil
}

func (f *Fake) PushTags(context.Context) error {
	if f.PushTagsErr != nil {
		return f.PushTagsErr
	}
	f.TagsPushed++
	return nil
}

func (f *Fake) CreateBranch(_ context.Context, name string) error {
	if f.BranchErr != nil {
		return f.BranchErr
	}
	f.Branches = append(f.Branches, name)
	return nil
}

func (f *Fake) PushBranch(_ context.Context, name string) error {
	if f.PushErr != nil {
		return f.PushErr
	}
	f.PushedBranches = append(f.PushedBranches, name)
	return nil
}

func (f *Fake) CommitChanges(_ context.Context, change gitx.ChangeSet) error {
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Changes = append(f.Changes, change)
	return nil
}

func (f *Fake) RemoteURL(context.Context, string) (string, error) {
	if f.Remote == "" {
		return "", fmt.Errorf("no remote configured")
	}
	return f.Remote, nil
}
