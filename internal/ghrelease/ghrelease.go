// internal/ghrelease/ghrelease.go
//
// GitHub collaborator for the CI release command: create, list and delete
// releases on the repository behind the origin remote.

package ghrelease

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/result"
)

// ErrBadRemote reports a remote URL that does not point at GitHub.
var ErrBadRemote = errors.New("ghrelease: remote is not a GitHub repository")

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// ParseRemote extracts owner/name from an ssh or https GitHub remote URL.
func ParseRemote(url string) (Repo, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	var path string
	switch {
	case strings.HasPrefix(trimmed, "git@github.com:"):
		path = strings.TrimPrefix(trimmed, "git@github.com:")
	case strings.HasPrefix(trimmed, "ssh://git@github.com/"):
		path = strings.TrimPrefix(trimmed, "ssh://git@github.com/")
	case strings.HasPrefix(trimmed, "https://github.com/"):
		path = strings.TrimPrefix(trimmed, "https://github.com/")
	case strings.HasPrefix(trimmed, "http://github.com/"):
		path = strings.TrimPrefix(trimmed, "http://github.com/")
	default:
		return Repo{}, fmt.Errorf("%w: %q", ErrBadRemote, url)
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("%w: %q", ErrBadRemote, url)
	}
	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

// Client wraps the GitHub REST API for one repository.
type Client struct {
	gh   *github.Client
	repo Repo
	log  *zap.Logger
}

// NewClient builds a client; an empty token leaves the client unauthenticated
// (enough for reads against public repositories).
func NewClient(token string, repo Repo, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	return &Client{gh: gh, repo: repo, log: log}
}

// CreateRelease publishes a release for an existing tag.
func (c *Client) CreateRelease(ctx context.Context, tag, body string) (*github.RepositoryRelease, error) {
	prerelease := false
	if v, err := semver.NewVersion(strings.TrimPrefix(tag, "v")); err == nil {
		prerelease = v.Prerelease() != ""
	}
	release, _, err := c.gh.Repositories.CreateRelease(ctx, c.repo.Owner, c.repo.Name, &github.RepositoryRelease{
		TagName:    github.String(tag),
		Name:       github.String(tag),
		Body:       github.String(body),
		Prerelease: github.Bool(prerelease),
	})
	if err != nil {
		return nil, fmt.Errorf("ghrelease: create release %s: %w", tag, err)
	}
	c.log.Info("github release created", zap.String("tag", tag), zap.String("url", release.GetHTMLURL()))
	return release, nil
}

// ListReleases returns the repository's releases, newest first.
func (c *Client) ListReleases(ctx context.Context) ([]*github.RepositoryRelease, error) {
	releases, _, err := c.gh.Repositories.ListReleases(ctx, c.repo.Owner, c.repo.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("ghrelease: list releases: %w", err)
	}
	return releases, nil
}

// DeleteRelease removes a release by ID; the tag itself is untouched.
func (c *Client) DeleteRelease(ctx context.Context, id int64) error {
	if _, err := c.gh.Repositories.DeleteRelease(ctx, c.repo.Owner, c.repo.Name, id); err != nil {
		return fmt.Errorf("ghrelease: delete release %d: %w", id, err)
	}
	return nil
}

// RepoMetadata fetches the repository record.
func (c *Client) RepoMetadata(ctx context.Context) (*github.Repository, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, c.repo.Owner, c.repo.Name)
	if err != nil {
		return nil, fmt.Errorf("ghrelease: fetch repository: %w", err)
	}
	return repo, nil
}

// ReleaseCreator is the slice of Client the publisher needs; tests stub it.
type ReleaseCreator interface {
	CreateRelease(ctx context.Context, tag, body string) (*github.RepositoryRelease, error)
}

// Published reports the outcome of a publish operation.
type Published struct {
	TagName string `json:"tagName"`
	URL     string `json:"url,omitempty"`
	DryRun  bool   `json:"dryRun,omitempty"`
}

// Publisher turns a tag plus notes into a GitHub release.
type Publisher struct {
	api ReleaseCreator
	log *zap.Logger
}

// NewPublisher builds a publisher over a release API.
func NewPublisher(api ReleaseCreator, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{api: api, log: log}
}

// Publish creates the release, or previews it under dry-run.
func (p *Publisher) Publish(ctx context.Context, tag, notes string, dryRun bool) result.Result[Published] {
	if dryRun {
		return result.Ok(Published{TagName: tag, DryRun: true}, "dry-run: would publish release %s", tag)
	}
	release, err := p.api.CreateRelease(ctx, tag, notes)
	if err != nil {
		return result.FromErr[Published](err)
	}
	return result.Ok(Published{TagName: tag, URL: release.GetHTMLURL()}, "published release %s", tag)
}
