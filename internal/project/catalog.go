// internal/project/catalog.go
//
// Workspace package discovery. Globs from the workspaces declaration are
// expanded against the repository root; each matched directory must carry a
// valid manifest to enter the catalog. Broken manifests are skipped so a
// single stray directory cannot take down the whole scan.

package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/manifest"
	"github.com/relkit/relkit/internal/result"
)

var (
	// ErrNoPackages reports an empty catalog after workspace expansion.
	ErrNoPackages = errors.New("project: no packages found; check the workspaces globs")
	// ErrPackageNotFound reports a missed catalog lookup.
	ErrPackageNotFound = errors.New("project: package not found")
)

// ignoredDirs are conventional directories that never hold workspace
// packages, no matter what the globs say.
func ignoredDirs() map[string]struct{} {
	return map[string]struct{}{
		"node_modules": {},
		"dist":         {},
		"build":        {},
		".git":         {},
		"temp":         {},
		"tmp":          {},
		".cache":       {},
		"coverage":     {},
	}
}

// PackageDescriptor identifies one releasable package.
type PackageDescriptor struct {
	Name string `json:"name"`
	// Version is the current manifest version.
	Version string `json:"version"`
	// Path is the package directory relative to the repository root with a
	// trailing slash; empty for the root package of a single repository.
	Path string `json:"directoryPath"`
}

// DirName returns the final path segment of the package directory.
func (p PackageDescriptor) DirName() string {
	trimmed := strings.TrimSuffix(p.Path, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Catalog maps package names to workspace directories.
type Catalog struct {
	store *manifest.Store
	res   Resolution
	log   *zap.Logger

	packages []PackageDescriptor
	scanned  bool
}

// NewCatalog builds a catalog for a resolved repository.
func NewCatalog(store *manifest.Store, res Resolution, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{store: store, res: res, log: log}
}

// ListPackages returns every discovered package, sorted by name.
func (c *Catalog) ListPackages() result.Result[[]PackageDescriptor] {
	pkgs, err := c.discover()
	if err != nil {
		return result.FromErr[[]PackageDescriptor](err)
	}
	return result.Ok(pkgs, "found %d package(s)", len(pkgs))
}

// GetByName looks a package up by its declared name, case-sensitive.
func (c *Catalog) GetByName(name string) result.Result[PackageDescriptor] {
	pkgs, err := c.discover()
	if err != nil {
		return result.FromErr[PackageDescriptor](err)
	}
	for _, pkg := range pkgs {
		if pkg.Name == name {
			return result.Ok(pkg, "resolved %s", name)
		}
	}
	return result.FromErr[PackageDescriptor](fmt.Errorf("%w: %q", ErrPackageNotFound, name))
}

// GetPath returns the trailing-slash-normalized directory of a package.
func (c *Catalog) GetPath(name string) result.Result[string] {
	lookup := c.GetByName(name)
	if !lookup.Success {
		return result.Result[string]{Success: false, Message: lookup.Message}
	}
	return result.Ok(lookup.Data.Path, "resolved path for %s", name)
}

func (c *Catalog) discover() ([]PackageDescriptor, error) {
	if c.scanned {
		if len(c.packages) == 0 {
			return nil, ErrNoPackages
		}
		return c.packages, nil
	}
	c.scanned = true

	if c.res.Topology == TopologySingle {
		if err := c.store.Validate(c.res.Root); err != nil {
			return nil, err
		}
		c.packages = []PackageDescriptor{{
			Name:    c.res.Root.Name,
			Version: c.res.Root.Version,
		}}
		return c.packages, nil
	}

	fsys := os.DirFS(c.store.Root())
	ignored := ignoredDirs()
	seenDir := map[string]struct{}{}
	seenName := map[string]struct{}{}
	var pkgs []PackageDescriptor
	for _, pattern := range c.res.Config.Workspaces {
		matches, err := doublestar.Glob(fsys, strings.TrimSuffix(pattern, "/"))
		if err != nil {
			return nil, fmt.Errorf("project: expand workspace glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			if hasIgnoredSegment(match, ignored) {
				continue
			}
			info, err := fs.Stat(fsys, match)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, ok := seenDir[match]; ok {
				continue
			}
			seenDir[match] = struct{}{}
			m, err := c.store.Read(match)
			if err != nil {
				c.log.Debug("skipping workspace directory without manifest", zap.String("dir", match))
				continue
			}
			if err := c.store.Validate(m); err != nil {
				c.log.Warn("skipping package with invalid manifest", zap.String("dir", match), zap.Error(err))
				continue
			}
			if _, dup := seenName[m.Name]; dup {
				c.log.Warn("duplicate package name, keeping first occurrence", zap.String("name", m.Name), zap.String("dir", match))
				continue
			}
			seenName[m.Name] = struct{}{}
			pkgs = append(pkgs, PackageDescriptor{
				Name:    m.Name,
				Version: m.Version,
				Path:    match + "/",
			})
		}
	}
	if len(pkgs) == 0 {
		return nil, ErrNoPackages
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	c.packages = pkgs
	return pkgs, nil
}

func hasIgnoredSegment(path string, ignored map[string]struct{}) bool {
	for _, segment := range strings.Split(path, "/") {
		if _, ok := ignored[segment]; ok {
			return true
		}
	}
	return false
}
