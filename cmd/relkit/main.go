// cmd/relkit/main.go
//
// Entry point for the relkit CLI.
//
// Subcommands:
//   suggest   compute candidate next versions
//   packages  list workspace packages
//   tag       create a release tag
//   notes     generate release notes
//   branch    create a release branch with a version bump
//   release   CI flow: tag + notes + GitHub release

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/gitx"
	"github.com/relkit/relkit/internal/logging"
	"github.com/relkit/relkit/internal/manifest"
	"github.com/relkit/relkit/internal/project"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "suggest":
		err = runSuggest(args)
	case "packages":
		err = runPackages(args)
	case "tag":
		err = runTag(args)
	case "notes":
		err = runNotes(args)
	case "branch":
		err = runBranch(args)
	case "release":
		err = runRelease(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `relkit - git release workflows for single repos and monorepos

Usage:
  relkit suggest  [--package NAME] [--pre ID]
  relkit packages
  relkit tag      --version X.Y.Z [--package NAME] [--push] [--dry-run]
  relkit notes    --tag TAG [--package NAME] [--output FILE]
  relkit branch   --version X.Y.Z [--package NAME] [--push] [--dry-run]
  relkit release  --version X.Y.Z [--package NAME] [--dry-run]

Common flags: --repo PATH (default "."), --verbose
`)
}

// toolkit bundles the request-scoped collaborators every subcommand needs.
// Everything here is rebuilt per invocation; nothing outlives the command.
type toolkit struct {
	log     *zap.Logger
	store   *manifest.Store
	res     project.Resolution
	catalog *project.Catalog
	repo    gitx.Repository
}

// newToolkit resolves the topology and wires the collaborators. withGit opens
// the repository; commands that never touch git history skip that.
func newToolkit(repoPath string, verbose, withGit bool) (*toolkit, error) {
	log, err := logging.New(verbose)
	if err != nil {
		return nil, err
	}
	store := manifest.NewStore(repoPath)
	resolved := project.NewResolver(store, log).Resolve()
	if !resolved.Success {
		return nil, errors.New(resolved.Message)
	}
	tk := &toolkit{
		log:     log,
		store:   store,
		res:     resolved.Data,
		catalog: project.NewCatalog(store, resolved.Data, log),
	}
	if withGit {
		repo, err := gitx.Open(repoPath, log)
		if err != nil {
			return nil, err
		}
		tk.repo = repo
	}
	return tk, nil
}

// currentVersion looks up the version the next release builds on: the named
// package's manifest version, or the root manifest version when no package
// is given.
func (tk *toolkit) currentVersion(pkgName string) (string, error) {
	if pkgName != "" {
		lookup := tk.catalog.GetByName(pkgName)
		if !lookup.Success {
			return "", errors.New(lookup.Message)
		}
		return lookup.Data.Version, nil
	}
	if tk.res.Root.Version == "" {
		return "", errors.New("root manifest has no version; pass --package")
	}
	return tk.res.Root.Version, nil
}
