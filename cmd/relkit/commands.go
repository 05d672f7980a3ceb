package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/relkit/relkit/internal/branch"
	"github.com/relkit/relkit/internal/commitfilter"
	"github.com/relkit/relkit/internal/ghrelease"
	"github.com/relkit/relkit/internal/notes"
	"github.com/relkit/relkit/internal/semverx"
	"github.com/relkit/relkit/internal/tagging"
)

// commonFlags are shared by every subcommand.
type commonFlags struct {
	repoPath string
	verbose  bool
}

func addCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.repoPath, "repo", ".", "repository root")
	fs.BoolVar(&c.verbose, "verbose", false, "enable debug logging")
	return c
}

func runSuggest(args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	common := addCommon(fs)
	pkgName := fs.String("package", "", "package to suggest versions for")
	preID := fs.String("pre", "", "pre-release identifier (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tk, err := newToolkit(common.repoPath, common.verbose, false)
	if err != nil {
		return err
	}
	current, err := tk.currentVersion(*pkgName)
	if err != nil {
		return err
	}
	id := tk.res.Config.PreReleaseID
	if *preID != "" {
		id = *preID
	}
	suggested := semverx.NewEngine(tk.log).Suggest(current, id)
	if !suggested.Success {
		return errors.New(suggested.Message)
	}
	fmt.Println(headingStyle.Render(fmt.Sprintf("next versions from %s", current)))
	printCandidate("patch", suggested.Data.Patch)
	printCandidate("minor", suggested.Data.Minor)
	printCandidate("major", suggested.Data.Major)
	printCandidate("prerelease", suggested.Data.Prerelease)
	return nil
}

func printCandidate(label string, version *string) {
	value := "-"
	if version != nil {
		value = *version
	}
	fmt.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label)), value)
}

func runPackages(args []string) error {
	fs := flag.NewFlagSet("packages", flag.ExitOnError)
	common := addCommon(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	tk, err := newToolkit(common.repoPath, common.verbose, false)
	if err != nil {
		return err
	}
	listed := tk.catalog.ListPackages()
	if !listed.Success {
		return errors.New(listed.Message)
	}
	fmt.Println(headingStyle.Render(fmt.Sprintf("%s repository, %d package(s)", tk.res.Topology, len(listed.Data))))
	for _, pkg := range listed.Data {
		path := pkg.Path
		if path == "" {
			path = "./"
		}
		fmt.Printf("  %s %s %s\n", pkg.Name, labelStyle.Render(pkg.Version), labelStyle.Render(path))
	}
	return nil
}

func runTag(args []string) error {
	fs := flag.NewFlagSet("tag", flag.ExitOnError)
	common := addCommon(fs)
	version := fs.String("version", "", "version to tag (required)")
	pkgName := fs.String("package", "", "package being tagged")
	push := fs.Bool("push", false, "push tags after creation")
	dryRun := fs.Bool("dry-run", false, "compute the tag name without creating it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version == "" {
		return errors.New("--version is required")
	}
	tk, err := newToolkit(common.repoPath, common.verbose, true)
	if err != nil {
		return err
	}
	creator := tagging.NewCreator(tk.repo, tk.res, tk.log)
	created := creator.CreateTag(context.Background(),
		tagging.Ref{PackageName: *pkgName, Version: *version},
		tagging.Options{Push: *push, DryRun: *dryRun})
	if !created.Success {
		return errors.New(created.Message)
	}
	fmt.Println(okStyle.Render(created.Message))
	return nil
}

func runNotes(args []string) error {
	fs := flag.NewFlagSet("notes", flag.ExitOnError)
	common := addCommon(fs)
	tagName := fs.String("tag", "", "tag the notes describe (required)")
	pkgName := fs.String("package", "", "restrict notes to one package")
	output := fs.String("output", "", "write the fragment to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tagName == "" {
		return errors.New("--tag is required")
	}
	tk, err := newToolkit(common.repoPath, common.verbose, true)
	if err != nil {
		return err
	}
	generator := notes.NewGenerator(tk.repo, tk.catalog, commitfilter.NewEngine(tk.repo, tk.log), tk.log)
	generated := generator.Generate(context.Background(), notes.Request{TagName: *tagName, PackageName: *pkgName})
	if !generated.Success {
		return errors.New(generated.Message)
	}
	if *output != "" {
		if err := os.WriteFile(*output, []byte(generated.Data), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", *output, err)
		}
		fmt.Println(okStyle.Render(generated.Message))
		return nil
	}
	fmt.Print(generated.Data)
	return nil
}

func runBranch(args []string) error {
	fs := flag.NewFlagSet("branch", flag.ExitOnError)
	common := addCommon(fs)
	version := fs.String("version", "", "version to release (required)")
	pkgName := fs.String("package", "", "package being released")
	push := fs.Bool("push", false, "push the branch after committing")
	dryRun := fs.Bool("dry-run", false, "compute the plan without mutating the repository")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version == "" {
		return errors.New("--version is required")
	}
	tk, err := newToolkit(common.repoPath, common.verbose, true)
	if err != nil {
		return err
	}
	ctx := context.Background()

	// the version-bump commit body carries the notes for this release
	creator := tagging.NewCreator(tk.repo, tk.res, tk.log)
	tagName, err := creator.FormatTagName(tagging.Ref{PackageName: *pkgName, Version: *version})
	if err != nil {
		return err
	}
	generator := notes.NewGenerator(tk.repo, tk.catalog, commitfilter.NewEngine(tk.repo, tk.log), tk.log)
	generated := generator.Generate(ctx, notes.Request{TagName: tagName, PackageName: *pkgName})
	if !generated.Success {
		return errors.New(generated.Message)
	}

	strategy := branch.NewStrategy(tk.repo, tk.store, tk.catalog, tk.res, tk.log)
	executed := strategy.Execute(ctx,
		branch.Request{PackageName: *pkgName, Version: *version, ReleaseNotes: generated.Data},
		branch.Options{Push: *push, DryRun: *dryRun})
	if !executed.Success {
		return errors.New(executed.Message)
	}
	fmt.Println(okStyle.Render(executed.Message))
	fmt.Printf("  %s %s\n", labelStyle.Render("branch    "), executed.Data.BranchName)
	fmt.Printf("  %s %s -> %s\n", labelStyle.Render("version   "), executed.Data.PreviousVersion, *version)
	return nil
}

// runRelease is the CI flow: tag, notes, GitHub release.
func runRelease(args []string) error {
	fs := flag.NewFlagSet("release", flag.ExitOnError)
	common := addCommon(fs)
	version := fs.String("version", "", "version to release (required)")
	pkgName := fs.String("package", "", "package being released")
	dryRun := fs.Bool("dry-run", false, "preview without tagging or publishing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version == "" {
		return errors.New("--version is required")
	}
	tk, err := newToolkit(common.repoPath, common.verbose, true)
	if err != nil {
		return err
	}
	ctx := context.Background()

	creator := tagging.NewCreator(tk.repo, tk.res, tk.log)
	tagName, err := creator.FormatTagName(tagging.Ref{PackageName: *pkgName, Version: *version})
	if err != nil {
		return err
	}
	generator := notes.NewGenerator(tk.repo, tk.catalog, commitfilter.NewEngine(tk.repo, tk.log), tk.log)
	generated := generator.Generate(ctx, notes.Request{TagName: tagName, PackageName: *pkgName})
	if !generated.Success {
		return errors.New(generated.Message)
	}
	created := creator.CreateTag(ctx,
		tagging.Ref{PackageName: *pkgName, Version: *version},
		tagging.Options{Push: !*dryRun, DryRun: *dryRun})
	if !created.Success {
		return errors.New(created.Message)
	}

	remote, err := tk.repo.RemoteURL(ctx, "origin")
	if err != nil {
		return err
	}
	repo, err := ghrelease.ParseRemote(remote)
	if err != nil {
		return err
	}
	client := ghrelease.NewClient(os.Getenv("GITHUB_TOKEN"), repo, tk.log)
	published := ghrelease.NewPublisher(client, tk.log).Publish(ctx, created.Data.TagName, generated.Data, *dryRun)
	if !published.Success {
		return errors.New(published.Message)
	}
	fmt.Println(okStyle.Render(published.Message))
	if published.Data.URL != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("release   "), published.Data.URL)
	}
	return nil
}
