package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/artifact"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/config"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/integrity"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/selector"
)

const defaultManifest = "nativefetch.lua"

// runFetch handles the `nativefetch fetch` subcommand
func runFetch(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	manifestPath := fs.String("config", defaultManifest, "manifest `file`")
	only := fs.String("only", "", "fetch only the artifact with this `name`")
	verbosity := fs.Int("v", 0, "log verbosity")
	allowSensitive := fs.Bool("allow-sensitive", false, "proceed even if the manifest looks like it embeds credentials")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := newLogger(stderr, *verbosity)

	m, err := loadManifest(ctx, *manifestPath, stderr, *allowSensitive, *verbosity > 0)
	if err != nil {
		return err
	}

	artifacts := m.Artifacts
	if *only != "" {
		a, ok := m.Artifact(*only)
		if !ok {
			return fmt.Errorf("no artifact named %q in %s", *only, *manifestPath)
		}
		artifacts = []config.Artifact{a}
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(stdout, "No artifacts declared in manifest.")
		return nil
	}

	cfg := artifact.Config{
		CacheDir:         m.CacheDir,
		Retries:          m.Retries,
		Concurrency:      m.Concurrency,
		LockDestinations: m.LockDestinations,
		Logger:           log,
	}
	if m.Keyring != "" {
		if cfg.Keyring, err = integrity.LoadKeyring(m.Keyring); err != nil {
			return err
		}
	}

	mgr, err := artifact.NewManager(cfg)
	if err != nil {
		return err
	}

	jobs, err := buildJobs(artifacts)
	if err != nil {
		return err
	}

	results, err := mgr.ExtractAll(ctx, jobs)
	if err != nil {
		return err
	}

	for i, res := range results {
		fmt.Fprintf(stdout, "✓ %s -> %s (%d files)\n", artifacts[i].Name, res.DestDir, len(res.Paths))
	}
	return nil
}

// loadManifest parses the manifest, refusing manifests that appear to embed
// credentials unless allowSensitive is set.
func loadManifest(ctx context.Context, path string, stderr io.Writer, allowSensitive, verbose bool) (*config.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if findings := config.DetectSensitiveData(string(data)); len(findings) > 0 {
		fmt.Fprint(stderr, config.FormatSensitiveDataWarning(findings))
		if !allowSensitive {
			return nil, fmt.Errorf("refusing manifest with potential credentials (use -allow-sensitive to proceed)")
		}
	}

	m, err := config.NewParser(platform.NewDetector()).ParseFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s", config.FormatError(err, verbose))
	}
	return m, nil
}

// buildJobs maps manifest artifacts to extraction jobs.
func buildJobs(artifacts []config.Artifact) ([]artifact.Job, error) {
	jobs := make([]artifact.Job, 0, len(artifacts))
	for _, a := range artifacts {
		sel, err := selector.ForKind(selector.Kind(a.Policy), a.Version, a.Headers)
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", a.Name, err)
		}
		jobs = append(jobs, artifact.Job{
			Ref: artifact.Reference{
				Name:         a.Name,
				URL:          a.URL,
				ChecksumURL:  a.ChecksumURL,
				SignatureURL: a.SignatureURL,
				OS:           a.OS,
				Arch:         a.Arch,
				Variant:      a.Variant,
				Version:      a.Version,
			},
			DestDir:  a.Dest,
			Selector: sel,
			Flatten:  a.Flatten,
		})
	}
	return jobs, nil
}
