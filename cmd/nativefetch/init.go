package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/config"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/platform"
)

// runInit handles the `nativefetch init` subcommand
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", defaultManifest, "output `file`")
	force := fs.Bool("force", false, "overwrite an existing manifest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*out); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return err
	}

	src, err := config.NewGenerator().Generate(starterManifest(info))
	if err != nil {
		return fmt.Errorf("generate manifest: %w", err)
	}

	if err := os.WriteFile(*out, []byte(src), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Wrote %s for %s/%s\n", *out, info.OS, info.Arch)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Edit the example artifact, then run:")
	fmt.Fprintf(stdout, "  nativefetch fetch -config %s\n", *out)
	return nil
}

// starterManifest returns a single example artifact filled in from the host
// platform.
func starterManifest(info *platform.Info) *config.Manifest {
	a := config.Artifact{
		Name:    "example",
		OS:      info.OS,
		Arch:    info.ReleaseArch,
		Variant: info.Variant,
		Policy:  config.PolicyAll,
		Flatten: true,
		Dest:    "vendor/example",
	}

	name := "example-" + info.OS
	if info.ReleaseArch != "" {
		name += "-" + info.ReleaseArch
	}
	switch {
	case info.IsWindows():
		a.Policy = config.PolicyWindows
		a.URL = "https://example.com/releases/" + name + ".zip"
	case info.IsLinux():
		a.Policy = config.PolicyLinux
		a.Version = "1.0.0"
		a.URL = "https://example.com/releases/" + name + ".tgz"
	default:
		a.URL = "https://example.com/releases/" + name + ".tgz"
	}

	return &config.Manifest{Artifacts: []config.Artifact{a}}
}
