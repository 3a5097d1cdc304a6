package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/config"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/fetch"
)

// runStatus handles the `nativefetch status` subcommand
func runStatus(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	manifestPath := fs.String("config", defaultManifest, "manifest `file`")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := loadManifest(ctx, *manifestPath, stderr, true, false)
	if err != nil {
		return err
	}

	if len(m.Artifacts) == 0 {
		fmt.Fprintln(stdout, "No artifacts declared in manifest.")
		return nil
	}

	// Only consult the download cache if a fetch created it.
	var cache config.Cache
	downloads := filepath.Join(m.CacheDir, "downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		store, err := fetch.NewStore(downloads)
		if err != nil {
			return err
		}
		cache = store
	}

	statuses, err := config.NewDefaultStatusDetector(cache).DetectStatus(ctx, m.Artifacts)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Artifacts:")
	fmt.Fprintln(stdout)
	for _, s := range statuses {
		cached := ""
		if s.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(stdout, "  %s %s -> %s%s\n", s.Status.Symbol(), s.Artifact.Name, s.Artifact.Dest, cached)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Legend: ✓ extracted, ✗ missing, ? empty")

	return nil
}
