package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ArtifactStatus describes what is on disk for a manifest artifact.
type ArtifactStatus int

const (
	// StatusExtracted indicates the destination exists and holds files.
	StatusExtracted ArtifactStatus = iota

	// StatusMissing indicates the destination does not exist.
	StatusMissing

	// StatusEmpty indicates the destination exists but holds nothing. This
	// is what a run whose policy matched no entries leaves behind when the
	// directory was created by hand.
	StatusEmpty
)

// String returns the string representation of an ArtifactStatus.
func (s ArtifactStatus) String() string {
	switch s {
	case StatusExtracted:
		return "extracted"
	case StatusMissing:
		return "missing"
	case StatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Symbol returns the visual symbol for an ArtifactStatus.
func (s ArtifactStatus) Symbol() string {
	switch s {
	case StatusExtracted:
		return "✓"
	case StatusMissing:
		return "✗"
	default:
		return "?"
	}
}

// ArtifactWithStatus pairs an artifact with its detected status.
type ArtifactWithStatus struct {
	Artifact Artifact
	Status   ArtifactStatus
	// Cached reports whether the archive is already in the download cache.
	Cached bool
}

// Cache reports whether a downloaded archive is present for a URL.
type Cache interface {
	HasURL(rawURL string) bool
}

// StatusDetector detects the state of manifest artifacts.
type StatusDetector interface {
	DetectStatus(ctx context.Context, artifacts []Artifact) ([]ArtifactWithStatus, error)
}

// DefaultStatusDetector implements StatusDetector with filesystem checks.
type DefaultStatusDetector struct {
	cache Cache
}

// NewDefaultStatusDetector creates a DefaultStatusDetector. cache may be nil.
func NewDefaultStatusDetector(cache Cache) *DefaultStatusDetector {
	return &DefaultStatusDetector{cache: cache}
}

// DetectStatus determines the status of each artifact destination. Paths are
// expected to be resolved already (see Manifest.ResolvePaths).
func (d *DefaultStatusDetector) DetectStatus(ctx context.Context, artifacts []Artifact) ([]ArtifactWithStatus, error) {
	results := make([]ArtifactWithStatus, 0, len(artifacts))

	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, err := destStatus(a.Dest)
		if err != nil {
			return nil, fmt.Errorf("check destination of %q: %w", a.Name, err)
		}

		result := ArtifactWithStatus{Artifact: a, Status: status}
		if d.cache != nil {
			result.Cached = d.cache.HasURL(a.URL)
		}
		results = append(results, result)
	}

	return results, nil
}

func destStatus(dir string) (ArtifactStatus, error) {
	f, err := os.Open(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return StatusMissing, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return StatusEmpty, nil
	}
	if err != nil {
		return 0, err
	}
	return StatusExtracted, nil
}
