package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingEntry is returned when an expected file is not among the
// extracted paths.
var ErrMissingEntry = errors.New("missing entry")

// ExtractionResult describes one completed extraction.
type ExtractionResult struct {
	// DestDir is the absolute destination directory.
	DestDir string
	// RootFolder is the first path element of the archive's first entry.
	RootFolder string
	// Paths lists every destination file written or confirmed present, in
	// archive order.
	Paths []string
}

// PathWithSuffix returns the first extracted path ending in suffix.
func (r *ExtractionResult) PathWithSuffix(suffix string) (string, error) {
	for _, p := range r.Paths {
		if strings.HasSuffix(p, suffix) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no extracted file ends with %q", ErrMissingEntry, suffix)
}
