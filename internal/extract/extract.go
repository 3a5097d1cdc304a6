package extract

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-logr/logr"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/archive"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/selector"
)

// defaultFileMode is used for entries that carry no permission bits.
const defaultFileMode os.FileMode = 0o644

// Extractor writes container entries to disk.
type Extractor struct {
	log logr.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(log logr.Logger) *Extractor {
	return &Extractor{log: log}
}

// target is one file to produce.
type target struct {
	dest  string
	index int
}

// Extract writes every entry of c matched by sel under destDir. With flatten
// set, entries are written by base name directly under destDir; otherwise
// their relative keys are preserved.
func (e *Extractor) Extract(c *archive.Container, sel selector.Policy, destDir string, flatten bool) (*ExtractionResult, error) {
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolve dest dir: %w", err)
	}

	targets, err := plan(c, sel, absDest, flatten)
	if err != nil {
		return nil, err
	}

	result := &ExtractionResult{
		DestDir:    absDest,
		RootFolder: c.RootFolder(),
		Paths:      make([]string, 0, len(targets)),
	}
	for _, t := range targets {
		result.Paths = append(result.Paths, t.dest)
	}

	if allPresent(targets) {
		e.log.V(1).Info("extraction up to date", "dest", absDest, "files", len(targets))
		return result, nil
	}

	for _, t := range targets {
		if err := writeEntry(c, t); err != nil {
			return nil, err
		}
	}

	e.log.Info("extracted", "dest", absDest, "files", len(targets), "policy", sel.Name())
	return result, nil
}

// plan computes the destination of every matched entry. Two entries mapping to
// the same destination collapse into one target that keeps the first position
// and the later entry's bytes.
func plan(c *archive.Container, sel selector.Policy, destDir string, flatten bool) ([]target, error) {
	var targets []target
	seen := make(map[string]int)

	for i, entry := range c.Entries() {
		if !sel.Matches(entry.Key) {
			continue
		}

		var dest string
		if flatten {
			dest = filepath.Join(destDir, path.Base(entry.Key))
		} else {
			joined, err := securejoin.SecureJoin(destDir, filepath.FromSlash(entry.Key))
			if err != nil {
				return nil, fmt.Errorf("resolve destination for %s: %w", entry.Key, err)
			}
			dest = joined
		}

		if pos, ok := seen[dest]; ok {
			targets[pos].index = i
			continue
		}
		seen[dest] = len(targets)
		targets = append(targets, target{dest: dest, index: i})
	}

	return targets, nil
}

// allPresent reports whether every destination already exists as a file.
func allPresent(targets []target) bool {
	for _, t := range targets {
		info, err := os.Stat(t.dest)
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// writeEntry writes one entry through a temp file in the destination
// directory, replacing any existing file.
func writeEntry(c *archive.Container, t target) error {
	dir := filepath.Dir(t.dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", t.dest, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmp.Close()
		if cleanupNeeded {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(c.Data(t.index)); err != nil {
		return fmt.Errorf("write file %s: %w", t.dest, err)
	}
	if err := tmp.Chmod(fileMode(c, t.index)); err != nil {
		return fmt.Errorf("chmod %s: %w", t.dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.dest); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// fileMode returns the permission bits of the entry whose bytes i carries.
func fileMode(c *archive.Container, i int) os.FileMode {
	mode := c.Entries()[i].Mode
	if j, ok := c.Lookup(c.Resolved(i)); ok {
		mode = c.Entries()[j].Mode
	}

	perm := os.FileMode(mode).Perm()
	if perm == 0 {
		return defaultFileMode
	}
	return perm
}
