// Package testutil provides utilities for testing nativefetch in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates isolated cache and output directories for a test and
// points the NATIVEFETCH_* environment at them. It returns the temp root.
//
// Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("NATIVEFETCH_CACHE_DIR", filepath.Join(tmpDir, "cache"))
	t.Setenv("NATIVEFETCH_TEST_MODE", "1")

	dirs := []string{
		filepath.Join(tmpDir, "cache"),
		filepath.Join(tmpDir, "out"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
