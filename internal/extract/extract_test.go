package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/archive"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/selector"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/testutil"
)

func openContainer(t *testing.T, data []byte) *archive.Container {
	t.Helper()

	c, err := archive.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("archive.Open() error = %v", err)
	}
	return c
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return files
}

func TestExtractSymlinkFlatten(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/libfoo.so.0000", Body: "\x7fELF payload"},
		{Name: "root/libfoo.so", Symlink: "libfoo.so.0000"},
	})
	c := openContainer(t, data)
	destDir := t.TempDir()

	result, err := NewExtractor(logr.Discard()).Extract(c, selector.Basenames("libfoo.so"), destDir, true)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	files := listFiles(t, destDir)
	if !reflect.DeepEqual(files, []string{"libfoo.so"}) {
		t.Fatalf("destination files = %v, want [libfoo.so]", files)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "libfoo.so"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(got) != "\x7fELF payload" {
		t.Errorf("extracted bytes = %q, want the link target's bytes", got)
	}

	if result.RootFolder != "root" {
		t.Errorf("RootFolder = %q, want %q", result.RootFolder, "root")
	}
	if len(result.Paths) != 1 || !filepath.IsAbs(result.Paths[0]) {
		t.Errorf("Paths = %v, want one absolute path", result.Paths)
	}
}

func TestExtractZipWindowsFlatten(t *testing.T) {
	data := testutil.ZipBytes(t, []testutil.File{
		{Name: "root/a.dll", Body: "a"},
		{Name: "root/Debug/b.dll", Body: "b"},
	})
	c := openContainer(t, data)
	destDir := t.TempDir()

	if _, err := NewExtractor(logr.Discard()).Extract(c, selector.Windows(), destDir, true); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	files := listFiles(t, destDir)
	if !reflect.DeepEqual(files, []string{"a.dll"}) {
		t.Errorf("destination files = %v, want [a.dll]", files)
	}
}

func TestExtractPreservesStructure(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "toolkit/", Dir: true},
		{Name: "toolkit/include/api.h", Body: "header"},
		{Name: "toolkit/lib/core.dll", Body: "dll"},
		{Name: "toolkit/README", Body: "readme"},
	})
	c := openContainer(t, data)
	destDir := t.TempDir()

	sel := selector.WithHeaders(selector.Windows())
	result, err := NewExtractor(logr.Discard()).Extract(c, sel, destDir, false)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"toolkit/include/api.h", "toolkit/lib/core.dll"}
	if files := listFiles(t, destDir); !reflect.DeepEqual(files, want) {
		t.Errorf("destination files = %v, want %v", files, want)
	}

	wantPaths := []string{
		filepath.Join(result.DestDir, "toolkit", "include", "api.h"),
		filepath.Join(result.DestDir, "toolkit", "lib", "core.dll"),
	}
	if !reflect.DeepEqual(result.Paths, wantPaths) {
		t.Errorf("Paths = %v, want %v", result.Paths, wantPaths)
	}
}

func TestExtractIdempotent(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/a.dll", Body: "a"},
		{Name: "root/sub/b.dll", Body: "b"},
	})
	c := openContainer(t, data)
	destDir := t.TempDir()
	ex := NewExtractor(logr.Discard())

	first, err := ex.Extract(c, selector.Windows(), destDir, false)
	if err != nil {
		t.Fatalf("first Extract() error = %v", err)
	}

	// Backdate the files so any rewrite shows up as a changed mtime.
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	for _, p := range first.Paths {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	second, err := ex.Extract(c, selector.Windows(), destDir, false)
	if err != nil {
		t.Fatalf("second Extract() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\nfirst  = %+v\nsecond = %+v", first, second)
	}
	for _, p := range second.Paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if !info.ModTime().Equal(past) {
			t.Errorf("%s was rewritten on the second call", p)
		}
	}
}

func TestExtractRestoresMissingFiles(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/a.dll", Body: "a"},
		{Name: "root/b.dll", Body: "b"},
	})
	c := openContainer(t, data)
	destDir := t.TempDir()
	ex := NewExtractor(logr.Discard())

	result, err := ex.Extract(c, selector.Windows(), destDir, true)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if err := os.Remove(result.Paths[1]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.WriteFile(result.Paths[0], []byte("stale"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := ex.Extract(c, selector.Windows(), destDir, true); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for i, want := range []string{"a", "b"} {
		got, err := os.ReadFile(result.Paths[i])
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", result.Paths[i], got, want)
		}
	}
}

func TestExtractNoMatches(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/readme.txt", Body: "text"},
	})
	c := openContainer(t, data)
	destDir := filepath.Join(t.TempDir(), "never-created")

	result, err := NewExtractor(logr.Discard()).Extract(c, selector.Windows(), destDir, true)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Paths) != 0 {
		t.Errorf("Paths = %v, want none", result.Paths)
	}
	if result.RootFolder != "root" {
		t.Errorf("RootFolder = %q, want root", result.RootFolder)
	}
	if _, err := os.Stat(destDir); !os.IsNotExist(err) {
		t.Error("destination should not be created when nothing matches")
	}
}

func TestExtractFlattenCollision(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/x64/core.dll", Body: "x64"},
		{Name: "root/arm64/core.dll", Body: "arm64"},
	})
	c := openContainer(t, data)
	destDir := t.TempDir()

	result, err := NewExtractor(logr.Discard()).Extract(c, selector.Windows(), destDir, true)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(result.Paths) != 1 {
		t.Fatalf("Paths = %v, want one collapsed path", result.Paths)
	}
	got, _ := os.ReadFile(result.Paths[0])
	if string(got) != "arm64" {
		t.Errorf("collapsed file = %q, want the later entry", got)
	}
}

func TestExtractFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not preserved on windows")
	}

	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/bin/tool", Body: "#!/bin/sh", Mode: 0o755},
		{Name: "root/lib/data.bin", Body: "data", Mode: 0o600},
	})
	c := openContainer(t, data)
	destDir := t.TempDir()

	result, err := NewExtractor(logr.Discard()).Extract(c, selector.All(), destDir, false)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for i, want := range []os.FileMode{0o755, 0o600} {
		info, err := os.Stat(result.Paths[i])
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != want {
			t.Errorf("%s mode = %v, want %v", result.Paths[i], info.Mode().Perm(), want)
		}
	}
}

func TestPathWithSuffix(t *testing.T) {
	result := &ExtractionResult{
		DestDir: "/out",
		Paths:   []string{"/out/libopenvino.so.2431", "/out/plugins.xml"},
	}

	got, err := result.PathWithSuffix(".so.2431")
	if err != nil {
		t.Fatalf("PathWithSuffix() error = %v", err)
	}
	if got != "/out/libopenvino.so.2431" {
		t.Errorf("PathWithSuffix() = %s", got)
	}

	if _, err := result.PathWithSuffix(".so.9999"); !errors.Is(err, ErrMissingEntry) {
		t.Errorf("PathWithSuffix() error = %v, want ErrMissingEntry", err)
	}
}
