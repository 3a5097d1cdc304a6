package testutil

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// File describes one member of a synthetic archive.
type File struct {
	Name string
	Body string
	// Symlink makes the member a symbolic link to the given name.
	Symlink string
	// Hardlink makes the member a hard link to the given archive path.
	Hardlink string
	// Dir makes the member a directory record.
	Dir bool
	// Raw is used instead of Body when set, for binary payloads such as
	// nested archives.
	Raw  []byte
	Mode int64
}

func (f File) payload() []byte {
	if f.Raw != nil {
		return f.Raw
	}
	return []byte(f.Body)
}

// TarBytes builds an uncompressed tar archive in memory.
func TarBytes(t *testing.T, files []File) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}

		header := &tar.Header{
			Name: f.Name,
			Mode: mode,
		}

		switch {
		case f.Dir:
			header.Typeflag = tar.TypeDir
			header.Mode = 0o755
		case f.Symlink != "":
			header.Typeflag = tar.TypeSymlink
			header.Linkname = f.Symlink
		case f.Hardlink != "":
			header.Typeflag = tar.TypeLink
			header.Linkname = f.Hardlink
		default:
			header.Typeflag = tar.TypeReg
			header.Size = int64(len(f.payload()))
		}

		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", f.Name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := tw.Write(f.payload()); err != nil {
				t.Fatalf("failed to write content for %s: %v", f.Name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	return buf.Bytes()
}

// GzipTarBytes builds a gzip-compressed tar archive in memory.
func GzipTarBytes(t *testing.T, files []File) []byte {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(TarBytes(t, files)); err != nil {
		t.Fatalf("failed to write gzip stream: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// ZipBytes builds a zip archive in memory. Symlink and Hardlink are ignored.
func ZipBytes(t *testing.T, files []File) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		if f.Dir {
			if _, err := zw.Create(f.Name + "/"); err != nil {
				t.Fatalf("failed to create dir %s: %v", f.Name, err)
			}
			continue
		}

		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", f.Name, err)
		}
		if _, err := w.Write(f.payload()); err != nil {
			t.Fatalf("failed to write %s: %v", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}
