package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/testutil"
)

func TestRunDetect(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"a.tgz":  sdkArchive(t),
		"a.zip":  testutil.ZipBytes(t, []testutil.File{{Name: "bin/foo.dll", Body: "mz"}}),
		"a.text": []byte("hello world"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		file string
		want string
	}{
		{"a.tgz", "GzipTar"},
		{"a.zip", "Zip"},
		{"a.text", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := runDetect([]string{filepath.Join(dir, tt.file)}, &stdout, &stderr); err != nil {
				t.Fatalf("runDetect() error = %v", err)
			}
			if got := strings.TrimSpace(stdout.String()); got != tt.want {
				t.Errorf("runDetect() printed %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunDetectList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdk.tgz")
	if err := os.WriteFile(path, sdkArchive(t), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := runDetect([]string{"-list", path}, &stdout, &stderr); err != nil {
		t.Fatalf("runDetect(-list) error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"GzipTar",
		"  sdk-1.0/lib/libfoo.so.1\n",
		"  sdk-1.0/lib/libfoo.so -> sdk-1.0/lib/libfoo.so.1\n",
		"  sdk-1.0/include/foo.h\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDetectErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := runDetect(nil, &stdout, &stderr); err == nil {
		t.Error("runDetect() without a file should fail")
	}
	if err := runDetect([]string{filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr); !os.IsNotExist(err) {
		t.Errorf("runDetect(missing) error = %v, want not exist", err)
	}
}
