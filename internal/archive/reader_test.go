package archive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/testutil"
)

func openBytes(t *testing.T, data []byte, opts ...Option) (*Container, error) {
	t.Helper()
	return Open(bytes.NewReader(data), opts...)
}

func keys(c *Container) []string {
	var out []string
	for _, e := range c.Entries() {
		out = append(out, e.Key)
	}
	return out
}

func equalKeys(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestOpenGzipTar(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root", Dir: true},
		{Name: "root/bin/tool", Body: "tool-bytes", Mode: 0o755},
		{Name: "./root/lib/libfoo.so", Body: "foo"},
	})

	c, err := openBytes(t, data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if c.Format() != FormatGzipTar {
		t.Errorf("Format() = %v, want GzipTar", c.Format())
	}

	want := []string{"root/bin/tool", "root/lib/libfoo.so"}
	if got := keys(c); !equalKeys(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}

	if got := string(c.Data(0)); got != "tool-bytes" {
		t.Errorf("Data(0) = %q, want %q", got, "tool-bytes")
	}
	if c.Entries()[0].Mode != 0o755 {
		t.Errorf("Mode = %o, want 755", c.Entries()[0].Mode)
	}
	if c.RootFolder() != "root" {
		t.Errorf("RootFolder() = %q, want root", c.RootFolder())
	}
}

func TestOpenZip(t *testing.T) {
	data := testutil.ZipBytes(t, []testutil.File{
		{Name: "root", Dir: true},
		{Name: "root/a.dll", Body: "a"},
		{Name: "root/Debug/b.dll", Body: "b"},
	})

	c, err := openBytes(t, data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if c.Format() != FormatZip {
		t.Errorf("Format() = %v, want Zip", c.Format())
	}

	want := []string{"root/a.dll", "root/Debug/b.dll"}
	if got := keys(c); !equalKeys(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}

	i, ok := c.Lookup("root/Debug/b.dll")
	if !ok {
		t.Fatal("Lookup() did not find root/Debug/b.dll")
	}
	if string(c.Data(i)) != "b" {
		t.Errorf("Data = %q, want b", c.Data(i))
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "zeros", data: []byte{0, 0, 0, 0}},
		{name: "empty", data: nil},
		{name: "plain_text", data: []byte("hello world")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openBytes(t, tt.data)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Open() error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

func TestOpenResolvesSymlinks(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/libfoo.so.0000", Body: "real-library"},
		{Name: "root/libfoo.so", Symlink: "libfoo.so.0000"},
		{Name: "root/lib/libbar.so", Body: "bar"},
		{Name: "root/bin/libbar.so", Symlink: "../lib/libbar.so"},
		{Name: "root/chain", Symlink: "libfoo.so"},
		{Name: "root/abs", Symlink: "/root/lib/libbar.so"},
	})

	c, err := openBytes(t, data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	tests := []struct {
		key      string
		resolved string
		data     string
	}{
		{key: "root/libfoo.so", resolved: "root/libfoo.so.0000", data: "real-library"},
		{key: "root/bin/libbar.so", resolved: "root/lib/libbar.so", data: "bar"},
		{key: "root/chain", resolved: "root/libfoo.so.0000", data: "real-library"},
		{key: "root/abs", resolved: "root/lib/libbar.so", data: "bar"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			i, ok := c.Lookup(tt.key)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.key)
			}
			if got := c.Resolved(i); got != tt.resolved {
				t.Errorf("Resolved() = %q, want %q", got, tt.resolved)
			}
			if got := string(c.Data(i)); got != tt.data {
				t.Errorf("Data() = %q, want %q", got, tt.data)
			}
		})
	}

	if len(c.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", c.Warnings())
	}
}

func TestOpenHardlink(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/lib/libfoo.so.1", Body: "payload"},
		{Name: "root/lib/libfoo.so", Hardlink: "root/lib/libfoo.so.1"},
	})

	c, err := openBytes(t, data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	i, _ := c.Lookup("root/lib/libfoo.so")
	if string(c.Data(i)) != "payload" {
		t.Errorf("Data() = %q, want payload", c.Data(i))
	}
}

func TestOpenDanglingSymlink(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/real", Body: "x"},
		{Name: "root/broken", Symlink: "missing"},
	})

	c, err := openBytes(t, data)
	if err != nil {
		t.Fatalf("Open() error = %v, dangling links must not fail", err)
	}

	if len(c.Warnings()) != 1 {
		t.Fatalf("Warnings() = %v, want one warning", c.Warnings())
	}

	i, _ := c.Lookup("root/broken")
	if c.Resolved(i) != "root/broken" {
		t.Errorf("Resolved() = %q, want own key", c.Resolved(i))
	}
	if len(c.Data(i)) != 0 {
		t.Errorf("Data() = %q, want empty", c.Data(i))
	}
}

func TestOpenSymlinkCycle(t *testing.T) {
	tests := []struct {
		name  string
		files []testutil.File
	}{
		{
			name: "two_links",
			files: []testutil.File{
				{Name: "root/a", Symlink: "b"},
				{Name: "root/b", Symlink: "a"},
			},
		},
		{
			name: "self_link",
			files: []testutil.File{
				{Name: "root/a", Symlink: "a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openBytes(t, testutil.GzipTarBytes(t, tt.files))
			if !errors.Is(err, ErrSymlinkCycle) {
				t.Errorf("Open() error = %v, want ErrSymlinkCycle", err)
			}
		})
	}
}

func TestOpenLongChainExceedsBound(t *testing.T) {
	var files []testutil.File
	files = append(files, testutil.File{Name: "root/target", Body: "x"})
	prev := "target"
	for i := 0; i <= MaxLinkHops; i++ {
		name := "link" + string(rune('a'+i))
		files = append(files, testutil.File{Name: "root/" + name, Symlink: prev})
		prev = name
	}

	_, err := openBytes(t, testutil.GzipTarBytes(t, files))
	if !errors.Is(err, ErrSymlinkCycle) {
		t.Errorf("Open() error = %v, want ErrSymlinkCycle", err)
	}
}

func TestOpenNestedTar(t *testing.T) {
	inner := testutil.TarBytes(t, []testutil.File{
		{Name: "root/runtime/lib/libinner.so", Body: "inner"},
		{Name: "root/runtime/lib/liblink.so", Symlink: "libinner.so"},
	})

	outer := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/readme.txt", Body: "readme"},
		{Name: "root/payload.tar", Raw: inner},
		{Name: "root/zz.txt", Body: "last"},
	})

	c, err := openBytes(t, outer)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	want := []string{
		"root/readme.txt",
		"root/runtime/lib/libinner.so",
		"root/runtime/lib/liblink.so",
		"root/zz.txt",
	}
	if got := keys(c); !equalKeys(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}

	if _, ok := c.Lookup("root/payload.tar"); ok {
		t.Error("wrapper entry should be replaced by its contents")
	}

	i, _ := c.Lookup("root/runtime/lib/liblink.so")
	if string(c.Data(i)) != "inner" {
		t.Errorf("nested link Data() = %q, want inner", c.Data(i))
	}
}

func TestOpenNestedTarInZip(t *testing.T) {
	inner := testutil.TarBytes(t, []testutil.File{
		{Name: "root/bin/plugin.dll", Body: "dll"},
	})
	outer := testutil.ZipBytes(t, []testutil.File{
		{Name: "root/bundle.tar", Raw: inner},
	})

	c, err := openBytes(t, outer)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if got := keys(c); !equalKeys(got, []string{"root/bin/plugin.dll"}) {
		t.Errorf("keys = %v", got)
	}
}

func nest(t *testing.T, levels int) []byte {
	t.Helper()

	payload := testutil.TarBytes(t, []testutil.File{{Name: "deep/file.txt", Body: "bottom"}})
	for i := 0; i < levels-1; i++ {
		payload = testutil.TarBytes(t, []testutil.File{{Name: "level.tar", Raw: payload}})
	}
	return testutil.GzipTarBytes(t, []testutil.File{{Name: "root/level.tar", Raw: payload}})
}

func TestOpenNestingDepth(t *testing.T) {
	tests := []struct {
		name    string
		levels  int
		wantErr bool
	}{
		{name: "one_level", levels: 1, wantErr: false},
		{name: "at_bound", levels: MaxNestingDepth, wantErr: false},
		{name: "past_bound", levels: MaxNestingDepth + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := openBytes(t, nest(t, tt.levels))

			if tt.wantErr {
				if !errors.Is(err, ErrNestedArchiveTooDeep) {
					t.Errorf("Open() error = %v, want ErrNestedArchiveTooDeep", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			i, ok := c.Lookup("deep/file.txt")
			if !ok || string(c.Data(i)) != "bottom" {
				t.Errorf("deep/file.txt missing or wrong: %v", keys(c))
			}
		})
	}
}

func TestOpenDuplicateKeysLastWins(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/a.txt", Body: "first"},
		{Name: "root/b.txt", Body: "b"},
		{Name: "root/a.txt", Body: "second"},
	})

	c, err := openBytes(t, data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	i, _ := c.Lookup("root/a.txt")
	if i != 0 {
		t.Errorf("duplicate should keep first position, got index %d", i)
	}
	if string(c.Data(i)) != "second" {
		t.Errorf("Data() = %q, want second", c.Data(i))
	}
}

func TestOpenUnsafePath(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "../escape.txt", Body: "x"},
	})

	_, err := openBytes(t, data)
	if !errors.Is(err, ErrUnsafePath) {
		t.Errorf("Open() error = %v, want ErrUnsafePath", err)
	}
}

func TestOpenSizeLimits(t *testing.T) {
	data := testutil.GzipTarBytes(t, []testutil.File{
		{Name: "root/a", Body: "0123456789"},
		{Name: "root/b", Body: "0123456789"},
	})

	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "no_limits", wantErr: false},
		{name: "entry_fits", opts: []Option{WithMaxEntrySize(10)}, wantErr: false},
		{name: "entry_too_big", opts: []Option{WithMaxEntrySize(9)}, wantErr: true},
		{name: "total_fits", opts: []Option{WithMaxTotalSize(20)}, wantErr: false},
		{name: "total_too_big", opts: []Option{WithMaxTotalSize(15)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := openBytes(t, data, tt.opts...)
			if tt.wantErr && !errors.Is(err, ErrSizeLimit) {
				t.Errorf("Open() error = %v, want ErrSizeLimit", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Open() error = %v", err)
			}
		})
	}
}

func TestRootFolder(t *testing.T) {
	tests := []struct {
		name  string
		files []testutil.File
		want  string
	}{
		{name: "single_root", files: []testutil.File{{Name: "toolkit_2024/a.txt", Body: "a"}}, want: "toolkit_2024"},
		{name: "flat", files: []testutil.File{{Name: "a.txt", Body: "a"}}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := openBytes(t, testutil.GzipTarBytes(t, tt.files))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if got := c.RootFolder(); got != tt.want {
				t.Errorf("RootFolder() = %q, want %q", got, tt.want)
			}
		})
	}
}
