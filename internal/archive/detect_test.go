package archive

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestDetectBytes(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Format
	}{
		{name: "gzip", header: []byte{0x1f, 0x8b, 0x08, 0x00}, want: FormatGzipTar},
		{name: "gzip_two_bytes", header: []byte{0x1f, 0x8b}, want: FormatGzipTar},
		{name: "zip_local_header", header: []byte{0x50, 0x4b, 0x03, 0x04}, want: FormatZip},
		{name: "zip_empty_archive", header: []byte{0x50, 0x4b, 0x05, 0x06}, want: FormatZip},
		{name: "zip_spanned", header: []byte{0x50, 0x4b, 0x07, 0x08}, want: FormatZip},
		{name: "zip_bad_trailer", header: []byte{0x50, 0x4b, 0x01, 0x02}, want: FormatUnknown},
		{name: "zip_prefix_only", header: []byte{0x50, 0x4b}, want: FormatUnknown},
		{name: "zeros", header: []byte{0x00, 0x00, 0x00, 0x00}, want: FormatUnknown},
		{name: "single_byte", header: []byte{0x1f}, want: FormatUnknown},
		{name: "empty", header: nil, want: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectBytes(tt.header); got != tt.want {
				t.Errorf("DetectBytes(% x) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestDetectRestoresPosition(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0x1f, 0x8b, 0x08, 0x00, 0x00}
	r := bytes.NewReader(data)

	if _, err := r.Seek(2, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}

	format, err := Detect(r)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if format != FormatGzipTar {
		t.Errorf("Detect() = %v, want GzipTar", format)
	}

	pos, _ := r.Seek(0, io.SeekCurrent)
	if pos != 2 {
		t.Errorf("position after Detect = %d, want 2", pos)
	}
}

func TestDetectEmptyStream(t *testing.T) {
	format, err := Detect(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if format != FormatUnknown {
		t.Errorf("Detect() = %v, want Unknown", format)
	}
}

type brokenSeeker struct{}

func (brokenSeeker) Read([]byte) (int, error)       { return 0, errors.New("read failed") }
func (brokenSeeker) Seek(int64, int) (int64, error) { return 0, nil }

func TestDetectUnreadableStream(t *testing.T) {
	_, err := Detect(brokenSeeker{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Detect() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatZip, "Zip"},
		{FormatGzipTar, "GzipTar"},
		{FormatUnknown, "Unknown"},
		{Format(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}
