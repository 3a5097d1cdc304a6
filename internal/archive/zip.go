package archive

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// decodeZip reads the central directory and materializes every file entry.
// Zip members are always plain files.
func (c *collector) decodeZip(ra io.ReaderAt, size int64, depth int) error {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return fmt.Errorf("read zip directory: %w", err)
	}

	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			continue
		}

		key, err := cleanKey(f.Name)
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", key, err)
		}
		data, err := c.readPayload(rc, key)
		rc.Close()
		if err != nil {
			return err
		}

		entry := Entry{
			Key:  key,
			Mode: int64(f.Mode().Perm()),
			data: data,
		}
		if err := c.add(entry, depth); err != nil {
			return err
		}
	}

	return nil
}

// zipSource adapts a seekable stream into the random access reader the zip
// central directory needs, starting at the stream's current position.
func zipSource(r io.ReadSeeker) (io.ReaderAt, int64, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("seek: %w", err)
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek end: %w", err)
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("rewind: %w", err)
	}

	size := end - start
	if ra, ok := r.(io.ReaderAt); ok {
		return io.NewSectionReader(ra, start, size), size, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read zip stream: %w", err)
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
