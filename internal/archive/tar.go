package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// decodeGzipTar strips the gzip envelope and decodes the tar records inside.
func (c *collector) decodeGzipTar(r io.Reader, depth int) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return c.decodeTar(gz, depth)
}

// decodeTar reads tar records sequentially. Directories and special files are
// skipped; links are recorded with their target key for later resolution.
func (c *collector) decodeTar(r io.Reader, depth int) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, header.Name)
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			continue

		case tar.TypeReg:
			key, err := cleanKey(header.Name)
			if err != nil {
				return err
			}
			data, err := c.readPayload(tr, key)
			if err != nil {
				return err
			}
			if err := c.add(Entry{Key: key, Mode: header.Mode, data: data}, depth); err != nil {
				return err
			}

		case tar.TypeSymlink:
			key, err := cleanKey(header.Name)
			if err != nil {
				return err
			}
			entry := Entry{
				Key:        key,
				LinkTarget: symlinkTarget(key, header.Linkname),
				Mode:       header.Mode,
			}
			if err := c.add(entry, depth); err != nil {
				return err
			}

		case tar.TypeLink:
			key, err := cleanKey(header.Name)
			if err != nil {
				return err
			}
			// Hard link names are relative to the archive root.
			target, err := cleanKey(header.Linkname)
			if err != nil {
				return err
			}
			if err := c.add(Entry{Key: key, LinkTarget: target, Mode: header.Mode}, depth); err != nil {
				return err
			}

		default:
			c.opts.log.V(1).Info("skipping unsupported tar record",
				"key", header.Name, "type", string(header.Typeflag))
		}
	}
}

// symlinkTarget resolves a symlink's link name against the directory that
// holds the link, not the process working directory.
func symlinkTarget(key, linkname string) string {
	linkname = strings.ReplaceAll(linkname, `\`, "/")
	if strings.HasPrefix(linkname, "/") {
		return path.Clean(strings.TrimPrefix(linkname, "/"))
	}
	return path.Join(path.Dir(key), linkname)
}
