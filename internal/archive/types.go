package archive

import (
	"bytes"
	"io"
	"path"
	"strings"
)

// Format identifies a container format.
type Format int

const (
	// FormatUnknown is any stream whose magic number is not recognised.
	FormatUnknown Format = iota
	// FormatZip is a PKZIP container.
	FormatZip
	// FormatGzipTar is a tar stream inside a gzip envelope.
	FormatGzipTar
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "Zip"
	case FormatGzipTar:
		return "GzipTar"
	default:
		return "Unknown"
	}
}

// noTarget marks an entry that is not a link or whose link did not resolve.
const noTarget = -1

// Entry is one logical item of a container.
type Entry struct {
	// Key is the slash separated path of the entry inside the archive.
	Key string
	// LinkTarget is the key a symbolic or hard link points at. Empty for
	// regular entries.
	LinkTarget string
	// Mode holds the permission bits recorded in the archive, if any.
	Mode int64

	data   []byte
	target int
}

// IsLink reports whether the entry references another entry.
func (e Entry) IsLink() bool {
	return e.LinkTarget != ""
}

// Base returns the last element of the entry key.
func (e Entry) Base() string {
	return path.Base(e.Key)
}

// Container is a decoded archive: its format and the flat list of entries left
// after nested archives have been unwrapped and links resolved.
type Container struct {
	format   Format
	entries  []Entry
	index    map[string]int
	warnings []string
}

// Format returns the detected format of the outermost stream.
func (c *Container) Format() Format {
	return c.format
}

// Entries returns the entries in archive order. The slice is shared with the
// container and must not be modified.
func (c *Container) Entries() []Entry {
	return c.entries
}

// Len returns the number of entries.
func (c *Container) Len() int {
	return len(c.entries)
}

// Warnings returns the non-fatal problems observed while decoding, such as
// dangling links.
func (c *Container) Warnings() []string {
	return c.warnings
}

// Lookup returns the index of the entry with the given key.
func (c *Container) Lookup(key string) (int, bool) {
	i, ok := c.index[key]
	return i, ok
}

// Data returns the payload of entry i. For a resolved link this is the payload
// of the regular entry at the end of the chain. A dangling link returns its
// own (usually empty) payload.
func (c *Container) Data(i int) []byte {
	e := c.entries[i]
	if e.target != noTarget {
		return c.entries[e.target].data
	}
	return e.data
}

// Open returns a reader over the payload of entry i.
func (c *Container) Open(i int) io.Reader {
	return bytes.NewReader(c.Data(i))
}

// Resolved returns the key whose bytes entry i carries. For regular entries and
// dangling links this is the entry's own key.
func (c *Container) Resolved(i int) string {
	e := c.entries[i]
	if e.target != noTarget {
		return c.entries[e.target].Key
	}
	return e.Key
}

// RootFolder returns the first path element of the first entry, following the
// convention that releases contain a single top level folder.
func (c *Container) RootFolder() string {
	if len(c.entries) == 0 {
		return ""
	}
	root, _, found := strings.Cut(c.entries[0].Key, "/")
	if !found {
		return ""
	}
	return root
}

// Release drops the in-memory payloads. The container must not be used
// afterwards.
func (c *Container) Release() {
	c.entries = nil
	c.index = nil
}
