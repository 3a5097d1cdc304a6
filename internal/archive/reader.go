package archive

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-logr/logr"
)

const (
	// MaxNestingDepth is the number of nested archive levels Open unwraps
	// below the outermost stream. Releases nest at most one level.
	MaxNestingDepth = 2
	// MaxLinkHops bounds the length of a link chain.
	MaxLinkHops = 16

	// innerArchiveSuffix marks entries that are unwrapped in place.
	innerArchiveSuffix = ".tar"
)

// Option configures Open.
type Option func(*options)

type options struct {
	log          logr.Logger
	maxEntrySize int64
	maxTotalSize int64
}

// WithLogger sets the logger used for non-fatal decoding events.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMaxEntrySize limits the decoded size of a single entry. Zero or less
// disables the limit.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		o.maxEntrySize = n
	}
}

// WithMaxTotalSize limits the sum of all decoded payloads. Zero or less
// disables the limit.
func WithMaxTotalSize(n int64) Option {
	return func(o *options) {
		o.maxTotalSize = n
	}
}

// Open detects the format of r and decodes it into a Container. Nested ".tar"
// entries are unwrapped and links are resolved before Open returns. The
// stream is read from its current position.
func Open(r io.ReadSeeker, opts ...Option) (*Container, error) {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	format, err := Detect(r)
	if err != nil {
		return nil, err
	}

	c := &collector{
		opts:  o,
		index: make(map[string]int),
	}

	switch format {
	case FormatGzipTar:
		err = c.decodeGzipTar(r, 0)
	case FormatZip:
		var (
			ra   io.ReaderAt
			size int64
		)
		ra, size, err = zipSource(r)
		if err == nil {
			err = c.decodeZip(ra, size, 0)
		}
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	container := &Container{
		format:  format,
		entries: c.entries,
		index:   c.index,
	}
	if err := container.resolveLinks(o.log); err != nil {
		return nil, err
	}

	o.log.V(1).Info("archive decoded", "format", format.String(), "entries", len(container.entries))
	return container, nil
}

// collector accumulates entries across the outer stream and every nested
// archive.
type collector struct {
	opts    options
	entries []Entry
	index   map[string]int
	total   int64
}

// add stores e, unwrapping it first when it is a nested archive. A key seen
// before keeps its position but takes the newer payload.
func (c *collector) add(e Entry, depth int) error {
	if !e.IsLink() && strings.HasSuffix(strings.ToLower(e.Key), innerArchiveSuffix) {
		return c.unwrap(e, depth+1)
	}

	c.total += int64(len(e.data))
	if c.opts.maxTotalSize > 0 && c.total > c.opts.maxTotalSize {
		return fmt.Errorf("%w: total exceeds %d bytes at %s", ErrSizeLimit, c.opts.maxTotalSize, e.Key)
	}

	e.target = noTarget
	if i, ok := c.index[e.Key]; ok {
		c.opts.log.V(1).Info("duplicate entry, keeping last", "key", e.Key)
		c.entries[i] = e
		return nil
	}

	c.index[e.Key] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

// unwrap decodes the payload of a nested archive entry at the given depth.
func (c *collector) unwrap(e Entry, depth int) error {
	if depth > MaxNestingDepth {
		return fmt.Errorf("%w: %s at depth %d", ErrNestedArchiveTooDeep, e.Key, depth)
	}

	c.opts.log.V(1).Info("unwrapping nested archive", "key", e.Key, "depth", depth)

	r := bytes.NewReader(e.data)
	var err error
	switch DetectBytes(e.data) {
	case FormatZip:
		err = c.decodeZip(r, int64(len(e.data)), depth)
	case FormatGzipTar:
		err = c.decodeGzipTar(r, depth)
	default:
		err = c.decodeTar(r, depth)
	}
	if err != nil {
		return fmt.Errorf("nested archive %s: %w", e.Key, err)
	}
	return nil
}

// readPayload materializes an entry's bytes, enforcing the per entry limit.
func (c *collector) readPayload(r io.Reader, key string) ([]byte, error) {
	if c.opts.maxEntrySize <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, c.opts.maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if int64(len(data)) > c.opts.maxEntrySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrSizeLimit, key, c.opts.maxEntrySize)
	}
	return data, nil
}

// cleanKey normalizes an archive member name into an entry key.
func cleanKey(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	key := path.Clean(name)
	if key == ".." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return key, nil
}
