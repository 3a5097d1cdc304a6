package archive

import "errors"

var (
	// ErrUnsupportedFormat is returned when a stream is not a zip or gzip tar,
	// or cannot be read at all.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrNestedArchiveTooDeep is returned when nested archives exceed the
	// depth guard.
	ErrNestedArchiveTooDeep = errors.New("nested archive too deep")
	// ErrSymlinkCycle is returned when a link chain does not end in a regular
	// entry within the hop bound.
	ErrSymlinkCycle = errors.New("symlink cycle")
	// ErrUnsafePath is returned for entry keys that escape the archive root.
	ErrUnsafePath = errors.New("unsafe entry path")
	// ErrSizeLimit is returned when decoded payloads exceed a configured limit.
	ErrSizeLimit = errors.New("archive size limit exceeded")
)
