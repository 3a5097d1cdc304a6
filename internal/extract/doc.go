// Package extract writes the selected entries of a decoded archive to a
// destination directory.
//
// Extraction is idempotent: when every destination file already exists the
// call returns the same result without writing anything. Writes are not
// transactional, so callers must serialize extractions that share a
// destination directory (see the lock package).
package extract
