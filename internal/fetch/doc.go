// Package fetch retrieves remote files into an on-disk cache and serves them
// back as seekable streams.
//
// Files are cached under the trailing path segment of their URL. A cached file
// that exists and is non-empty is returned without touching the network, so
// re-running an operation after a failure only downloads what is missing.
// Downloads go through a retrying HTTP client that backs off on 5xx and 429
// responses.
package fetch
