package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the default number of download retries
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "nativefetch/1.0"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4096
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		f.client.RetryMax = n
	}
}

// WithRetryWait sets the back-off bounds between retries.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(f *Fetcher) {
		f.client.RetryWaitMin = minWait
		f.client.RetryWaitMax = maxWait
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client.HTTPClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(f *Fetcher) {
		f.log = log
		f.client.Logger = newErrorLogger(log)
	}
}

// WithMaxDownloadSize fails downloads larger than n bytes. Zero disables the
// limit.
func WithMaxDownloadSize(n int64) Option {
	return func(f *Fetcher) {
		f.maxDownloadSize = n
	}
}

// Fetcher downloads URLs into a Store.
type Fetcher struct {
	client          *retryablehttp.Client
	store           *Store
	userAgent       string
	maxDownloadSize int64
	log             logr.Logger
}

// NewFetcher creates a fetcher caching into cacheDir.
func NewFetcher(cacheDir string, opts ...Option) (*Fetcher, error) {
	store, err := NewStore(cacheDir)
	if err != nil {
		return nil, err
	}

	client := retryablehttp.NewClient()
	client.RetryMax = DefaultRetries
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 30 * time.Second
	client.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	client.Logger = nil
	// Return the last response instead of a generic "giving up" error so
	// the status and body reach the caller.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	f := &Fetcher{
		client:    client,
		store:     store,
		userAgent: DefaultUserAgent,
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Store returns the backing store.
func (f *Fetcher) Store() *Store {
	return f.store
}

// GetOrFetch returns the local path of rawURL, downloading it first unless it
// is already cached.
func (f *Fetcher) GetOrFetch(ctx context.Context, rawURL string) (string, error) {
	key, err := KeyForURL(rawURL)
	if err != nil {
		return "", &TransportError{URL: rawURL, Err: err}
	}

	if f.store.Has(key) {
		f.log.V(1).Info("cache hit", "url", rawURL, "key", key)
		return f.store.Path(key), nil
	}

	f.log.Info("downloading", "url", rawURL)
	return f.download(ctx, rawURL, key)
}

// GetStream returns a seekable stream over rawURL's bytes. The caller must
// close it.
func (f *Fetcher) GetStream(ctx context.Context, rawURL string) (io.ReadSeekCloser, error) {
	p, err := f.GetOrFetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open cached file: %w", err)
	}
	return file, nil
}

// download performs the request and stores a successful body under key.
func (f *Fetcher) download(ctx context.Context, rawURL, key string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &TransportError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var body io.Reader = resp.Body
	if f.maxDownloadSize > 0 {
		body = &limitedReader{r: resp.Body, remaining: f.maxDownloadSize}
	}

	p, err := f.store.Put(key, body)
	if err != nil {
		return "", &TransportError{URL: rawURL, Err: err}
	}
	return p, nil
}

// limitedReader fails instead of truncating once more than the allowed bytes
// have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, fmt.Errorf("download exceeds size limit")
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, fmt.Errorf("download exceeds size limit")
	}
	return n, err
}
