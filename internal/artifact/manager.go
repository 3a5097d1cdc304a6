package artifact

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/archive"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/extract"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/fetch"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/integrity"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/lock"
	"github.com/ZebulonRouseFrantzich/nativefetch/internal/selector"
)

// DefaultConcurrency is the number of artifacts ExtractAll processes at once.
const DefaultConcurrency = 2

// Config holds configuration for the artifact manager
type Config struct {
	// CacheDir holds downloaded files and lock files.
	CacheDir string
	// Retries is the number of HTTP retries per request. Zero means
	// fetch.DefaultRetries and a negative value disables retries.
	Retries int
	// Concurrency bounds ExtractAll. Zero means DefaultConcurrency.
	Concurrency int
	// Keyring enables detached signature checks when non-empty.
	Keyring integrity.Keyring
	// LockDestinations serializes operations on the same destination, also
	// across processes sharing CacheDir.
	LockDestinations bool
	// MaxEntrySize and MaxTotalSize bound decoded archive payloads. Zero
	// disables a limit.
	MaxEntrySize int64
	MaxTotalSize int64
	// FetchOptions are passed to the fetcher after the defaults.
	FetchOptions []fetch.Option
	Logger       logr.Logger
}

// Manager orchestrates download, verification and extraction of artifacts.
type Manager struct {
	cacheDir         string
	concurrency      int
	lockDestinations bool
	archiveOpts      []archive.Option
	fetcher          *fetch.Fetcher
	verifier         *integrity.Verifier
	extractor        *extract.Extractor
	log              logr.Logger
}

// NewManager creates a new artifact manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("CacheDir is required")
	}

	log := cfg.Logger

	opts := []fetch.Option{fetch.WithLogger(log.WithName("fetch"))}
	switch {
	case cfg.Retries > 0:
		opts = append(opts, fetch.WithRetries(cfg.Retries))
	case cfg.Retries < 0:
		opts = append(opts, fetch.WithRetries(0))
	}
	opts = append(opts, cfg.FetchOptions...)

	fetcher, err := fetch.NewFetcher(filepath.Join(cfg.CacheDir, "downloads"), opts...)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	archiveOpts := []archive.Option{archive.WithLogger(log.WithName("archive"))}
	if cfg.MaxEntrySize > 0 {
		archiveOpts = append(archiveOpts, archive.WithMaxEntrySize(cfg.MaxEntrySize))
	}
	if cfg.MaxTotalSize > 0 {
		archiveOpts = append(archiveOpts, archive.WithMaxTotalSize(cfg.MaxTotalSize))
	}

	return &Manager{
		cacheDir:         cfg.CacheDir,
		concurrency:      concurrency,
		lockDestinations: cfg.LockDestinations,
		archiveOpts:      archiveOpts,
		fetcher:          fetcher,
		verifier:         integrity.NewVerifier(fetcher, cfg.Keyring, log.WithName("integrity")),
		extractor:        extract.NewExtractor(log.WithName("extract")),
		log:              log,
	}, nil
}

// Fetcher returns the manager's fetcher.
func (m *Manager) Fetcher() *fetch.Fetcher {
	return m.fetcher
}

// DownloadAndExtract fetches ref, verifies it against its checksum sidecar
// and extracts the entries matched by sel into destDir.
//
// An integrity mismatch is returned as is and nothing is extracted.
func (m *Manager) DownloadAndExtract(ctx context.Context, ref Reference, destDir string, sel selector.Policy, flatten bool) (*extract.ExtractionResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	log := m.log.WithValues("artifact", ref.String())

	if m.lockDestinations {
		absDest, err := filepath.Abs(destDir)
		if err != nil {
			return nil, fmt.Errorf("resolve dest dir: %w", err)
		}
		l, err := lock.AcquireWait(ctx, filepath.Join(m.cacheDir, "locks"), absDest, lock.DefaultPollInterval)
		if err != nil {
			return nil, fmt.Errorf("lock destination: %w", err)
		}
		defer func() {
			if err := l.Release(); err != nil {
				log.Error(err, "release destination lock")
			}
		}()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expected, err := m.verifier.ReadExpectedDigest(ctx, ref.ChecksumURL)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stream, err := m.fetcher.GetStream(ctx, ref.URL)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := integrity.Verify(stream, expected); err != nil {
		return nil, err
	}
	log.V(1).Info("digest verified")

	if ref.SignatureURL != "" {
		if m.verifier.HasKeyring() {
			if err := m.verifier.VerifySignature(ctx, stream, ref.SignatureURL); err != nil {
				return nil, err
			}
		} else {
			log.Info("signature not checked, no keyring configured", "url", ref.SignatureURL)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := archive.Open(stream, m.archiveOpts...)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", ref, err)
	}
	defer c.Release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := m.extractor.Extract(c, sel, destDir, flatten)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ref, err)
	}

	return result, nil
}
