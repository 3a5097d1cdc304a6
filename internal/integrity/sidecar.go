package integrity

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/opencontainers/go-digest"
)

// maxSidecarLine bounds how much of a sidecar is read looking for its first
// line.
const maxSidecarLine = 4096

// StreamGetter returns a seekable stream for a URL.
type StreamGetter interface {
	GetStream(ctx context.Context, url string) (io.ReadSeekCloser, error)
}

// Verifier fetches sidecars and signatures through a StreamGetter and checks
// artifact streams against them.
type Verifier struct {
	getter  StreamGetter
	keyring Keyring
	log     logr.Logger
}

// NewVerifier creates a verifier. keyring may be nil when no signatures are
// expected.
func NewVerifier(getter StreamGetter, keyring Keyring, log logr.Logger) *Verifier {
	return &Verifier{
		getter:  getter,
		keyring: keyring,
		log:     log,
	}
}

// HasKeyring reports whether detached signatures can be checked.
func (v *Verifier) HasKeyring() bool {
	return len(v.keyring) > 0
}

// ReadExpectedDigest fetches the sidecar at sidecarURL and returns the raw
// digest bytes from its first line.
func (v *Verifier) ReadExpectedDigest(ctx context.Context, sidecarURL string) ([]byte, error) {
	if sidecarURL == "" {
		return nil, fmt.Errorf("%w: no checksum URL", ErrChecksumFormat)
	}

	stream, err := v.getter.GetStream(ctx, sidecarURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch sidecar: %w", ErrChecksumFormat, err)
	}
	defer stream.Close()

	expected, err := ParseSidecar(stream)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sidecarURL, err)
	}

	v.log.V(1).Info("expected digest", "url", sidecarURL, "digest", hex.EncodeToString(expected))
	return expected, nil
}

// ParseSidecar reads the first line of a checksum sidecar, takes its first
// whitespace separated token and decodes it as a lowercase hex digest.
// Trailing lines are ignored.
func ParseSidecar(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(io.LimitReader(r, maxSidecarLine))
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read: %v", ErrChecksumFormat, err)
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty first line", ErrChecksumFormat)
	}
	token := fields[0]

	alg, err := algorithmForHexLen(len(token))
	if err != nil {
		return nil, err
	}
	if err := digest.NewDigestFromEncoded(alg, token).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrChecksumFormat, token, err)
	}

	raw, err := hex.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrChecksumFormat, token, err)
	}
	return raw, nil
}
