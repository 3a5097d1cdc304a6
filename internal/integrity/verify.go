package integrity

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// algorithmForHexLen picks the digest algorithm from the length of its hex
// encoding.
func algorithmForHexLen(n int) (digest.Algorithm, error) {
	switch n {
	case 64:
		return digest.SHA256, nil
	case 96:
		return digest.SHA384, nil
	case 128:
		return digest.SHA512, nil
	default:
		return "", fmt.Errorf("%w: digest has %d hex characters", ErrChecksumFormat, n)
	}
}

// Verify digests stream from its current position to EOF and compares the
// result with expected. The stream is rewound to its starting offset before
// Verify returns, so the caller can read the same bytes again.
func Verify(stream io.ReadSeeker, expected []byte) error {
	alg, err := algorithmForHexLen(hex.EncodedLen(len(expected)))
	if err != nil {
		return err
	}

	start, err := stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	digester := alg.Digester()
	if _, err := io.Copy(digester.Hash(), stream); err != nil {
		return fmt.Errorf("hash stream: %w", err)
	}
	computed := digester.Digest()

	// Jump back so the archive reader sees the stream from the start.
	if _, err := stream.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}

	if want := hex.EncodeToString(expected); computed.Encoded() != want {
		return &MismatchError{
			Algorithm: alg.String(),
			Computed:  computed.Encoded(),
			Expected:  want,
		}
	}

	return nil
}
