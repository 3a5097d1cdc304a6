package integrity

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksumFormat is returned when a sidecar is missing, empty, or its
	// first token is not a valid lowercase hex digest.
	ErrChecksumFormat = errors.New("invalid checksum sidecar")
	// ErrIntegrityMismatch is returned when the computed digest differs from
	// the expected one.
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	// ErrSignature is returned when a detached signature does not verify.
	ErrSignature = errors.New("signature verification failed")
)

// MismatchError carries both digests of a failed verification.
type MismatchError struct {
	Algorithm string
	Computed  string
	Expected  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("integrity mismatch: computed %s %s, expected %s", e.Algorithm, e.Computed, e.Expected)
}

// Unwrap lets errors.Is match ErrIntegrityMismatch.
func (e *MismatchError) Unwrap() error {
	return ErrIntegrityMismatch
}
