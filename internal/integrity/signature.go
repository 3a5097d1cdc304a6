package integrity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Keyring is a set of trusted OpenPGP public keys.
type Keyring = openpgp.EntityList

// LoadKeyring reads an armored or binary OpenPGP keyring from path.
func LoadKeyring(path string) (Keyring, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	return ReadKeyring(keyringFile)
}

// ReadKeyring parses an armored or binary OpenPGP keyring.
func ReadKeyring(r io.ReadSeeker) (Keyring, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		// Try reading as non-armored keyring
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind keyring: %w", err)
		}
		keyring, err = openpgp.ReadKeyRing(r)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// VerifySignature fetches the detached signature at signatureURL and checks
// stream against the verifier's keyring. stream is rewound afterwards.
func (v *Verifier) VerifySignature(ctx context.Context, stream io.ReadSeeker, signatureURL string) error {
	if !v.HasKeyring() {
		return fmt.Errorf("%w: no keyring configured", ErrSignature)
	}

	sigStream, err := v.getter.GetStream(ctx, signatureURL)
	if err != nil {
		return fmt.Errorf("fetch signature: %w", err)
	}
	defer sigStream.Close()

	signature, err := io.ReadAll(sigStream)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}

	signer, err := CheckSignature(stream, signature, v.keyring)
	if err != nil {
		return err
	}

	v.log.V(1).Info("signature verified", "url", signatureURL, "key", signer)
	return nil
}

// CheckSignature verifies an armored or binary detached signature over stream
// and returns the signing key's fingerprint. stream is rewound to its
// starting offset in every case.
func CheckSignature(stream io.ReadSeeker, signature []byte, keyring Keyring) (string, error) {
	start, err := stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", fmt.Errorf("seek: %w", err)
	}
	defer stream.Seek(start, io.SeekStart) //nolint:errcheck // best effort rewind

	entity, err := openpgp.CheckArmoredDetachedSignature(keyring, stream, bytes.NewReader(signature), nil)
	if err != nil {
		// Try non-armored signature
		if _, err := stream.Seek(start, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind: %w", err)
		}
		entity, err = openpgp.CheckDetachedSignature(keyring, stream, bytes.NewReader(signature), nil)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignature, err)
	}

	return fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint), nil
}
