// Package integrity verifies downloaded release artifacts before anything is
// extracted from them.
//
// # Verification Strategy
//
// 1. Digest verification (always)
//   - The release publishes a sidecar file next to the artifact whose first
//     line is "<hex digest> <filename>"
//   - The digest of the whole artifact stream must match byte for byte
//   - After a successful check the stream is rewound so it can be decoded
//
// 2. Detached OpenPGP signature (when a signature URL and keyring are given)
//   - Armored and binary signatures are both accepted
//   - Provides authenticity on top of the digest's integrity guarantee
//
// A mismatch of either kind is fatal; nothing is retried.
package integrity
