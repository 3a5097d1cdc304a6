// Package artifact composes fetching, integrity verification, archive
// decoding and extraction into one operation per release archive.
//
// A Manager runs the stages strictly in order for one artifact:
//
//  1. read the expected digest from the checksum sidecar
//  2. fetch the archive into the on-disk cache
//  3. verify the digest, and the detached signature when a keyring is set
//  4. decode the archive
//  5. extract the selected entries
//
// Nothing is retried here. Re-running after a failure is cheap because the
// fetch cache and the idempotent extraction skip finished work. Cancellation
// is checked between stages. ExtractAll runs independent artifacts
// concurrently.
package artifact
