// Package lock provides exclusive lock files that serialize operations on a
// shared destination directory, across goroutines and processes.
package lock

import (
	"bufio"
	"context"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	StaleLockThreshold = 10 * time.Minute

	// DefaultPollInterval is how often AcquireWait retries a held lock.
	DefaultPollInterval = 100 * time.Millisecond
)

var (
	ErrLockExists = errors.New("destination lock exists: another operation may be in progress")
	ErrNotOwner   = errors.New("lock is owned by another holder")
)

// Lock is a held destination lock.
type Lock struct {
	path  string
	owner string
	file  *os.File
}

// PathFor returns the lock file used for key inside dir. Keys are digested so
// any destination path maps to a flat, filesystem safe name.
func PathFor(dir, key string) string {
	return filepath.Join(dir, digest.FromString(key).Encoded()+".lock")
}

// Acquire takes the lock for key in dir without waiting. Uses
// O_CREATE|O_EXCL for atomic lock creation. A lock older than
// StaleLockThreshold is taken over.
func Acquire(ctx context.Context, dir, key string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := PathFor(dir, key)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if isStale, _ := isLockStale(lockPath); !isStale {
			return nil, ErrLockExists
		}
		// Remove stale lock and retry once
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	owner := uuid.NewString()
	lockData := fmt.Sprintf("owner=%s\npid=%d\nkey=%s\ntimestamp=%s\n",
		owner, os.Getpid(), key, time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{
		path:  lockPath,
		owner: owner,
		file:  file,
	}, nil
}

// AcquireWait polls Acquire until the lock is taken or ctx is done.
func AcquireWait(ctx context.Context, dir, key string, interval time.Duration) (*Lock, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		l, err := Acquire(ctx, dir, key)
		if !errors.Is(err, ErrLockExists) {
			return l, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Owner returns the token identifying this holder.
func (l *Lock) Owner() string {
	return l.owner
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release releases the lock. A lock that was taken over as stale by another
// holder is left in place and ErrNotOwner is returned.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path == "" {
		return nil
	}
	defer func() { l.path = "" }()

	owner, err := readOwner(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read lock file: %w", err)
	}
	if owner != l.owner {
		return ErrNotOwner
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// readOwner returns the owner token recorded in a lock file.
func readOwner(lockPath string) (string, error) {
	f, err := os.Open(lockPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "owner="); ok {
			return v, nil
		}
	}
	return "", scanner.Err()
}

// isLockStale checks if a lock file is older than the stale lock threshold.
func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}

	age := time.Since(info.ModTime())
	return age > StaleLockThreshold, nil
}
