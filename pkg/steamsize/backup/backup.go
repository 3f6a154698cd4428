// Package backup keeps a pristine copy of each manifest before it is first
// modified. The copy lives next to the original as <path>.bak and is written
// at most once: later runs see it and leave it alone, so it always holds the
// first state the tool ever observed.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
)

// Suffix is appended to a manifest path to form its backup path.
const Suffix = ".bak"

// Outcome reports what EnsureBackup did.
type Outcome int

const (
	// None means no backup was attempted.
	None Outcome = iota
	// Created means a new backup file was written.
	Created
	// AlreadyExists means a backup was already present and left untouched.
	AlreadyExists
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "exists"
	default:
		return "none"
	}
}

// Path returns the backup path for a manifest.
func Path(path string) string {
	return path + Suffix
}

// EnsureBackup copies path to Path(path) unless that file already exists.
//
// The backup is created with O_EXCL, so a backup that appears between the
// existence check and the create is never overwritten. If the copy fails
// part-way the partial backup is removed and an error wrapping types.ErrIO is
// returned; the caller must not modify path in that case.
func EnsureBackup(fs afero.Fs, path string) (Outcome, error) {
	bak := Path(path)

	if _, err := fs.Stat(bak); err == nil {
		return AlreadyExists, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return None, fmt.Errorf("%w: checking backup %s: %w", types.ErrIO, bak, err)
	}

	src, err := fs.Open(path)
	if err != nil {
		return None, fmt.Errorf("%w: opening %s for backup: %w", types.ErrIO, path, err)
	}
	defer src.Close()

	perm := os.FileMode(0o644)
	if info, statErr := src.Stat(); statErr == nil {
		perm = info.Mode().Perm()
	}

	dst, err := fs.OpenFile(bak, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return AlreadyExists, nil
		}
		return None, fmt.Errorf("%w: creating backup %s: %w", types.ErrIO, bak, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = fs.Remove(bak)
		return None, fmt.Errorf("%w: copying %s to backup: %w", types.ErrIO, path, err)
	}

	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		_ = fs.Remove(bak)
		return None, fmt.Errorf("%w: syncing backup %s: %w", types.ErrIO, bak, err)
	}

	if err := dst.Close(); err != nil {
		_ = fs.Remove(bak)
		return None, fmt.Errorf("%w: closing backup %s: %w", types.ErrIO, bak, err)
	}

	return Created, nil
}

// Exists reports whether a backup exists for path.
func Exists(fs afero.Fs, path string) (bool, error) {
	ok, err := afero.Exists(fs, Path(path))
	if err != nil {
		return false, fmt.Errorf("%w: checking backup for %s: %w", types.ErrIO, path, err)
	}
	return ok, nil
}

// Restore overwrites path with the contents of its backup. The backup is
// kept. Returns an error wrapping types.ErrNoBackup if there is none.
func Restore(fs afero.Fs, path string) error {
	bak := Path(path)

	data, err := afero.ReadFile(fs, bak)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrNoBackup, path)
		}
		return fmt.Errorf("%w: reading backup %s: %w", types.ErrIO, bak, err)
	}

	return WriteFile(fs, path, data)
}

// WriteFile replaces path with data by writing a temp file and renaming it
// over the original. The original's permissions are kept when it exists.
func WriteFile(fs afero.Fs, path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmpPath := path + ".tmp"
	if err := afero.WriteFile(fs, tmpPath, data, perm); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("%w: writing temp file for %s: %w", types.ErrIO, path, err)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("%w: replacing %s: %w", types.ErrIO, path, err)
	}

	return nil
}
