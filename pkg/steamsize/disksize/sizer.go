// Package disksize measures how much storage files actually occupy.
//
// The allocated size of a file can differ from its logical length: sparse
// files and transparently compressed files (NTFS, btrfs, APFS) take less,
// and block rounding takes more. Steam records SizeOnDisk from the
// allocated figure, so that is what this package reports by default.
package disksize

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"go.uber.org/multierr"
)

// Sizer reports the on-disk size of a single file in bytes.
type Sizer interface {
	DiskSize(path string) (int64, error)
}

// Func adapts an ordinary function to the Sizer interface.
type Func func(path string) (int64, error)

// DiskSize calls f(path).
func (f Func) DiskSize(path string) (int64, error) {
	return f(path)
}

// Mode selects how file sizes are measured.
type Mode string

const (
	// ModeAuto uses the allocated size and falls back to the logical size
	// when the platform query fails.
	ModeAuto Mode = "auto"

	// ModeAllocated uses the allocated size and fails when it is unavailable.
	ModeAllocated Mode = "allocated"

	// ModeLogical uses the file length.
	ModeLogical Mode = "logical"
)

// Modes lists the accepted mode names.
var Modes = []Mode{ModeAuto, ModeAllocated, ModeLogical}

// ParseMode parses a mode name. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeAllocated:
		return ModeAllocated, nil
	case ModeLogical:
		return ModeLogical, nil
	default:
		return "", fmt.Errorf("%w: disk size mode %q (want auto, allocated or logical)", types.ErrInvalidValue, s)
	}
}

// New returns the Sizer for mode.
func New(mode Mode) (Sizer, error) {
	switch mode {
	case "", ModeAuto:
		return WithFallback(Allocated(), Logical()), nil
	case ModeAllocated:
		return Allocated(), nil
	case ModeLogical:
		return Logical(), nil
	default:
		return nil, fmt.Errorf("%w: disk size mode %q", types.ErrInvalidValue, mode)
	}
}

// Allocated returns the platform allocated-size primitive. Failures wrap
// types.ErrDiskSizeUnavailable.
func Allocated() Sizer {
	return Func(allocatedSize)
}

// Logical returns a Sizer that reports the file length without following
// symlinks.
func Logical() Sizer {
	return Func(func(path string) (int64, error) {
		info, err := os.Lstat(path)
		if err != nil {
			return 0, fmt.Errorf("%w: lstat %s: %w", types.ErrIO, path, err)
		}
		return info.Size(), nil
	})
}

// WithFallback returns a Sizer that asks primary first and, if primary
// fails, asks fallback. A file that no longer exists measures 0.
func WithFallback(primary, fallback Sizer) Sizer {
	logger := logging.Get("disksize")
	return Func(func(path string) (int64, error) {
		n, err := primary.DiskSize(path)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		logger.Debug("allocated size unavailable, using fallback", "path", path, "error", err)

		n, fbErr := fallback.DiskSize(path)
		if fbErr != nil {
			if errors.Is(fbErr, os.ErrNotExist) {
				return 0, nil
			}
			return 0, fmt.Errorf("sizing %s: %w", path, multierr.Combine(err, fbErr))
		}
		return n, nil
	})
}
