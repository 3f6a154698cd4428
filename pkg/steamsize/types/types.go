// Package types provides core data types shared by the steamsize packages.
// It includes the error taxonomy used across the fixer pipeline, the
// per-manifest status values, and helpers for parsing and formatting sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// Errors returned by the manifest pipeline. Callers match them with errors.Is;
// the concrete error always carries the path and the underlying cause.
var (
	// ErrIO indicates a read, write or copy failure on a specific file.
	ErrIO = errors.New("i/o error")

	// ErrFormat indicates manifest text that cannot be patched safely.
	ErrFormat = errors.New("malformed manifest")

	// ErrMissingField indicates a required key is absent from a manifest.
	ErrMissingField = errors.New("missing field")

	// ErrDiskSizeUnavailable indicates the platform allocated-size query failed.
	ErrDiskSizeUnavailable = errors.New("disk size unavailable")

	// ErrInstallDirNotFound indicates the install directory named by a
	// manifest does not exist under the library's common folder.
	ErrInstallDirNotFound = errors.New("install directory not found")

	// ErrInvalidValue indicates a replacement value that is not a
	// non-negative decimal integer.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrNoBackup indicates a restore was requested for a manifest with no
	// backup file.
	ErrNoBackup = errors.New("no backup")
)

// Status is the outcome of processing one manifest.
type Status string

const (
	// StatusUpdated means the manifest was rewritten with a new size.
	StatusUpdated Status = "updated"

	// StatusUnchanged means the recorded size already matched.
	StatusUnchanged Status = "unchanged"

	// StatusDryRun means a change was computed but not written.
	StatusDryRun Status = "dry-run"

	// StatusSkipped means the manifest could not be processed for a
	// benign reason (missing installdir, install folder not found).
	StatusSkipped Status = "skipped"

	// StatusFailed means an I/O or format error prevented the update.
	StatusFailed Status = "failed"

	// StatusRestored means the manifest was restored from its backup.
	StatusRestored Status = "restored"
)

// Symbol returns a short marker used in status lines.
func (s Status) Symbol() string {
	switch s {
	case StatusUpdated, StatusRestored:
		return "✓"
	case StatusUnchanged:
		return "="
	case StatusDryRun:
		return "~"
	case StatusSkipped:
		return "-"
	case StatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It accepts plain bytes ("1024") and K, M, G, T suffixes with optional
// "B" or "iB" ("100K", "50MB", "2GiB"). Units are binary.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
// Negative values are rendered with a leading minus sign.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatRecorded renders a raw SizeOnDisk string as read from a manifest.
// Values that are not parseable integers are returned verbatim.
func FormatRecorded(raw string) string {
	if raw == "" {
		return "(none)"
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	return FormatSize(n)
}
