// Package history keeps a JSON log of steamsize runs: which manifests were
// touched, what they said before, and what they say now.
package history

import (
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// Operation is the kind of run an entry records.
type Operation string

const (
	// OpFix records a SizeOnDisk reconciliation run.
	OpFix Operation = "fix"
	// OpRestore records manifests restored from their backups.
	OpRestore Operation = "restore"
)

// Entry is one logged run.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	DryRun    bool      `json:"dry_run,omitempty"`
	DiskSize  string    `json:"disk_size,omitempty"`
	Roots     []string  `json:"roots,omitempty"`
	Records   []Record  `json:"records"`
	Summary   Summary   `json:"summary"`
}

// Record is the outcome for a single manifest.
type Record struct {
	Path       string       `json:"path"`
	AppID      string       `json:"appid,omitempty"`
	Name       string       `json:"name,omitempty"`
	InstallDir string       `json:"installdir,omitempty"`
	Status     types.Status `json:"status"`
	Reason     string       `json:"reason,omitempty"`

	// OldSize is the SizeOnDisk text found in the manifest, verbatim.
	OldSize string `json:"old_size,omitempty"`
	// NewSize is the measured size in bytes.
	NewSize int64 `json:"new_size"`

	// Backup is the backup outcome: created, exists or none.
	Backup string `json:"backup,omitempty"`
}

// Summary counts records by status.
type Summary struct {
	Manifests int   `json:"manifests"`
	Updated   int   `json:"updated"`
	Unchanged int   `json:"unchanged"`
	DryRun    int   `json:"dry_run"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
	Restored  int   `json:"restored"`
	Bytes     int64 `json:"bytes"`
}

// Summarize counts records by status and totals the measured bytes.
func Summarize(records []Record) Summary {
	s := Summary{Manifests: len(records)}
	for _, r := range records {
		switch r.Status {
		case types.StatusUpdated:
			s.Updated++
		case types.StatusUnchanged:
			s.Unchanged++
		case types.StatusDryRun:
			s.DryRun++
		case types.StatusSkipped:
			s.Skipped++
		case types.StatusFailed:
			s.Failed++
		case types.StatusRestored:
			s.Restored++
		}
		s.Bytes += r.NewSize
	}
	return s
}
