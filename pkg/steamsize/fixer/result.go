package fixer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/backup"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"go.uber.org/multierr"
)

// Result is the outcome of processing one manifest. Every manifest that is
// looked at yields exactly one Result.
type Result struct {
	Path       string
	Root       string
	AppID      string
	Name       string
	InstallDir string

	// InstallPath is the resolved install directory, when one was found.
	InstallPath string

	Status types.Status
	Reason string
	Err    error

	// OldSize is the SizeOnDisk text as found in the manifest ("" if absent).
	OldSize string
	// NewSize is the measured size in bytes.
	NewSize int64
	// Files is the number of files that were measured.
	Files int64

	Backup  backup.Outcome
	Elapsed time.Duration
}

// Label returns a short human name for the manifest: the app name when the
// manifest has one, else its install dir, else its file name.
func (r Result) Label() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.InstallDir != "":
		return r.InstallDir
	default:
		return r.Path
	}
}

// Changed reports whether the manifest's recorded size differs from the
// measured one, whether or not it was written.
func (r Result) Changed() bool {
	return r.Status == types.StatusUpdated || r.Status == types.StatusDryRun
}

// RootResult describes how a library root was handled.
type RootResult struct {
	Path      string
	Manifests int

	// Skipped is set when the root could not be enumerated.
	Skipped bool
	Reason  string
	Err     error
}

// Report is the outcome of a batch run.
type Report struct {
	Roots   []RootResult
	Results []Result
	DryRun  bool
	Elapsed time.Duration

	// Interrupted is set when the context was cancelled before every
	// manifest was processed.
	Interrupted bool
}

// Count returns the number of results with the given status.
func (r *Report) Count(status types.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Counts returns the number of results for every status that occurred.
func (r *Report) Counts() map[types.Status]int {
	counts := make(map[types.Status]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Bytes totals the measured size of every manifest that was sized.
func (r *Report) Bytes() int64 {
	var total int64
	for _, res := range r.Results {
		total += res.NewSize
	}
	return total
}

// Failed reports whether any manifest failed or the run was interrupted.
func (r *Report) Failed() bool {
	return r.Interrupted || r.Count(types.StatusFailed) > 0
}

// Err combines the errors of every failed manifest, plus context.Canceled
// if the run was interrupted. Skipped manifests and roots are not errors.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Results {
		if res.Status != types.StatusFailed {
			continue
		}
		cause := res.Err
		if cause == nil {
			cause = errors.New(res.Reason)
		}
		err = multierr.Append(err, fmt.Errorf("%s: %w", res.Path, cause))
	}
	if r.Interrupted {
		err = multierr.Append(err, context.Canceled)
	}
	return err
}
