package output

import (
	"fmt"

	"github.com/jamesainslie/steamsize/pkg/steamsize/backup"
	"github.com/jamesainslie/steamsize/pkg/steamsize/fixer"
	"github.com/jamesainslie/steamsize/pkg/steamsize/history"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// FromResult converts a single fixer result.
func FromResult(res fixer.Result) Manifest {
	m := Manifest{
		Path:       res.Path,
		AppID:      res.AppID,
		Name:       res.Name,
		InstallDir: res.InstallDir,
		Status:     res.Status,
		Reason:     res.Reason,
		OldSize:    res.OldSize,
		NewSize:    res.NewSize,
	}
	if res.Backup != backup.None {
		m.Backup = res.Backup.String()
	}
	if res.Err != nil && res.Status == types.StatusFailed {
		m.Reason = fmt.Sprintf("%s: %v", res.Reason, res.Err)
	}
	m.NewSizeHuman = types.FormatSize(m.NewSize)
	return m
}

// FromReport converts a fixer run.
func FromReport(report fixer.Report) *Result {
	r := &Result{
		Operation:   string(history.OpFix),
		Manifests:   make([]Manifest, 0, len(report.Results)),
		DryRun:      report.DryRun,
		Duration:    report.Elapsed,
		Interrupted: report.Interrupted,
	}
	for _, root := range report.Roots {
		r.Roots = append(r.Roots, Root{
			Path:      root.Path,
			Manifests: root.Manifests,
			Skipped:   root.Skipped,
			Reason:    root.Reason,
		})
		if root.Skipped {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", root.Path, root.Reason))
		}
	}
	for _, res := range report.Results {
		r.Manifests = append(r.Manifests, FromResult(res))
	}
	return r
}

// FromEntry converts a stored history entry.
func FromEntry(e *history.Entry) *Result {
	r := &Result{
		Operation: string(e.Operation),
		Manifests: make([]Manifest, 0, len(e.Records)),
		DryRun:    e.DryRun,
		HistoryID: e.ID,
		Timestamp: e.Timestamp,
	}
	for _, root := range e.Roots {
		r.Roots = append(r.Roots, Root{Path: root})
	}
	for _, rec := range e.Records {
		r.Manifests = append(r.Manifests, Manifest{
			Path:         rec.Path,
			AppID:        rec.AppID,
			Name:         rec.Name,
			InstallDir:   rec.InstallDir,
			Status:       rec.Status,
			Reason:       rec.Reason,
			OldSize:      rec.OldSize,
			NewSize:      rec.NewSize,
			NewSizeHuman: types.FormatSize(rec.NewSize),
			Backup:       rec.Backup,
		})
	}
	return r
}

// ToRecord converts a formatted manifest into a history record.
func ToRecord(m Manifest) history.Record {
	return history.Record{
		Path:       m.Path,
		AppID:      m.AppID,
		Name:       m.Name,
		InstallDir: m.InstallDir,
		Status:     m.Status,
		Reason:     m.Reason,
		OldSize:    m.OldSize,
		NewSize:    m.NewSize,
		Backup:     m.Backup,
	}
}

// Records converts a fixer run into history records.
func Records(report fixer.Report) []history.Record {
	records := make([]history.Record, 0, len(report.Results))
	for _, res := range report.Results {
		records = append(records, ToRecord(FromResult(res)))
	}
	return records
}

// StatusLine renders a manifest as a single line of text, e.g.
//
//	✓ Half-Life 2: 1.2 GiB -> 980 MiB (backup created)
func StatusLine(m Manifest) string {
	head := fmt.Sprintf("%s %s", m.Status.Symbol(), m.Label())

	switch m.Status {
	case types.StatusUpdated:
		line := fmt.Sprintf("%s: %s -> %s", head, types.FormatRecorded(m.OldSize), m.NewSizeHuman)
		if m.Backup == backup.Created.String() {
			line += " (backup created)"
		}
		return line
	case types.StatusDryRun:
		return fmt.Sprintf("%s: %s -> %s (dry run)", head, types.FormatRecorded(m.OldSize), m.NewSizeHuman)
	case types.StatusUnchanged:
		return fmt.Sprintf("%s: %s", head, m.NewSizeHuman)
	case types.StatusRestored:
		return fmt.Sprintf("%s: restored from backup", head)
	default:
		if m.Reason != "" {
			return fmt.Sprintf("%s: %s", head, m.Reason)
		}
		return fmt.Sprintf("%s: %s", head, m.Status)
	}
}
