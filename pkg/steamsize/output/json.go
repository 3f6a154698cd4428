package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// document is the structure shared by the json and yaml formatters.
type document struct {
	Manifests []Manifest `json:"manifests" yaml:"manifests"`
	Summary   summary    `json:"summary" yaml:"summary"`
	Meta      meta       `json:"meta" yaml:"meta"`
}

type summary struct {
	Manifests int   `json:"manifests" yaml:"manifests"`
	Updated   int   `json:"updated" yaml:"updated"`
	Unchanged int   `json:"unchanged" yaml:"unchanged"`
	DryRun    int   `json:"dry_run" yaml:"dry_run"`
	Skipped   int   `json:"skipped" yaml:"skipped"`
	Failed    int   `json:"failed" yaml:"failed"`
	Restored  int   `json:"restored" yaml:"restored"`
	TotalSize int64 `json:"total_size" yaml:"total_size"`
}

type meta struct {
	Operation   string    `json:"operation" yaml:"operation"`
	Roots       []Root    `json:"roots,omitempty" yaml:"roots,omitempty"`
	DryRun      bool      `json:"dry_run" yaml:"dry_run"`
	Duration    string    `json:"duration,omitempty" yaml:"duration,omitempty"`
	HistoryID   string    `json:"history_id,omitempty" yaml:"history_id,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitzero" yaml:"timestamp,omitempty"`
	Warnings    []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Interrupted bool      `json:"interrupted" yaml:"interrupted"`
}

func buildDocument(r *Result) document {
	manifests := r.Manifests
	if manifests == nil {
		manifests = []Manifest{}
	}
	return document{
		Manifests: manifests,
		Summary: summary{
			Manifests: len(r.Manifests),
			Updated:   r.Count(types.StatusUpdated),
			Unchanged: r.Count(types.StatusUnchanged),
			DryRun:    r.Count(types.StatusDryRun),
			Skipped:   r.Count(types.StatusSkipped),
			Failed:    r.Count(types.StatusFailed),
			Restored:  r.Count(types.StatusRestored),
			TotalSize: r.TotalSize(),
		},
		Meta: meta{
			Operation:   r.Operation,
			Roots:       r.Roots,
			DryRun:      r.DryRun,
			Duration:    formatDurationString(r.Duration),
			HistoryID:   r.HistoryID,
			Timestamp:   r.Timestamp,
			Warnings:    r.Warnings,
			Interrupted: r.Interrupted,
		},
	}
}

// formatDurationString formats a duration for machine-readable output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per manifest, for jq and
// other line-oriented tools.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, m := range r.Manifests {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

var _ Formatter = (*JSONLFormatter)(nil)
