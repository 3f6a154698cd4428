// Package output provides formatters for displaying steamsize results
// in various output formats (pretty, plain, json, yaml, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromReport(report)); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// Manifest is the outcome for one manifest, flattened for formatting.
type Manifest struct {
	// Path is the manifest file.
	Path string `json:"path" yaml:"path"`

	AppID      string `json:"appid,omitempty" yaml:"appid,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	InstallDir string `json:"installdir,omitempty" yaml:"installdir,omitempty"`

	Status types.Status `json:"status" yaml:"status"`

	// Reason explains a skipped or failed manifest.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// OldSize is the SizeOnDisk text found in the manifest, verbatim.
	OldSize string `json:"old_size" yaml:"old_size"`

	// NewSize is the measured size in bytes.
	NewSize int64 `json:"new_size" yaml:"new_size"`

	// NewSizeHuman is NewSize in binary units (e.g., "1.5 GiB").
	NewSizeHuman string `json:"new_size_human" yaml:"new_size_human"`

	// Backup is "created", "exists" or empty.
	Backup string `json:"backup,omitempty" yaml:"backup,omitempty"`
}

// Label returns the app name, else the install dir, else the path.
func (m Manifest) Label() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.InstallDir != "":
		return m.InstallDir
	default:
		return m.Path
	}
}

// Sized reports whether the manifest got as far as being measured.
func (m Manifest) Sized() bool {
	switch m.Status {
	case types.StatusUpdated, types.StatusUnchanged, types.StatusDryRun:
		return true
	default:
		return false
	}
}

// Root describes how a library folder was handled.
type Root struct {
	Path      string `json:"path" yaml:"path"`
	Manifests int    `json:"manifests" yaml:"manifests"`
	Skipped   bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Operation is "fix" or "restore".
	Operation string `json:"operation" yaml:"operation"`

	Manifests []Manifest `json:"manifests" yaml:"manifests"`
	Roots     []Root     `json:"roots,omitempty" yaml:"roots,omitempty"`

	DryRun   bool          `json:"dry_run" yaml:"dry_run"`
	Duration time.Duration `json:"duration" yaml:"duration"`

	// HistoryID is the history entry the run was logged under, if any.
	HistoryID string `json:"history_id,omitempty" yaml:"history_id,omitempty"`

	// Timestamp is set when rendering a stored history entry.
	Timestamp time.Time `json:"timestamp,omitzero" yaml:"timestamp,omitempty"`

	// Warnings contains messages that are not tied to a manifest.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Interrupted indicates the run was cancelled before finishing.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// Count returns the number of manifests with the given status.
func (r *Result) Count(status types.Status) int {
	n := 0
	for _, m := range r.Manifests {
		if m.Status == status {
			n++
		}
	}
	return n
}

// TotalSize returns the sum of the measured sizes.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, m := range r.Manifests {
		total += m.NewSize
	}
	return total
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any existing
// formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown output format %q", types.ErrInvalidValue, name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
