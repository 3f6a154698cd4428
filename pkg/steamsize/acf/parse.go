// Package acf reads and patches Steam app manifests (appmanifest_<appid>.acf).
//
// Manifests are brace-delimited, tab-indented KeyValues text. There is no
// grammar here: Parse is a single regexp
// pass that picks up every "key" "value" pair it can find, so truncated or
// otherwise malformed files still yield whatever pairs are intact. Patch edits
// one field in place and leaves every other byte of the text alone.
package acf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
)

// Well-known manifest keys.
const (
	KeyAppID      = "appid"
	KeyName       = "name"
	KeyInstallDir = "installdir"
	KeySizeOnDisk = "SizeOnDisk"
)

// pairPattern matches a quoted key, whitespace, and a quoted value.
// Neither side may be empty or contain a quote.
var pairPattern = regexp.MustCompile(`"([^"]+)"\s+"([^"]+)"`)

// Pair is a single "key" "value" match in manifest text.
type Pair struct {
	Key   string
	Value string

	// Start and End are the byte offsets of the whole match in the text.
	Start int
	End   int
}

// Scan returns every non-overlapping key/value pair in raw, in text order.
// Nesting is ignored, so pairs from nested blocks are returned alongside
// top-level ones.
func Scan(raw string) []Pair {
	matches := pairPattern.FindAllStringSubmatchIndex(raw, -1)
	pairs := make([]Pair, 0, len(matches))
	for _, m := range matches {
		pairs = append(pairs, Pair{
			Key:   raw[m[2]:m[3]],
			Value: raw[m[4]:m[5]],
			Start: m[0],
			End:   m[1],
		})
	}
	return pairs
}

// Parse extracts a flat key/value mapping from raw. When a key appears more
// than once the last occurrence wins. Parse never fails; text with no
// recognizable pairs yields an empty map.
func Parse(raw string) map[string]string {
	fields := make(map[string]string)
	for _, p := range Scan(raw) {
		fields[p.Key] = p.Value
	}
	return fields
}

// Record is a manifest as loaded from storage: its exact text plus the
// fields parsed from it. Fields is derived from Raw and is never written back.
type Record struct {
	Path   string
	Raw    string
	Fields map[string]string
}

// NewRecord builds a Record from text already in memory.
func NewRecord(path, raw string) *Record {
	return &Record{
		Path:   path,
		Raw:    raw,
		Fields: Parse(raw),
	}
}

// Load reads and parses the manifest at path.
// The only possible failure is the read itself, reported as types.ErrIO.
func Load(fs afero.Fs, path string) (*Record, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest %s: %w", types.ErrIO, path, err)
	}
	return NewRecord(path, string(data)), nil
}

// Get returns the value for key and whether it was present with a
// non-blank value.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.Fields[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Require returns the value for key or an error wrapping types.ErrMissingField.
func (r *Record) Require(key string) (string, error) {
	v, ok := r.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %q not found in %s", types.ErrMissingField, key, r.Path)
	}
	return v, nil
}

// Size returns the raw recorded SizeOnDisk value, or "" if absent.
func (r *Record) Size() string {
	return r.Fields[KeySizeOnDisk]
}
