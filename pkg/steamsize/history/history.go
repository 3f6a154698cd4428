package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	// ErrNotFound indicates no entry matches an ID.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguousID indicates an ID prefix matches more than one entry.
	ErrAmbiguousID = errors.New("ambiguous history entry ID")
)

const entryExt = ".json"

// Options describe a run being logged.
type Options struct {
	DryRun   bool
	DiskSize string
	Roots    []string
}

// Store reads and writes history entries as one JSON file per run.
type Store struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// New returns a store rooted at dir. The directory is created on first write.
func New(fs afero.Fs, dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Log writes an entry for op and returns it.
func (s *Store) Log(op Operation, opts Options, records []Record) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if records == nil {
		records = []Record{}
	}

	entry := &Entry{
		ID:        newID(op, now),
		Timestamp: now,
		Operation: op,
		DryRun:    opts.DryRun,
		DiskSize:  opts.DiskSize,
		Roots:     opts.Roots,
		Records:   records,
		Summary:   Summarize(records),
	}

	if err := s.write(entry); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	return entry, nil
}

func (s *Store) write(entry *Entry) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	path := filepath.Join(s.dir, entry.ID+entryExt)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of 0 or less returns all.
// Files that cannot be parsed are skipped.
func (s *Store) List(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals id or, failing that, the single
// entry whose ID starts with id.
func (s *Store) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var matches []Entry
	for _, e := range entries {
		if e.ID == id {
			return &e, nil
		}
		if strings.HasPrefix(e.ID, id) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q matches %d entries", ErrAmbiguousID, id, len(matches))
	}
}

// Cleanup removes entries older than retentionDays and returns how many were
// removed. A retention of 0 or less keeps everything.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read history directory: %w", err)
	}

	removed := 0
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), entryExt) {
			continue
		}

		stamp := info.ModTime()
		if entry, err := s.readFile(info.Name()); err == nil {
			stamp = entry.Timestamp
		}

		if stamp.Before(cutoff) {
			if err := s.fs.Remove(filepath.Join(s.dir, info.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// readAll parses every entry file. Must be called with mu held.
func (s *Store) readAll() ([]Entry, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	entries := []Entry{}
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), entryExt) {
			continue
		}
		entry, err := s.readFile(info.Name())
		if err != nil {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *Store) readFile(name string) (*Entry, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}

// newID returns an ID like "fix-2026-10-19T10-30-00-1b4e28ba".
func newID(op Operation, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", op, now.Format("2006-01-02T15-04-05"), suffix)
}
