// Package watch re-runs the fixer whenever Steam rewrites a manifest.
//
// Steam rewrites appmanifest files when an app is installed, updated or
// verified, and each rewrite resets SizeOnDisk to the logical size. A Watcher
// observes library roots with fsnotify, debounces bursts of events per
// manifest and hands settled manifests to a Processor one at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/steamsize/pkg/steamsize/fixer"
	"github.com/jamesainslie/steamsize/pkg/steamsize/library"
	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// DefaultDebounce is how long a manifest must be quiet before it is processed.
const DefaultDebounce = 2 * time.Second

// ErrClosed is returned when using a Watcher after Close.
var ErrClosed = errors.New("watcher closed")

// Processor reconciles a single manifest. *fixer.Fixer satisfies it.
type Processor interface {
	Process(ctx context.Context, path string) fixer.Result
}

// Options configures a Watcher.
type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// OnResult, if set, is called with every result the Watcher produces.
	OnResult func(fixer.Result)
}

// stamp identifies a version of a file well enough to recognize our own
// writes coming back as events.
type stamp struct {
	size    int64
	modTime int64
}

func stampOf(info os.FileInfo) stamp {
	return stamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
}

// Watcher watches library roots for manifest changes.
type Watcher struct {
	proc     Processor
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onResult func(fixer.Result)
	logger   *logging.Logger

	mu      sync.Mutex
	roots   map[string]bool
	pending map[string]time.Time
	written map[string]stamp
	closed  bool
}

// New creates a Watcher that feeds proc.
func New(proc Processor, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		proc:     proc,
		fsw:      fsw,
		debounce: debounce,
		onResult: opts.OnResult,
		logger:   logging.Get("watch"),
		roots:    make(map[string]bool),
		pending:  make(map[string]time.Time),
		written:  make(map[string]stamp),
	}, nil
}

// Watch adds a library root. Manifests live directly in the root, so
// subdirectories are not watched.
func (w *Watcher) Watch(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %w", types.ErrIO, root, err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", types.ErrInstallDirNotFound, abs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.roots[abs] {
		return nil
	}

	if err := w.fsw.Add(abs); err != nil {
		return fmt.Errorf("%w: watching %s: %w", types.ErrIO, abs, err)
	}
	w.roots[abs] = true
	w.logger.Info("watching library folder", "root", abs)
	return nil
}

// Roots returns the watched roots, sorted.
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	roots := make([]string, 0, len(w.roots))
	for r := range w.roots {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	return roots
}

// Run processes events until ctx is cancelled or the Watcher is closed.
// Manifests are processed sequentially on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, time.Now())

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			w.flush(ctx, time.Now())
			timer.Reset(w.debounce / 2)
		}
	}
}

// handleEvent queues manifest creates and writes. Rename into place shows up
// as a create for the new name.
func (w *Watcher) handleEvent(event fsnotify.Event, now time.Time) {
	if !library.IsManifest(filepath.Base(event.Name)) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		w.mu.Lock()
		w.pending[event.Name] = now
		w.mu.Unlock()
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.mu.Lock()
		delete(w.pending, event.Name)
		delete(w.written, event.Name)
		w.mu.Unlock()
	}
}

// due removes and returns the pending manifests that have been quiet for the
// debounce interval.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for _, path := range w.due(now) {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, path)
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.logger.Debug("manifest vanished before processing", "manifest", path)
		return
	}

	w.mu.Lock()
	own, ok := w.written[path]
	w.mu.Unlock()
	if ok && own == stampOf(info) {
		w.logger.Debug("ignoring own write", "manifest", path)
		return
	}

	res := w.proc.Process(ctx, path)

	if res.Status == types.StatusUpdated {
		if info, err := os.Stat(path); err == nil {
			w.mu.Lock()
			w.written[path] = stampOf(info)
			w.mu.Unlock()
		}
	}

	if w.onResult != nil {
		w.onResult(res)
	}
}

// Close stops watching. Run returns once the event channels are closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.roots = make(map[string]bool)
	return w.fsw.Close()
}
