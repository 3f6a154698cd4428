package disksize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"go.uber.org/multierr"
)

// FileError pairs a path with the error encountered while sizing it.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Total is the result of sizing a directory tree.
type Total struct {
	Root    string
	Bytes   int64
	Files   int64
	Dirs    int64
	Elapsed time.Duration

	// Errors holds per-entry failures, sorted by path. The tree is still
	// walked to completion; Bytes excludes the entries that failed.
	Errors []FileError
}

// Err combines Errors into a single error, or returns nil.
func (t Total) Err() error {
	var err error
	for _, e := range t.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

// walker accumulates sizes from concurrent fastwalk callbacks.
type walker struct {
	sizer Sizer

	bytes atomic.Int64
	files atomic.Int64
	dirs  atomic.Int64

	errMu  sync.Mutex
	errors []FileError
}

// DirSize sums the on-disk size of every regular file under root.
//
// Symlinks are not followed and contribute nothing. Subdirectories are
// walked in parallel by up to workers goroutines (0 uses the fastwalk
// default). Errors on individual entries are collected in Total.Errors.
// DirSize itself fails only when root is not a readable directory or ctx is
// cancelled.
func DirSize(ctx context.Context, root string, sizer Sizer, workers int) (Total, error) {
	start := time.Now()

	resolved, err := resolveRoot(root)
	if err != nil {
		return Total{Root: root}, err
	}

	w := &walker{sizer: sizer}
	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: workers,
	}

	walkErr := fastwalk.Walk(&conf, resolved, w.callback(ctx))

	total := Total{
		Root:    root,
		Bytes:   w.bytes.Load(),
		Files:   w.files.Load(),
		Dirs:    w.dirs.Load(),
		Elapsed: time.Since(start),
		Errors:  w.errors,
	}
	sort.Slice(total.Errors, func(i, j int) bool {
		return total.Errors[i].Path < total.Errors[j].Path
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return total, ctxErr
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return total, fmt.Errorf("%w: walking %s: %w", types.ErrIO, root, walkErr)
	}
	return total, nil
}

// resolveRoot follows a symlinked root and checks that it is a directory.
func resolveRoot(root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", types.ErrInstallDirNotFound, root)
		}
		return "", fmt.Errorf("%w: resolving %s: %w", types.ErrIO, root, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %w", types.ErrIO, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", types.ErrInstallDirNotFound, root)
	}
	return resolved, nil
}

func (w *walker) callback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			w.addError(path, err)
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		switch typ := d.Type(); {
		case typ.IsDir():
			w.dirs.Add(1)
		case typ.IsRegular():
			n, err := w.sizer.DiskSize(path)
			if err != nil {
				w.addError(path, err)
				return nil
			}
			w.files.Add(1)
			w.bytes.Add(n)
		}
		return nil
	}
}

func (w *walker) addError(path string, err error) {
	w.errMu.Lock()
	w.errors = append(w.errors, FileError{Path: path, Err: err})
	w.errMu.Unlock()
}
