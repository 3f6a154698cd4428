// Package fixer reconciles the SizeOnDisk field of Steam app manifests with
// the measured size of each app's install directory.
//
// For every manifest it reads and parses the file, resolves
// <library>/common/<installdir>, measures it, patches the field and, when the
// text actually changes, backs the manifest up once and writes the new text
// in place. Failures are isolated per manifest: a broken file never stops
// the rest of the batch.
package fixer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/acf"
	"github.com/jamesainslie/steamsize/pkg/steamsize/backup"
	"github.com/jamesainslie/steamsize/pkg/steamsize/disksize"
	"github.com/jamesainslie/steamsize/pkg/steamsize/library"
	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
)

// Options configures a Fixer.
type Options struct {
	// Fs is used for manifests, backups and install dir lookup. Nil means
	// the OS filesystem. Install dirs are always measured on the OS
	// filesystem, so Fs must present the same paths.
	Fs afero.Fs

	// Sizer measures files. Nil means allocated size with logical fallback.
	Sizer disksize.Sizer

	// DryRun computes every change but writes nothing, not even backups.
	DryRun bool

	// Workers bounds the directory walker. 0 lets it decide.
	Workers int

	// OnResult, if set, is called after each manifest is processed.
	OnResult func(Result)
}

// Fixer processes manifests one at a time.
type Fixer struct {
	fs       afero.Fs
	sizer    disksize.Sizer
	dryRun   bool
	workers  int
	onResult func(Result)
	logger   *logging.Logger
}

// New creates a Fixer.
func New(opts Options) *Fixer {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	sizer := opts.Sizer
	if sizer == nil {
		sizer = disksize.WithFallback(disksize.Allocated(), disksize.Logical())
	}
	return &Fixer{
		fs:       fs,
		sizer:    sizer,
		dryRun:   opts.DryRun,
		workers:  opts.Workers,
		onResult: opts.OnResult,
		logger:   logging.Get("fixer"),
	}
}

// DryRun reports whether the Fixer writes nothing.
func (f *Fixer) DryRun() bool {
	return f.dryRun
}

// Run processes every manifest in every root, in order. Roots that are
// missing or cannot be listed are recorded and skipped. Cancelling ctx stops
// the run between manifests.
func (f *Fixer) Run(ctx context.Context, roots []string) Report {
	start := time.Now()
	report := Report{DryRun: f.dryRun}

	for _, root := range roots {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		rr := RootResult{Path: root}
		if !library.IsDir(f.fs, root) {
			rr.Skipped = true
			rr.Reason = "library folder not found"
			f.logger.Warn("skipping missing library folder", "root", root)
			report.Roots = append(report.Roots, rr)
			continue
		}

		manifests, err := library.FindManifests(f.fs, root)
		if err != nil {
			rr.Skipped = true
			rr.Reason = "cannot list library folder"
			rr.Err = err
			f.logger.Error("cannot list library folder", "root", root, "error", err)
			report.Roots = append(report.Roots, rr)
			continue
		}
		rr.Manifests = len(manifests)
		report.Roots = append(report.Roots, rr)

		for _, path := range manifests {
			if ctx.Err() != nil {
				report.Interrupted = true
				break
			}
			report.Results = append(report.Results, f.Process(ctx, path))
		}
	}

	report.Elapsed = time.Since(start)
	f.logger.Info("run complete",
		"roots", len(report.Roots),
		"manifests", len(report.Results),
		"updated", report.Count(types.StatusUpdated),
		"failed", report.Count(types.StatusFailed),
		"dry_run", f.dryRun,
		"elapsed", report.Elapsed,
	)
	return report
}

// Process reconciles a single manifest. The library root is the directory
// containing the manifest.
func (f *Fixer) Process(ctx context.Context, path string) Result {
	start := time.Now()
	res := f.process(ctx, path)
	res.Elapsed = time.Since(start)

	f.log(res)
	if f.onResult != nil {
		f.onResult(res)
	}
	return res
}

func (f *Fixer) process(ctx context.Context, path string) Result {
	root := filepath.Dir(path)
	res := Result{Path: path, Root: root}

	rec, err := acf.Load(f.fs, path)
	if err != nil {
		return fail(res, "cannot read manifest", err)
	}
	res.AppID, _ = rec.Get(acf.KeyAppID)
	res.Name, _ = rec.Get(acf.KeyName)
	res.OldSize = rec.Size()

	installDir, err := rec.Require(acf.KeyInstallDir)
	if err != nil {
		return skip(res, "no installdir in manifest", err)
	}
	res.InstallDir = installDir

	installPath, err := library.ResolveInstallDir(f.fs, root, installDir)
	if err != nil {
		if errors.Is(err, types.ErrInstallDirNotFound) || errors.Is(err, types.ErrInvalidValue) {
			return skip(res, "install folder not found: "+library.InstallPath(root, installDir), err)
		}
		return fail(res, "cannot resolve install folder", err)
	}
	res.InstallPath = installPath

	total, err := disksize.DirSize(ctx, installPath, f.sizer, f.workers)
	if err != nil {
		if errors.Is(err, types.ErrInstallDirNotFound) {
			return skip(res, "install folder not found: "+installPath, err)
		}
		return fail(res, "cannot measure install folder", err)
	}
	if len(total.Errors) > 0 {
		return fail(res,
			fmt.Sprintf("%d of %d files could not be measured", len(total.Errors), total.Files+int64(len(total.Errors))),
			total.Err())
	}
	res.NewSize = total.Bytes
	res.Files = total.Files

	patched, err := acf.PatchSize(rec.Raw, total.Bytes)
	if err != nil {
		return fail(res, "cannot patch manifest", err)
	}

	if patched == rec.Raw {
		res.Status = types.StatusUnchanged
		return res
	}

	if f.dryRun {
		res.Status = types.StatusDryRun
		return res
	}

	outcome, err := backup.EnsureBackup(f.fs, path)
	res.Backup = outcome
	if err != nil {
		return fail(res, "cannot back up manifest", err)
	}

	if err := backup.WriteFile(f.fs, path, []byte(patched)); err != nil {
		return fail(res, "cannot write manifest", err)
	}

	res.Status = types.StatusUpdated
	return res
}

func fail(res Result, reason string, err error) Result {
	res.Status = types.StatusFailed
	res.Reason = reason
	res.Err = err
	return res
}

func skip(res Result, reason string, err error) Result {
	res.Status = types.StatusSkipped
	res.Reason = reason
	res.Err = err
	return res
}

func (f *Fixer) log(res Result) {
	logger := f.logger.With("manifest", res.Path, "status", string(res.Status))
	switch res.Status {
	case types.StatusFailed:
		logger.Error(res.Reason, "error", res.Err)
	case types.StatusSkipped:
		logger.Warn(res.Reason, "error", res.Err)
	case types.StatusUpdated:
		logger.Info("manifest updated",
			"installdir", res.InstallDir, "old", res.OldSize, "new", res.NewSize, "backup", res.Backup.String())
	default:
		logger.Debug("manifest checked",
			"installdir", res.InstallDir, "old", res.OldSize, "new", res.NewSize)
	}
}
