package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/steamsize/pkg/steamsize/disksize"
	"github.com/jamesainslie/steamsize/pkg/steamsize/fixer"
	"github.com/jamesainslie/steamsize/pkg/steamsize/history"
	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/output"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/jamesainslie/steamsize/pkg/steamsize/watch"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var watchInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch [steamapps-dir...]",
	Short: "Keep manifests corrected as Steam rewrites them",
	Long: `Watch library folders and fix each manifest shortly after Steam writes it.

Steam rewrites a manifest whenever an app is installed, updated or verified,
resetting SizeOnDisk each time. Watch mode waits until a manifest has been
quiet for watch.debounce, then fixes it. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "fix every manifest once before watching")
	rootCmd.AddCommand(watchCmd)
}

// runWatch watches library folders until interrupted.
func runWatch(cmd *cobra.Command, args []string) error {
	roots, err := resolveRoots(afero.NewOsFs(), args, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchInitial {
		err := fix(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), fixParams{
			Roots:    roots,
			DiskSize: cfg.DiskSize,
			Workers:  cfg.Workers,
			DryRun:   cfg.DryRun,
			History:  cfg.History,
			Format:   "template",
			Quiet:    getQuiet(),
		})
		if err != nil && !errors.Is(err, errManifestsFailed) {
			return err
		}
	}

	mode, err := disksize.ParseMode(cfg.DiskSize)
	if err != nil {
		return err
	}
	sizer, err := disksize.New(mode)
	if err != nil {
		return err
	}

	f := fixer.New(fixer.Options{Sizer: sizer, DryRun: cfg.DryRun, Workers: cfg.Workers})
	onResult := func(r fixer.Result) {
		m := output.FromResult(r)
		if m.Status != types.StatusUnchanged || getVerbose() {
			printInfo("%s", output.StatusLine(m))
		}
		if cfg.History.Enabled && m.Status != types.StatusUnchanged {
			opts := history.Options{DryRun: cfg.DryRun, DiskSize: string(mode), Roots: []string{r.Root}}
			if _, err := recordHistory(cfg.History, history.OpFix, opts, []history.Record{output.ToRecord(m)}); err != nil {
				logging.Get("cli").Warn("failed to record history", "error", err)
			}
		}
	}

	w, err := watch.New(f, watch.Options{Debounce: cfg.Watch.Debounce, OnResult: onResult})
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if err := w.Watch(root); err != nil {
			logging.Get("cli").Warn("cannot watch library folder", "root", root, "error", err)
			printVerbose("Skipping %s: %v", root, err)
		}
	}
	if len(w.Roots()) == 0 {
		return fmt.Errorf("none of the %d library folders could be watched", len(roots))
	}

	printInfo("Watching %d library folders. Press Ctrl+C to stop.", len(w.Roots()))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
