package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jamesainslie/steamsize/pkg/steamsize/config"
	"github.com/jamesainslie/steamsize/pkg/steamsize/disksize"
	"github.com/jamesainslie/steamsize/pkg/steamsize/fixer"
	"github.com/jamesainslie/steamsize/pkg/steamsize/history"
	"github.com/jamesainslie/steamsize/pkg/steamsize/library"
	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/output"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errNoLibraries is returned when there is nothing to process.
var errNoLibraries = errors.New("no Steam library folders found: pass a steamapps directory or set libraries in the config file")

// fixParams is a fix run resolved from flags and configuration.
type fixParams struct {
	Roots    []string
	DiskSize string
	Workers  int
	DryRun   bool
	History  config.HistoryConfig
	Format   string
	Template string
	Quiet    bool
}

// runFix is the root command handler.
func runFix(cmd *cobra.Command, args []string) error {
	roots, err := resolveRoots(afero.NewOsFs(), args, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fix(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), fixParams{
		Roots:    roots,
		DiskSize: cfg.DiskSize,
		Workers:  cfg.Workers,
		DryRun:   cfg.DryRun,
		History:  cfg.History,
		Format:   cfg.Output,
		Template: viper.GetString("template"),
		Quiet:    getQuiet(),
	})
}

// fix runs the fixer over p.Roots, records the run and renders the report.
func fix(ctx context.Context, out, errOut io.Writer, p fixParams) error {
	formatter, err := formatterFor(p.Format, p.Template)
	if err != nil {
		return err
	}

	mode, err := disksize.ParseMode(p.DiskSize)
	if err != nil {
		return err
	}
	sizer, err := disksize.New(mode)
	if err != nil {
		return err
	}

	f := fixer.New(fixer.Options{
		Sizer:   sizer,
		DryRun:  p.DryRun,
		Workers: p.Workers,
		OnResult: func(r fixer.Result) {
			printVerbose("%s", output.StatusLine(output.FromResult(r)))
		},
	})

	printVerbose("Processing %d library folders (disk size: %s)", len(p.Roots), mode)
	report := f.Run(ctx, p.Roots)
	result := output.FromReport(report)

	if p.History.Enabled {
		id, err := recordHistory(p.History, history.OpFix, history.Options{
			DryRun:   p.DryRun,
			DiskSize: string(mode),
			Roots:    p.Roots,
		}, output.Records(report))
		if err != nil {
			logging.Get("cli").Warn("failed to record history", "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("history not recorded: %v", err))
		} else {
			result.HistoryID = id
		}
	}

	if p.Quiet {
		for _, m := range result.Manifests {
			if m.Status == types.StatusFailed {
				fmt.Fprintln(errOut, output.StatusLine(m))
			}
		}
	} else if err := render(out, formatter, result); err != nil {
		return err
	}

	switch {
	case report.Interrupted:
		return fmt.Errorf("run interrupted: %w", context.Canceled)
	case report.Failed():
		return fmt.Errorf("%w: %d of %d", errManifestsFailed,
			report.Count(types.StatusFailed), len(report.Results))
	}
	return nil
}

// resolveRoots returns the library folders to process: the arguments when
// given, else the configured and discovered libraries.
func resolveRoots(fs afero.Fs, args []string, c *config.Config) ([]string, error) {
	if len(args) > 0 {
		roots := make([]string, 0, len(args))
		for _, arg := range args {
			expanded, err := config.ExpandPath(arg)
			if err != nil {
				return nil, err
			}
			abs, err := filepath.Abs(expanded)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
			}
			roots = append(roots, steamappsDir(fs, abs))
		}
		return roots, nil
	}

	var configured []string
	discover := true
	if c != nil {
		configured = c.Libraries
		discover = c.Discover
	}
	roots := library.Candidates(fs, configured, discover)
	if len(roots) == 0 {
		return nil, errNoLibraries
	}
	return roots, nil
}

// steamappsDir accepts a Steam install or library folder in place of its
// steamapps directory.
func steamappsDir(fs afero.Fs, dir string) string {
	if filepath.Base(dir) == "steamapps" || library.IsDir(fs, filepath.Join(dir, library.CommonDir)) {
		return dir
	}
	if nested := filepath.Join(dir, "steamapps"); library.IsDir(fs, nested) {
		return nested
	}
	return dir
}

// formatterFor returns the formatter for -o, defaulting to pretty.
func formatterFor(format, tmpl string) (output.Formatter, error) {
	if format == "" {
		format = config.DefaultOutput
	}
	if format == "template" && tmpl != "" {
		return output.NewTemplateFormatter(tmpl), nil
	}
	return output.Get(format)
}

// render formats r and writes it to out.
func render(out io.Writer, f output.Formatter, r *output.Result) error {
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err := buf.WriteTo(out)
	return err
}

// recordHistory logs a run and prunes entries past retention. It returns
// the new entry ID.
func recordHistory(hc config.HistoryConfig, op history.Operation, opts history.Options, records []history.Record) (string, error) {
	store, err := history.New(afero.NewOsFs(), hc.Path)
	if err != nil {
		return "", err
	}

	entry, err := store.Log(op, opts, records)
	if err != nil {
		return "", err
	}

	if removed, err := store.Cleanup(hc.RetentionDays); err != nil {
		logging.Get("cli").Warn("history cleanup failed", "error", err)
	} else if removed > 0 {
		logging.Get("cli").Debug("pruned history entries", "removed", removed)
	}
	return entry.ID, nil
}
