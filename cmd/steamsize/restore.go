package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/acf"
	"github.com/jamesainslie/steamsize/pkg/steamsize/backup"
	"github.com/jamesainslie/steamsize/pkg/steamsize/config"
	"github.com/jamesainslie/steamsize/pkg/steamsize/history"
	"github.com/jamesainslie/steamsize/pkg/steamsize/library"
	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/output"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [manifest|steamapps-dir...]",
	Short: "Restore manifests from their .bak backups",
	Long: `Copy each <manifest>.bak back over its manifest, undoing every change
steamsize made to it. Backups are kept, so a restore can be repeated.

Arguments may be manifest files or library folders. With no arguments every
manifest with a backup in the configured and discovered libraries is restored.
Use --dry-run to list what would be restored.`,
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

// runRestore restores manifests from their backups.
func runRestore(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()

	targets, err := restoreTargets(fs, args, cfg)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		printInfo("No manifest backups found.")
		return nil
	}

	formatter, err := formatterFor(cfg.Output, viper.GetString("template"))
	if err != nil {
		return err
	}

	start := time.Now()
	result := &output.Result{
		Operation: string(history.OpRestore),
		Manifests: restoreManifests(fs, targets, cfg.DryRun),
		DryRun:    cfg.DryRun,
	}
	result.Duration = time.Since(start)

	if cfg.History.Enabled && !cfg.DryRun {
		records := make([]history.Record, 0, len(result.Manifests))
		for _, m := range result.Manifests {
			records = append(records, output.ToRecord(m))
		}
		id, err := recordHistory(cfg.History, history.OpRestore, history.Options{}, records)
		if err != nil {
			logging.Get("cli").Warn("failed to record history", "error", err)
		} else {
			result.HistoryID = id
		}
	}

	if !getQuiet() {
		if err := render(cmd.OutOrStdout(), formatter, result); err != nil {
			return err
		}
	}

	if failed := result.Count(types.StatusFailed); failed > 0 {
		return fmt.Errorf("%w: %d of %d", errManifestsFailed, failed, len(result.Manifests))
	}
	return nil
}

// restoreTargets expands args into manifest paths. Directories contribute
// every manifest that has a backup. Files are taken as given, with a
// trailing .bak removed.
func restoreTargets(fs afero.Fs, args []string, c *config.Config) ([]string, error) {
	var inputs []string
	if len(args) == 0 {
		roots, err := resolveRoots(fs, nil, c)
		if err != nil {
			return nil, err
		}
		inputs = roots
	} else {
		for _, arg := range args {
			expanded, err := config.ExpandPath(arg)
			if err != nil {
				return nil, err
			}
			abs, err := filepath.Abs(expanded)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
			}
			inputs = append(inputs, abs)
		}
	}

	seen := make(map[string]bool)
	var targets []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			targets = append(targets, path)
		}
	}

	for _, input := range inputs {
		if !library.IsDir(fs, input) {
			add(strings.TrimSuffix(input, backup.Suffix))
			continue
		}

		manifests, err := library.FindManifests(fs, steamappsDir(fs, input))
		if err != nil {
			logging.Get("cli").Warn("skipping library folder", "root", input, "error", err)
			continue
		}
		for _, m := range manifests {
			if ok, err := backup.Exists(fs, m); err == nil && ok {
				add(m)
			}
		}
	}
	return targets, nil
}

// restoreManifests restores each path from its backup, or only checks that
// a backup exists when dryRun is set.
func restoreManifests(fs afero.Fs, paths []string, dryRun bool) []output.Manifest {
	manifests := make([]output.Manifest, 0, len(paths))
	for _, path := range paths {
		manifests = append(manifests, restoreOne(fs, path, dryRun))
	}
	return manifests
}

func restoreOne(fs afero.Fs, path string, dryRun bool) output.Manifest {
	m := output.Manifest{Path: path}
	m.AppID, _ = library.AppIDFromPath(path)

	if current, err := acf.Load(fs, path); err == nil {
		m.OldSize = current.Size()
	}

	saved, err := acf.Load(fs, backup.Path(path))
	if err != nil {
		m.Status = types.StatusFailed
		m.Reason = fmt.Sprintf("no backup at %s", backup.Path(path))
		return m
	}
	m.Name, _ = saved.Get(acf.KeyName)
	m.InstallDir, _ = saved.Get(acf.KeyInstallDir)
	if n, err := strconv.ParseInt(saved.Size(), 10, 64); err == nil && n >= 0 {
		m.NewSize = n
	}
	m.NewSizeHuman = types.FormatSize(m.NewSize)

	if dryRun {
		m.Status = types.StatusDryRun
		return m
	}

	if err := backup.Restore(fs, path); err != nil {
		m.Status = types.StatusFailed
		m.Reason = err.Error()
		logging.Get("cli").Error("restore failed", "manifest", path, "error", err)
		return m
	}

	m.Status = types.StatusRestored
	logging.Get("cli").Info("manifest restored", "manifest", path)
	return m
}
