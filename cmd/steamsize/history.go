package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/steamsize/pkg/steamsize/config"
	"github.com/jamesainslie/steamsize/pkg/steamsize/history"
	"github.com/jamesainslie/steamsize/pkg/steamsize/output"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Long: `View the history of fix and restore runs.

Every run records which manifests were changed, from what size to what size,
and which ones were skipped or failed.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a run",
	Long:  `Display every manifest of a run. The ID may be abbreviated to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries",
	Long:  `Remove history entries older than history.retention_days.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// historyStore opens the configured history directory.
func historyStore() (*history.Store, error) {
	dir := config.DefaultHistoryDir()
	if cfg != nil && cfg.History.Path != "" {
		dir = cfg.History.Path
	}
	return history.New(afero.NewOsFs(), dir)
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, _ []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'steamsize' to fix your library manifests.")
		return nil
	}

	writeHistoryTable(cmd.OutOrStdout(), entries)
	printInfo("\nUse 'steamsize history show <id>' for details on a specific entry.")
	return nil
}

// writeHistoryTable prints one row per entry.
func writeHistoryTable(w io.Writer, entries []history.Entry) {
	fmt.Fprintf(w, "%-44s  %-19s  %-8s  %9s  %7s  %6s  %10s\n",
		"ID", "TIME", "TYPE", "MANIFESTS", "CHANGED", "FAILED", "SIZE")
	fmt.Fprintln(w, strings.Repeat("-", 115))

	for _, e := range entries {
		op := string(e.Operation)
		if e.DryRun {
			op += "*"
		}
		changed := e.Summary.Updated + e.Summary.Restored + e.Summary.DryRun
		fmt.Fprintf(w, "%-44s  %-19s  %-8s  %9d  %7d  %6d  %10s\n",
			truncateString(e.ID, 44),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			op,
			e.Summary.Manifests,
			changed,
			e.Summary.Failed,
			types.FormatSize(e.Summary.Bytes),
		)
	}
}

// runHistoryShow displays every manifest of one run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	entry, err := store.Get(args[0])
	if err != nil {
		return err
	}

	format := config.DefaultOutput
	if cfg != nil {
		format = cfg.Output
	}
	formatter, err := formatterFor(format, viper.GetString("template"))
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), formatter, output.FromEntry(entry))
}

// runHistoryClean removes entries past retention.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	retentionDays := config.DefaultRetentionDays
	if cfg != nil && cfg.History.RetentionDays > 0 {
		retentionDays = cfg.History.RetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)
	removed, err := store.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
