package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/steamsize/pkg/steamsize/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errManifestsFailed is returned when a run finished but at least one
// manifest failed. The failures have already been reported.
var errManifestsFailed = errors.New("one or more manifests failed")

// skipConfig marks commands that must work without a valid configuration.
const skipConfig = "skip-config"

var (
	cfgFile   string
	noHistory bool
	cfg       *config.Config

	rootCmd = &cobra.Command{
		Use:   "steamsize [steamapps-dir...]",
		Short: "Correct SizeOnDisk in Steam app manifests",
		Long: `Steamsize sets the SizeOnDisk field of every Steam app manifest to the
space the app's install folder actually occupies on disk.

Steam records the logical size of each install. On filesystems with
transparent compression the allocated size can be much smaller, and Steam
then reports the wrong free space. Each manifest is backed up to
<manifest>.bak before it is first changed.

With no arguments, the libraries from the config file are processed, plus the
default Steam install and every library it knows about when discovery is on.

Examples:
  steamsize                                  # Fix every known library
  steamsize ~/.local/share/Steam/steamapps   # Fix one library
  steamsize --dry-run -o plain               # Show what would change
  steamsize restore                          # Undo using the .bak files
  steamsize watch                            # Keep manifests corrected
  steamsize history                          # View past runs`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initialize,
		RunE:              runFix,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/steamsize/config.yaml)")
	flags.StringP("disk-size", "m", "", "size measurement: auto, allocated or logical")
	flags.IntP("workers", "w", 0, "directory walker workers (0=auto)")
	flags.Bool("discover", true, "also process the default Steam install and its libraries")
	flags.BoolP("dry-run", "n", false, "show what would change without writing anything")
	flags.StringP("output", "o", "", "output format (pretty, plain, json, jsonl, yaml, tsv, csv, markdown, template)")
	flags.String("template", "", "Go template used with -o template")
	flags.BoolVar(&noHistory, "no-history", false, "do not record this run in the history")
	flags.BoolP("quiet", "q", false, "minimal output")
	flags.BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("disk_size", flags.Lookup("disk-size"))
	_ = viper.BindPFlag("workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("discover", flags.Lookup("discover"))
	_ = viper.BindPFlag("dry_run", flags.Lookup("dry-run"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("template", flags.Lookup("template"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

// initialize loads configuration and starts logging before any command runs.
func initialize(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	if noHistory {
		viper.Set("history.enabled", false)
	}

	loaded, err := config.LoadWith(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	return initializeLogging(cmd, nil)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errManifestsFailed) && !errors.Is(err, context.Canceled) {
		printError("%v", err)
	}
	return err
}

// exitCode maps the result of Execute to a process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
