package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/steamsize/pkg/steamsize/config"
	"github.com/jamesainslie/steamsize/pkg/steamsize/logging"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/cobra"
)

// initializeLogging creates the XDG directories and configures the log file
// from cfg. With --verbose, log records are mirrored to stderr.
func initializeLogging(_ *cobra.Command, _ []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logCfg := logging.DefaultConfig()
	if cfg != nil {
		logCfg.Level = cfg.Logging.Level
		logCfg.Path = cfg.Logging.Path
		logCfg.Rotation = parseRotationConfig(cfg.Logging.Rotation)
		logCfg.Components = cfg.Logging.Components
	}
	logCfg.ConsoleLevel = consoleLevel(getVerbose(), getQuiet())

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// consoleLevel picks the level mirrored to stderr. Normal runs report
// through the formatted output only.
func consoleLevel(verbose, quiet bool) string {
	if verbose && !quiet {
		return "debug"
	}
	return ""
}

// parseRotationConfig converts the config file's rotation settings. An empty
// or invalid max_size falls back to the default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.DefaultRotationConfig()
	if rc.MaxSize != "" {
		if size, err := types.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}
	out.MaxAge = rc.MaxAge
	out.MaxBackups = rc.MaxBackups
	out.Daily = rc.Daily
	return out
}
