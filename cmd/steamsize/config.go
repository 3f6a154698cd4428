package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/config"
	"github.com/jamesainslie/steamsize/pkg/steamsize/library"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage steamsize configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/steamsize/config.yaml (if set)
  2. ~/.config/steamsize/config.yaml

Environment variables override config file settings using the STEAMSIZE_ prefix:
  STEAMSIZE_DISK_SIZE=logical
  STEAMSIZE_WORKERS=4
  STEAMSIZE_HISTORY_ENABLED=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration from all sources, and the library folders it resolves to.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create default configuration file",
	Long:        `Create a default configuration file if one doesn't exist.`,
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show configuration file path",
	Long:        `Display the path to the configuration file.`,
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", configFile)
	} else {
		fmt.Fprintln(out, "Config file: (using defaults, no file found)")
		fmt.Fprintln(out)
	}

	if err := writeSettings(out, viper.AllSettings()); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nLibrary folders:")
	fmt.Fprintln(out, "----------------")
	roots := library.Candidates(afero.NewOsFs(), cfg.Libraries, cfg.Discover)
	if len(roots) == 0 {
		fmt.Fprintln(out, "(none found)")
	}
	for _, root := range roots {
		fmt.Fprintln(out, root)
	}

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	overrides := envOverrides(os.Environ())
	if len(overrides) == 0 {
		fmt.Fprintln(out, "(none)")
	}
	for _, kv := range overrides {
		fmt.Fprintln(out, kv)
	}
	return nil
}

// writeSettings prints settings as YAML. Flag-only keys are left out.
func writeSettings(w io.Writer, settings map[string]interface{}) error {
	for _, key := range []string{"quiet", "verbose", "template"} {
		delete(settings, key)
	}

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(displayable(settings)); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

// displayable renders durations as strings ("2s") rather than nanoseconds.
func displayable(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[k] = displayable(inner)
		}
		return out
	case time.Duration:
		return val.String()
	default:
		return v
	}
}

// envOverrides returns the STEAMSIZE_ variables in environ, sorted.
func envOverrides(environ []string) []string {
	var out []string
	for _, kv := range environ {
		if strings.HasPrefix(kv, "STEAMSIZE_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'steamsize config edit' to modify it.")
		return nil
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
