package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/steamsize/pkg/steamsize/disksize"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// HistoryConfig configures the run history log.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config is the application configuration.
type Config struct {
	// Libraries are steamapps directories to process.
	Libraries []string `mapstructure:"libraries"`

	// Discover adds the default Steam install and every library it lists.
	Discover bool `mapstructure:"discover"`

	// DiskSize is the measurement mode: auto, allocated or logical.
	DiskSize string `mapstructure:"disk_size"`

	// Workers bounds the directory walker; 0 lets it decide.
	Workers int `mapstructure:"workers"`

	DryRun bool   `mapstructure:"dry_run"`
	Output string `mapstructure:"output"`

	History HistoryConfig `mapstructure:"history"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("libraries", []string{})
	v.SetDefault("discover", true)
	v.SetDefault("disk_size", DefaultDiskSize)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("dry_run", false)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("watch.debounce", DefaultDebounce)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", DefaultComponents)
}

// Load reads configuration with a fresh viper instance. See LoadWith.
func Load(configFile string) (*Config, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith reads configuration into v and decodes it. Flags already bound to
// v take precedence over the environment, which takes precedence over the
// config file and the defaults.
//
// If configFile is empty the file is looked up as config.yaml in:
//   - $XDG_CONFIG_HOME/steamsize
//   - $HOME/.config/steamsize
//
// A missing default file is not an error; a missing explicit file is.
// Environment variables are prefixed with STEAMSIZE_ (e.g. STEAMSIZE_DISK_SIZE).
func LoadWith(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, appName))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", appName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// normalize expands ~ in paths and fills derived defaults.
func (c *Config) normalize() error {
	libs := make([]string, 0, len(c.Libraries))
	for _, lib := range c.Libraries {
		if strings.TrimSpace(lib) == "" {
			continue
		}
		expanded, err := ExpandPath(lib)
		if err != nil {
			return err
		}
		libs = append(libs, expanded)
	}
	c.Libraries = libs

	if c.History.Path == "" {
		c.History.Path = DefaultHistoryDir()
	}
	path, err := ExpandPath(c.History.Path)
	if err != nil {
		return err
	}
	c.History.Path = path

	if c.Logging.Path != "" {
		path, err := ExpandPath(c.Logging.Path)
		if err != nil {
			return err
		}
		c.Logging.Path = path
	}

	return nil
}

// Validate checks values that would otherwise fail late, in the middle of
// a run. Errors wrap types.ErrInvalidValue.
func (c *Config) Validate() error {
	if _, err := disksize.ParseMode(c.DiskSize); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", types.ErrInvalidValue, c.Workers)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("%w: history.retention_days must be >= 0, got %d", types.ErrInvalidValue, c.History.RetentionDays)
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("%w: watch.debounce must be positive, got %s", types.ErrInvalidValue, c.Watch.Debounce)
	}
	return nil
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", appName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes the default config file unless one already exists.
// It returns the file path and whether it was created.
func WriteDefault() (string, bool, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultTemplate()), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, true, nil
}

func defaultTemplate() string {
	return fmt.Sprintf(`# steamsize configuration

# steamapps directories to process. Each holds appmanifest_<appid>.acf files
# and a common/ folder with the installed games.
libraries: []
#  - ~/.local/share/Steam/steamapps
#  - /mnt/games/SteamLibrary/steamapps

# Also process the default Steam install and every library listed in its
# libraryfolders.vdf.
discover: true

# How file sizes are measured: auto, allocated or logical.
#   auto       allocated size, falling back to file length when unavailable
#   allocated  allocated size only; files that cannot be measured fail the app
#   logical    file length
disk_size: %s

# Directory walker workers (0 = automatic).
workers: %d

# Report what would change without writing anything.
dry_run: false

# Output format: pretty, plain, json, jsonl, yaml, tsv, csv, markdown.
output: %s

# Run history.
history:
  enabled: true
  # Empty means $XDG_DATA_HOME/steamsize/history
  path: ""
  retention_days: %d

# Watch mode.
watch:
  # How long a manifest must be quiet before it is processed.
  debounce: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: %s
  # Empty means $XDG_STATE_HOME/steamsize/steamsize.log
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 5
    daily: true
  components:
    fixer: info
    disksize: info
    library: info
    watch: info
    cli: info
`, DefaultDiskSize, DefaultWorkers, DefaultOutput, DefaultRetentionDays,
		DefaultDebounce, DefaultLogLevel, DefaultLogMaxSize)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/steamsize.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns $XDG_STATE_HOME/steamsize.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// DefaultHistoryDir returns the default run history directory.
func DefaultHistoryDir() string {
	return filepath.Join(DataDir(), "history")
}
