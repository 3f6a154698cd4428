package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate points HOME and XDG_CONFIG_HOME at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Libraries)
	assert.True(t, cfg.Discover)
	assert.Equal(t, DefaultDiskSize, cfg.DiskSize)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, DefaultHistoryDir(), cfg.History.Path)
	assert.Equal(t, DefaultRetentionDays, cfg.History.RetentionDays)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogMaxSize, cfg.Logging.Rotation.MaxSize)
	assert.Equal(t, 5, cfg.Logging.Rotation.MaxBackups)
	assert.Equal(t, "info", cfg.Logging.Components["fixer"])
}

func TestLoad_FromHomeConfig(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "steamsize"), `
libraries:
  - ~/SteamLibrary/steamapps
  - /mnt/games/steamapps
discover: false
disk_size: logical
workers: 3
dry_run: true
output: json
history:
  enabled: false
  path: ~/history
  retention_days: 7
watch:
  debounce: 500ms
logging:
  level: debug
  rotation:
    max_size: 1MB
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(home, "SteamLibrary", "steamapps"),
		"/mnt/games/steamapps",
	}, cfg.Libraries)
	assert.False(t, cfg.Discover)
	assert.Equal(t, "logical", cfg.DiskSize)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "json", cfg.Output)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(home, "history"), cfg.History.Path)
	assert.Equal(t, 7, cfg.History.RetentionDays)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "1MB", cfg.Logging.Rotation.MaxSize)
}

func TestLoad_XDGConfigHome(t *testing.T) {
	home := isolate(t)
	xdgHome := filepath.Join(home, "xdg-config")
	t.Setenv("XDG_CONFIG_HOME", xdgHome)
	writeConfig(t, filepath.Join(xdgHome, "steamsize"), "workers: 9\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Workers)
}

func TestLoad_ExplicitFile(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, filepath.Join(home, "elsewhere"), "output: yaml\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)

	_, err = Load(filepath.Join(home, "missing.yaml"))
	require.Error(t, err, "an explicit config file must exist")
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("STEAMSIZE_DISK_SIZE", "allocated")
	t.Setenv("STEAMSIZE_WORKERS", "2")
	t.Setenv("STEAMSIZE_HISTORY_RETENTION_DAYS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "allocated", cfg.DiskSize)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.History.RetentionDays)
}

func TestLoadWith_SetOverridesFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "steamsize"), "dry_run: false\n")

	v := viper.New()
	v.Set("dry_run", true)

	cfg, err := LoadWith(v, "")
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"disk size":      "disk_size: compressed\n",
		"workers":        "workers: -1\n",
		"retention":      "history:\n  retention_days: -5\n",
		"debounce":       "watch:\n  debounce: 0s\n",
		"malformed yaml": "workers: [\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			home := isolate(t)
			writeConfig(t, filepath.Join(home, ".config", "steamsize"), content)

			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{DiskSize: "auto", Watch: WatchConfig{Debounce: time.Second}}
	require.NoError(t, cfg.Validate())

	cfg.Workers = -2
	require.ErrorIs(t, cfg.Validate(), types.ErrInvalidValue)
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		dir, err := ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/custom/config", "steamsize"), dir)
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		home := isolate(t)
		dir, err := ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "steamsize"), dir)

		path, err := ConfigPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "config.yaml"), path)
	})
}

func TestWriteDefault(t *testing.T) {
	t.Run("creates a loadable config", func(t *testing.T) {
		home := isolate(t)

		path, created, err := WriteDefault()
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, filepath.Join(home, ".config", "steamsize", "config.yaml"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)

		var parsed map[string]interface{}
		require.NoError(t, yaml.Unmarshal(content, &parsed))
		assert.Equal(t, DefaultDiskSize, parsed["disk_size"])

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
		assert.True(t, cfg.Discover)
	})

	t.Run("does not overwrite existing config", func(t *testing.T) {
		home := isolate(t)
		existing := "# mine\nworkers: 4\n"
		path := writeConfig(t, filepath.Join(home, ".config", "steamsize"), existing)

		got, created, err := WriteDefault()
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, path, got)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, existing, string(content))
	})
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	tests := []struct {
		input string
		want  string
	}{
		{input: "~/SteamLibrary", want: filepath.Join(home, "SteamLibrary")},
		{input: "~", want: home},
		{input: "~/", want: home},
		{input: "/mnt/games", want: "/mnt/games"},
		{input: "relative/dir", want: "relative/dir"},
		{input: "~someone/dir", want: "~someone/dir"},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestDirs(t *testing.T) {
	assert.Equal(t, "steamsize", filepath.Base(DataDir()))
	assert.Equal(t, "steamsize", filepath.Base(StateDir()))
	assert.True(t, strings.HasPrefix(DefaultHistoryDir(), DataDir()))
}
