// Package config provides configuration management for steamsize.
package config

import "time"

// Default configuration values.
const (
	// DefaultDiskSize is the default size measurement mode.
	DefaultDiskSize = "auto"

	// DefaultOutput is the default output format.
	DefaultOutput = "pretty"

	// DefaultWorkers lets the directory walker pick its own worker count.
	DefaultWorkers = 0

	// DefaultRetentionDays is how long run history is kept.
	DefaultRetentionDays = 30

	// DefaultDebounce is how long watch mode waits for a manifest to settle.
	DefaultDebounce = 2 * time.Second

	// DefaultLogLevel is the default log file level.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the default log rotation size.
	DefaultLogMaxSize = "10MB"
)

// appName names the per-user config, data and state directories.
const appName = "steamsize"

// envPrefix prefixes environment overrides, e.g. STEAMSIZE_DISK_SIZE.
const envPrefix = "STEAMSIZE"

// DefaultComponents holds the default per-component log levels.
var DefaultComponents = map[string]string{
	"fixer":    "info",
	"disksize": "info",
	"library":  "info",
	"watch":    "info",
	"cli":      "info",
}
