// Package config handles configuration loading and validation for expandd.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"expandd/internal/logging"
)

// Config holds the complete daemon configuration.
type Config struct {
	// Device selects the physical keyboard and describes the virtual one.
	Device DeviceConfig `toml:"device" json:"device" yaml:"device"`

	// Expansion configuration for matching and emission.
	Expansion ExpansionConfig `toml:"expansion" json:"expansion" yaml:"expansion"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Daemon configuration for the detached process.
	Daemon DaemonConfig `toml:"daemon" json:"daemon" yaml:"daemon"`

	// Metrics configuration for the Prometheus endpoint.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
}

// DeviceConfig holds input and output device settings.
type DeviceConfig struct {
	// Keyboard is the evdev node to read, e.g. /dev/input/event3.
	// Empty means autodetect from /proc/bus/input/devices.
	Keyboard string `toml:"keyboard" json:"keyboard" yaml:"keyboard"`

	// UInput is the uinput control node.
	UInput string `toml:"uinput" json:"uinput" yaml:"uinput"`

	// Name is the virtual keyboard's device name. Autodetection skips
	// devices with this name.
	Name string `toml:"name" json:"name" yaml:"name"`

	Vendor  uint16 `toml:"vendor" json:"vendor" yaml:"vendor"`
	Product uint16 `toml:"product" json:"product" yaml:"product"`
}

// ExpansionConfig holds matcher and emitter settings.
type ExpansionConfig struct {
	// TriggersFile is the trigger definition file.
	TriggersFile string `toml:"triggers_file" json:"triggers_file" yaml:"triggers_file"`

	// PacingUs is the delay after each emitted key transition, in
	// microseconds. Zero disables pacing.
	PacingUs int `toml:"pacing_us" json:"pacing_us" yaml:"pacing_us"`

	// RestartOnMismatch lets a key that broke a partial match start a new
	// one.
	RestartOnMismatch bool `toml:"restart_on_mismatch" json:"restart_on_mismatch" yaml:"restart_on_mismatch"`

	// Watch reloads the trigger file when it changes.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// DaemonConfig holds settings for the background process.
type DaemonConfig struct {
	PidFile string `toml:"pid_file" json:"pid_file" yaml:"pid_file"`
}

// MetricsConfig holds the optional metrics endpoint.
type MetricsConfig struct {
	// Listen is the address to serve /metrics on, e.g. "127.0.0.1:9253".
	// Empty disables the endpoint.
	Listen string `toml:"listen" json:"listen" yaml:"listen"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			UInput:  "/dev/uinput",
			Name:    "expandd",
			Vendor:  1187,
			Product: 1999,
		},
		Expansion: ExpansionConfig{
			TriggersFile: DefaultTriggersFile(),
			PacingUs:     1000,
			Watch:        true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   logging.DefaultLogPath,
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Daemon: DaemonConfig{
			PidFile: "/run/expandd.pid",
		},
	}
}

// Pacing returns the per-transition emission delay.
func (c *Config) Pacing() time.Duration {
	return time.Duration(c.Expansion.PacingUs) * time.Microsecond
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with EXPANDD_.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("EXPANDD_KEYBOARD"); v != "" {
		c.Device.Keyboard = v
	}
	if v := os.Getenv("EXPANDD_TRIGGERS"); v != "" {
		c.Expansion.TriggersFile = v
	}
	if v := os.Getenv("EXPANDD_PACING_US"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Expansion.PacingUs = n
		}
	}

	// Logging overrides
	if v := os.Getenv("EXPANDD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("EXPANDD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("EXPANDD_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// LoggerConfig converts the logging section for logging.New. Callers have
// validated the level and format already; unknown values fall back to info
// and text.
func (c *Config) LoggerConfig() *logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLevel(c.Logging.Level)
	cfg.Format, _ = logging.ParseFormat(c.Logging.Format)
	cfg.Output = strings.ToLower(c.Logging.Output)
	cfg.FilePath = c.Logging.FilePath
	cfg.MaxSize = int64(c.Logging.MaxSizeMB)
	cfg.MaxBackups = c.Logging.MaxBackups
	cfg.MaxAge = c.Logging.MaxAgeDays
	cfg.Compress = c.Logging.Compress
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}
