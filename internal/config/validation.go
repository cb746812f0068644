package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateDevice(&c.Device)...)
	errs = append(errs, validateExpansion(&c.Expansion)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateDaemon(&c.Daemon)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDevice(d *DeviceConfig) ValidationErrors {
	var errs ValidationErrors

	if d.Keyboard != "" && !filepath.IsAbs(d.Keyboard) {
		errs = append(errs, ValidationError{
			Field:   "device.keyboard",
			Message: fmt.Sprintf("must be an absolute path: %s", d.Keyboard),
		})
	}
	if d.UInput == "" {
		errs = append(errs, ValidationError{
			Field:   "device.uinput",
			Message: "uinput path is required",
		})
	}

	// uinput_setup carries an 80 byte NUL terminated name.
	if d.Name == "" || len(d.Name) >= 80 {
		errs = append(errs, ValidationError{
			Field:   "device.name",
			Message: "name must be between 1 and 79 bytes",
		})
	}

	return errs
}

func validateExpansion(e *ExpansionConfig) ValidationErrors {
	var errs ValidationErrors

	if e.TriggersFile == "" {
		errs = append(errs, ValidationError{
			Field:   "expansion.triggers_file",
			Message: "triggers file is required",
		})
	}
	if e.PacingUs < 0 {
		errs = append(errs, ValidationError{
			Field:   "expansion.pacing_us",
			Message: "pacing cannot be negative",
		})
	}
	if e.PacingUs > 1_000_000 {
		errs = append(errs, ValidationError{
			Field:   "expansion.pacing_us",
			Message: fmt.Sprintf("pacing of %dus would stall typing (max 1000000)", e.PacingUs),
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
		// Valid formats
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

func validateDaemon(d *DaemonConfig) ValidationErrors {
	if d.PidFile == "" {
		return ValidationErrors{{Field: "daemon.pid_file", Message: "pid file is required"}}
	}
	return nil
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	if m.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Listen); err != nil {
		return ValidationErrors{{Field: "metrics.listen", Message: err.Error()}}
	}
	return nil
}
