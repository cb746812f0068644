package config

import (
	"os"
	"os/user"
	"path/filepath"
)

// SystemConfigDir holds the machine-wide configuration.
const SystemConfigDir = "/etc/expandd"

// UserConfigDir returns the per-user configuration directory following the
// XDG Base Directory Specification. When running under sudo it resolves to
// the invoking user's directory, not root's.
func UserConfigDir() string {
	if os.Getenv("SUDO_USER") == "" {
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "expandd")
		}
	}
	return filepath.Join(homeDir(), ".config", "expandd")
}

// DefaultTriggersFile is the per-user trigger file.
func DefaultTriggersFile() string {
	return filepath.Join(UserConfigDir(), "triggers")
}

func homeDir() string {
	if name := os.Getenv("SUDO_USER"); name != "" {
		if u, err := user.Lookup(name); err == nil && u.HomeDir != "" {
			return u.HomeDir
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{
		"toml",
		"json",
		"yaml",
		"yml",
	}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if none found.
func FindConfigFile() string {
	// Search order:
	// 1. Current directory
	// 2. User config directory
	// 3. System config directory
	searchDirs := []string{
		".",
		UserConfigDir(),
		SystemConfigDir,
	}

	for _, dir := range searchDirs {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}
