package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expandd/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Device.Keyboard != "" {
		t.Errorf("keyboard should autodetect by default, got %s", cfg.Device.Keyboard)
	}
	if cfg.Device.Vendor != 1187 || cfg.Device.Product != 1999 {
		t.Errorf("unexpected device id %d:%d", cfg.Device.Vendor, cfg.Device.Product)
	}
	if cfg.Pacing() != time.Millisecond {
		t.Errorf("expected 1ms pacing, got %v", cfg.Pacing())
	}
	if cfg.Expansion.RestartOnMismatch {
		t.Error("restart on mismatch should be off by default")
	}
	if !cfg.Expansion.Watch {
		t.Error("watch should be on by default")
	}
	if cfg.Metrics.Listen != "" {
		t.Errorf("metrics should be off by default, got %s", cfg.Metrics.Listen)
	}
	if !strings.HasSuffix(cfg.Expansion.TriggersFile, filepath.Join("expandd", "triggers")) {
		t.Errorf("unexpected triggers file: %s", cfg.Expansion.TriggersFile)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device.Keyboard = "event3"
	cfg.Device.Name = strings.Repeat("x", 80)
	cfg.Expansion.PacingUs = -1
	cfg.Logging.Level = "loud"
	cfg.Daemon.PidFile = ""
	cfg.Metrics.Listen = "9253"

	err := cfg.Validate()
	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"device.keyboard", "device.name", "expansion.pacing_us", "logging.level", "daemon.pid_file", "metrics.listen"} {
		if !fields[want] {
			t.Errorf("missing error for %s in %v", want, err)
		}
	}
}

func TestValidateLoggingOutput(t *testing.T) {
	tests := []struct {
		output   string
		filePath string
		valid    bool
	}{
		{"stderr", "", true},
		{"stdout", "", true},
		{"file", "/var/log/expandd.log", true},
		{"both", "/var/log/expandd.log", true},
		{"file", "", false},
		{"syslog", "", false},
	}

	for _, test := range tests {
		t.Run(test.output, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Logging.Output = test.output
			cfg.Logging.FilePath = test.filePath
			err := cfg.Validate()
			if test.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.valid && err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Device.UInput != "/dev/uinput" {
		t.Errorf("expected defaults, got uinput %s", cfg.Device.UInput)
	}
}

func TestLoadTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	content := `
# Keyboard on the laptop
[device]
keyboard = "/dev/input/event4"

[expansion]
triggers_file = "/home/me/.config/expandd/triggers"
pacing_us = 250 # inline comment
restart_on_mismatch = true

[logging]
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Device.Keyboard != "/dev/input/event4" {
		t.Errorf("expected keyboard /dev/input/event4, got %s", cfg.Device.Keyboard)
	}
	if cfg.Pacing() != 250*time.Microsecond {
		t.Errorf("expected 250us pacing, got %v", cfg.Pacing())
	}
	if !cfg.Expansion.RestartOnMismatch {
		t.Error("expected restart_on_mismatch")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Device.Name != "expandd" {
		t.Errorf("device name should have default value, got %s", cfg.Device.Name)
	}
	if !cfg.Expansion.Watch {
		t.Error("watch should keep its default")
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"config.json": `{"expansion": {"pacing_us": 0}, "daemon": {"pid_file": "/tmp/x.pid"}}`,
		"config.yaml": "expansion:\n  pacing_us: 0\ndaemon:\n  pid_file: /tmp/x.pid\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Pacing() != 0 {
				t.Errorf("expected pacing disabled, got %v", cfg.Pacing())
			}
			if cfg.Daemon.PidFile != "/tmp/x.pid" {
				t.Errorf("expected pid file /tmp/x.pid, got %s", cfg.Daemon.PidFile)
			}
		})
	}
}

func TestLoadAutoDetect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expandd.conf")
	if err := os.WriteFile(path, []byte(`{"device": {"name": "kbd-out"}}`), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Device.Name != "kbd-out" {
		t.Errorf("expected name kbd-out, got %s", cfg.Device.Name)
	}
	if cfg.Device.UInput != "/dev/uinput" {
		t.Errorf("failed decode attempts leaked into result: %s", cfg.Device.UInput)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("this is not valid toml {{{\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("EXPANDD_KEYBOARD", "/dev/input/event7")
	t.Setenv("EXPANDD_TRIGGERS", "/etc/expandd/triggers")
	t.Setenv("EXPANDD_PACING_US", "50")
	t.Setenv("EXPANDD_LOG_LEVEL", "warn")
	t.Setenv("EXPANDD_LOG_FORMAT", "json")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Device.Keyboard != "/dev/input/event7" {
		t.Errorf("keyboard override not applied: %s", cfg.Device.Keyboard)
	}
	if cfg.Expansion.TriggersFile != "/etc/expandd/triggers" {
		t.Errorf("triggers override not applied: %s", cfg.Expansion.TriggersFile)
	}
	if cfg.Expansion.PacingUs != 50 {
		t.Errorf("pacing override not applied: %d", cfg.Expansion.PacingUs)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("logging overrides not applied: %+v", cfg.Logging)
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	cfg.Logging.Output = "FILE"
	cfg.Logging.MaxSizeMB = 3

	lc := cfg.LoggerConfig()
	if lc.Level != logging.LevelDebug {
		t.Errorf("expected debug, got %v", lc.Level)
	}
	if lc.Format != logging.FormatJSON {
		t.Errorf("expected json, got %v", lc.Format)
	}
	if lc.Output != "file" || lc.MaxSize != 3 {
		t.Errorf("unexpected logger config %+v", lc)
	}
	if lc.Reveal {
		t.Error("config never reveals typed text")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Device.Keyboard = "/dev/input/event2"
	cfg.Expansion.RestartOnMismatch = true

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Device.Keyboard != cfg.Device.Keyboard || !loaded.Expansion.RestartOnMismatch {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestUserConfigDir(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := UserConfigDir(); got != "/tmp/xdg/expandd" {
		t.Errorf("expected /tmp/xdg/expandd, got %s", got)
	}
	if got := DefaultTriggersFile(); got != "/tmp/xdg/expandd/triggers" {
		t.Errorf("expected /tmp/xdg/expandd/triggers, got %s", got)
	}

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)
	if got := UserConfigDir(); got != filepath.Join(home, ".config", "expandd") {
		t.Errorf("unexpected dir %s", got)
	}
}

func TestFindConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SUDO_USER", "")
	t.Setenv("XDG_CONFIG_HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	dir := filepath.Join(home, "expandd")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(want, []byte("device:\n  name: x\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if got := FindConfigFile(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
