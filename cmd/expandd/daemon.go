package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"expandd/internal/logging"
	"expandd/internal/triggers"
)

func cmdStart(args []string) error {
	opts, err := parseFlags("start", args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := requireRoot(); err != nil {
		return err
	}
	pidFile := cfg.Daemon.PidFile

	// Check if this is the daemon subprocess
	if os.Getenv(daemonEnv) == "1" {
		logCfg := cfg.LoggerConfig()
		if logCfg.Output != "file" && logCfg.Output != "both" {
			logCfg.Output = "file"
		}
		log, err := logging.New(logCfg)
		if err != nil {
			return err
		}
		defer log.Close()
		logging.SetDefault(log)
		log.Info("daemon starting", "pid", os.Getpid(), "level", logging.LevelString(logCfg.Level))

		if err := writePidFile(pidFile); err != nil {
			log.Error("write pid file", "path", pidFile, "error", err)
			return err
		}
		defer os.Remove(pidFile)

		return serve(cfg, log)
	}

	if pid, running := daemonRunning(pidFile); running {
		return fmt.Errorf("already running (PID %d); run 'expandd stop' first", pid)
	}
	os.Remove(pidFile)

	// Fail here rather than in the detached child, where nobody sees it.
	if _, err := triggers.LoadTrie(cfg.Expansion.TriggersFile); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	cmd := exec.Command(exe, append([]string{"start"}, args...)...)
	cmd.Env = append(os.Environ(), daemonEnv+"=1")
	cmd.SysProcAttr = daemonSysProcAttr()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	child := cmd.Process.Pid
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	// Wait a moment for daemon to initialize
	for i := 0; i < 20; i++ {
		select {
		case err := <-exited:
			return fmt.Errorf("daemon exited during startup (%v); see %s or run 'expandd debug'", err, cfg.Logging.FilePath)
		case <-time.After(100 * time.Millisecond):
		}
		if pid, running := daemonRunning(pidFile); running && pid == child {
			fmt.Printf("expandd started (PID %d)\n", pid)
			fmt.Printf("Triggers: %s\n", cfg.Expansion.TriggersFile)
			fmt.Printf("Log: %s\n", cfg.Logging.FilePath)
			return nil
		}
	}
	return fmt.Errorf("daemon failed to start; see %s or run 'expandd debug'", cfg.Logging.FilePath)
}

func cmdStop(args []string, stdout io.Writer) error {
	opts, err := parseFlags("stop", args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	pidFile := cfg.Daemon.PidFile
	pid, running := daemonRunning(pidFile)
	if !running {
		os.Remove(pidFile)
		fmt.Fprintln(stdout, "expandd is not running")
		return nil
	}

	if err := stopProcess(pid, 3*time.Second); err != nil {
		return err
	}
	os.Remove(pidFile)
	fmt.Fprintf(stdout, "expandd stopped (PID %d)\n", pid)
	return nil
}

func cmdStatus(args []string, stdout io.Writer) error {
	opts, err := parseFlags("status", args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	pid, err := readPidFile(cfg.Daemon.PidFile)
	switch {
	case err != nil:
		fmt.Fprintln(stdout, "Daemon Status: NOT RUNNING")
	case processAlive(pid):
		fmt.Fprintf(stdout, "Daemon Status: RUNNING (PID %d)\n", pid)
	default:
		fmt.Fprintf(stdout, "Daemon Status: STALE PID FILE (PID %d not found)\n", pid)
	}

	fmt.Fprintf(stdout, "Triggers: %s", cfg.Expansion.TriggersFile)
	if t, err := triggers.LoadTrie(cfg.Expansion.TriggersFile); err != nil {
		fmt.Fprintf(stdout, " (%v)\n", err)
	} else {
		fmt.Fprintf(stdout, " (%d triggers)\n", t.Len())
		t.Release()
	}

	keyboard := cfg.Device.Keyboard
	if keyboard == "" {
		keyboard = "autodetect"
	}
	fmt.Fprintf(stdout, "Keyboard: %s\n", keyboard)
	fmt.Fprintf(stdout, "Log: %s\n", cfg.Logging.FilePath)
	return nil
}

func writePidFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pid file %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("pid file %s: invalid pid %d", path, pid)
	}
	return pid, nil
}

// daemonRunning reports the pid recorded in pidFile and whether that
// process is alive.
func daemonRunning(pidFile string) (int, bool) {
	pid, err := readPidFile(pidFile)
	if err != nil {
		return 0, false
	}
	return pid, processAlive(pid)
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check if process exists.
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// stopProcess sends SIGTERM and waits up to timeout before resorting to
// SIGKILL.
func stopProcess(pid int, timeout time.Duration) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := process.Signal(syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}
