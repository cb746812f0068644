// expandd watches the keyboard and replaces typed triggers with their
// expansions, in every application.
//
//	expandd start     Detach and run in the background
//	expandd stop      Stop the background daemon
//	expandd status    Show whether the daemon is running
//	expandd debug     Run in the foreground with verbose logging
//	expandd viz       Print the trigger tree
//	expandd config    Print the effective configuration
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"expandd/internal/config"
	"expandd/internal/logging"
	"expandd/internal/triggers"
)

// daemonEnv marks the detached child of "expandd start".
const daemonEnv = "EXPANDD_DAEMON"

// debugTriggersFile is read by "expandd debug" and "expandd viz" when no
// trigger file is configured, so a trigger set can be tried out from the
// working directory.
const debugTriggersFile = "./expanddrc"

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		usage(os.Stderr)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "start":
		return cmdStart(rest)
	case "stop":
		return cmdStop(rest, stdout)
	case "status":
		return cmdStatus(rest, stdout)
	case "debug":
		return cmdDebug(rest)
	case "viz":
		return cmdViz(rest, stdout)
	case "config":
		return cmdConfig(rest, stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		return errUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `expandd - system-wide text expansion

USAGE:
    expandd <command> [options]

COMMANDS:
    start       Start the expansion daemon in the background (root)
    stop        Stop the background daemon
    status      Show daemon status
    debug       Run in the foreground with debug logging (root)
    viz         Print the trigger tree
    config      Print the effective configuration
    help        Show this help message

OPTIONS:
    --config PATH      Configuration file (TOML, JSON or YAML)
    --triggers PATH    Trigger file, one trigger=expansion per line
    --keyboard PATH    Input device, e.g. /dev/input/event3 (default: autodetect)

TRIGGER FILE:
    jsx=JavaScript XML
    brb=be right back

Typing "jsx" anywhere erases it and types "JavaScript XML".
`)
}

// options are the flags every subcommand accepts.
type options struct {
	configPath string
	triggers   string
	keyboard   string

	// fallbackTriggers replaces the per-user trigger file when neither the
	// config file, the environment nor --triggers chose one.
	fallbackTriggers string
}

func newFlagSet(name string, opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("expandd "+name, pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default: search ., ~/.config/expandd, /etc/expandd)")
	fs.StringVar(&opts.triggers, "triggers", "", "trigger file")
	fs.StringVar(&opts.keyboard, "keyboard", "", "input device path (default: autodetect)")
	return fs
}

func parseFlags(name string, args []string) (*options, error) {
	opts := &options{}
	fs := newFlagSet(name, opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errUsage
		}
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return opts, nil
}

// loadConfig reads the configuration and applies command-line overrides,
// which take precedence over both the file and the environment.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	switch {
	case opts.triggers != "":
		cfg.Expansion.TriggersFile = opts.triggers
	case opts.fallbackTriggers != "" && cfg.Expansion.TriggersFile == config.DefaultTriggersFile():
		cfg.Expansion.TriggersFile = opts.fallbackTriggers
	}
	if opts.keyboard != "" {
		cfg.Device.Keyboard = opts.keyboard
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdDebug(args []string) error {
	opts, err := parseFlags("debug", args)
	if err != nil {
		return err
	}
	opts.fallbackTriggers = debugTriggersFile
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := requireRoot(); err != nil {
		return err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Level = logging.LevelDebug
	logCfg.Format = logging.FormatText
	logCfg.Output = "stderr"
	logCfg.Reveal = true
	log, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer log.Close()
	logging.SetDefault(log)

	return serve(cfg, log)
}

func cmdViz(args []string, stdout io.Writer) error {
	opts, err := parseFlags("viz", args)
	if err != nil {
		return err
	}
	opts.fallbackTriggers = debugTriggersFile
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return writeTree(stdout, cfg.Expansion.TriggersFile)
}

// writeTree prints the trigger trie at path, one node per line.
func writeTree(w io.Writer, path string) error {
	t, err := triggers.LoadTrie(path)
	if err != nil {
		return err
	}
	defer t.Release()

	fmt.Fprintf(w, "%s: %d triggers, %d nodes\n", path, t.Len(), t.Size())
	return t.Dump(w)
}

func cmdConfig(args []string, stdout io.Writer) error {
	opts, err := parseFlags("config", args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return toml.NewEncoder(stdout).Encode(cfg)
}
