//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"expandd/internal/config"
	"expandd/internal/emit"
	"expandd/internal/engine"
	"expandd/internal/evdev"
	"expandd/internal/keymap"
	"expandd/internal/logging"
	"expandd/internal/metrics"
	"expandd/internal/triggers"
)

func requireRoot() error {
	if unix.Geteuid() != 0 {
		return errors.New("reading and injecting key events needs root; run with sudo")
	}
	return nil
}

// serve runs the expansion loop until SIGINT or SIGTERM, or until an
// integrity violation stops it. Both devices are closed on every path.
func serve(cfg *config.Config, log *logging.Logger) error {
	t, err := triggers.LoadTrie(cfg.Expansion.TriggersFile)
	if err != nil {
		return err
	}
	log.Info("triggers loaded", "path", cfg.Expansion.TriggersFile, "triggers", t.Len(), "nodes", t.Size())

	path := cfg.Device.Keyboard
	if path == "" {
		path, err = evdev.FindKeyboard(cfg.Device.Name)
		if err != nil {
			return fmt.Errorf("autodetect keyboard: %w", err)
		}
	}

	kbd, err := evdev.OpenKeyboard(path)
	if err != nil {
		return err
	}
	var closeOnce sync.Once
	closeKeyboard := func() {
		closeOnce.Do(func() {
			if err := kbd.Close(); err != nil {
				log.Warn("close keyboard", "path", path, "error", err)
			}
		})
	}
	defer closeKeyboard()

	virt, err := evdev.CreateVirtual(evdev.VirtualConfig{
		Path:    cfg.Device.UInput,
		Name:    cfg.Device.Name,
		Vendor:  cfg.Device.Vendor,
		Product: cfg.Device.Product,
	}, emit.Keycodes())
	if err != nil {
		return err
	}
	defer func() {
		if err := virt.Close(); err != nil {
			log.Warn("destroy virtual keyboard", "error", err)
		}
	}()
	log.Info("devices ready", "keyboard", path, "virtual", virt.Name())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	emitter := emit.New(kbd, virt, keymap.New(), emit.WithPacing(cfg.Pacing()))
	eng := engine.New(t, m.Instrument(emitter), engine.Options{
		RestartOnMismatch: cfg.Expansion.RestartOnMismatch,
	}, log)
	m.Track(eng)

	if cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(m, log)
		if err := srv.Start(cfg.Metrics.Listen); err != nil {
			return err
		}
		defer srv.Stop()
	}

	if cfg.Expansion.Watch {
		w := triggers.NewWatcher(cfg.Expansion.TriggersFile, eng, log)
		if err := w.Start(); err != nil {
			log.Warn("trigger file will not be reloaded", "error", err)
		} else {
			defer w.Close()
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-w.Errors():
						m.ReloadFailed()
					}
				}
			}()
		}
	}

	// Closing the device is what unblocks a pending read.
	go func() {
		<-ctx.Done()
		closeKeyboard()
	}()

	err = eng.Run(ctx, kbd)

	stats := eng.Stats()
	log.Info("expansion stopped",
		"events", stats.Events,
		"presses", stats.Presses,
		"resets", stats.Resets,
		"expansions", stats.Expansions,
		"reloads", stats.Reloads,
	)
	return err
}
