// Package emit replays a recognized trigger as synthetic key events: the
// typed trigger is erased with backspaces and the expansion is typed in its
// place.
package emit

import (
	"fmt"
	"time"

	"expandd/internal/keymap"
)

// DefaultPacing is the delay between synthetic key transitions. Consumers
// of uinput devices can coalesce transitions that arrive back to back.
const DefaultPacing = time.Millisecond

// Writer is a keyboard-like device that accepts key transitions and a
// report barrier.
type Writer interface {
	WriteKey(code uint16, pressed bool) error
	Sync() error
}

// Emitter performs expansions against a physical and a virtual device.
type Emitter struct {
	physical Writer
	virtual  Writer
	keys     *keymap.Keymap
	pacing   time.Duration
	sleep    func(time.Duration)
}

// Keycodes lists every key an Emitter may press on the virtual device. A
// uinput device must enable each of them before it is created.
func Keycodes() []uint16 {
	return append([]uint16{keymap.KeyBackspace, keymap.KeyLeftShift}, keymap.Codes()...)
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithPacing sets the inter-event delay used while typing the expansion.
func WithPacing(d time.Duration) Option {
	return func(e *Emitter) { e.pacing = d }
}

// WithSleep replaces time.Sleep, mainly for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(e *Emitter) { e.sleep = fn }
}

// New returns an Emitter. physical receives the release of the key that
// completed the trigger; virtual receives everything else.
func New(physical, virtual Writer, keys *keymap.Keymap, opts ...Option) *Emitter {
	e := &Emitter{
		physical: physical,
		virtual:  virtual,
		keys:     keys,
		pacing:   DefaultPacing,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand erases depth typed characters and types expansion. last is the
// keycode whose press completed the trigger; it is released first so the
// physical key-down does not autorepeat over the replacement.
func (e *Emitter) Expand(last uint16, depth int, expansion string) error {
	if err := e.physical.WriteKey(last, false); err != nil {
		return fmt.Errorf("release trigger key %d: %w", last, err)
	}
	if err := e.physical.Sync(); err != nil {
		return fmt.Errorf("sync physical device: %w", err)
	}

	if err := e.backspace(depth); err != nil {
		return err
	}
	if err := e.Type(expansion); err != nil {
		return err
	}

	if err := e.virtual.Sync(); err != nil {
		return fmt.Errorf("sync virtual device: %w", err)
	}
	return nil
}

func (e *Emitter) backspace(n int) error {
	for i := 0; i < n; i++ {
		if err := e.virtual.WriteKey(keymap.KeyBackspace, true); err != nil {
			return fmt.Errorf("backspace %d/%d: %w", i+1, n, err)
		}
		if err := e.virtual.WriteKey(keymap.KeyBackspace, false); err != nil {
			return fmt.Errorf("backspace %d/%d: %w", i+1, n, err)
		}
	}
	return nil
}

// Type emits s character by character on the virtual device, bracketing
// shifted characters with left shift. It does not sync.
func (e *Emitter) Type(s string) error {
	for _, c := range s {
		sym, err := e.keys.Symbol(c)
		if err != nil {
			return err
		}
		if sym.Shifted {
			if err := e.tap(keymap.KeyLeftShift, true); err != nil {
				return err
			}
		}
		if err := e.tap(sym.Keycode, true); err != nil {
			return err
		}
		if err := e.tap(sym.Keycode, false); err != nil {
			return err
		}
		if sym.Shifted {
			if err := e.tap(keymap.KeyLeftShift, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// tap writes one transition followed by the pacing delay.
func (e *Emitter) tap(code uint16, pressed bool) error {
	if err := e.virtual.WriteKey(code, pressed); err != nil {
		return fmt.Errorf("write key %d: %w", code, err)
	}
	if e.pacing > 0 {
		e.sleep(e.pacing)
	}
	return nil
}
