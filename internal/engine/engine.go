// Package engine recognizes typed triggers in a stream of key events and
// replaces them with their expansions.
//
// The engine is a single cursor walking the trigger trie, advanced by one
// key press at a time. It never backtracks: a key that does not extend the
// current prefix sends the cursor back to the root.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"expandd/internal/evdev"
	"expandd/internal/keymap"
	"expandd/internal/logging"
	"expandd/internal/trie"
)

// Source yields physical key events. ReadEvent blocks until one arrives.
type Source interface {
	ReadEvent() (evdev.Event, error)
}

// Expander performs an expansion once a trigger is recognized.
type Expander interface {
	Expand(last uint16, depth int, expansion string) error
}

// Outcome is what a single event did to the matcher.
type Outcome int

const (
	// Ignored events did not touch the cursor: unsupported keys, releases,
	// repeats, shift transitions and non-key events.
	Ignored Outcome = iota
	// Advanced means the press extended the current prefix.
	Advanced
	// Reset means the press broke the prefix and the cursor is at root.
	Reset
	// Expanded means the press completed a trigger and the expansion was
	// emitted.
	Expanded
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Advanced:
		return "advanced"
	case Reset:
		return "reset"
	case Expanded:
		return "expanded"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// IntegrityError reports a failure that makes further matching unsafe:
// a keycode or character outside the layout, or a rejected device write.
type IntegrityError struct {
	Event evdev.Event
	Err   error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on %s: %v", e.Event, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Stats counts what the engine has seen.
type Stats struct {
	Events     uint64
	Presses    uint64
	Resets     uint64 // presses that did not extend a match, at root or not
	Expansions uint64
	Reloads    uint64
}

// Options tunes matching behavior.
type Options struct {
	// RestartOnMismatch re-evaluates a key that broke a partial match once
	// from the root, so it can begin a new trigger. Off by default: the
	// breaking key is consumed.
	RestartOnMismatch bool
}

// Engine owns the match state. It is driven from a single goroutine; only
// Swap and Stats may be called concurrently with Process or Run.
type Engine struct {
	trie     *trie.Trie
	keys     *keymap.Keymap
	expander Expander
	opts     Options
	log      *logging.Logger

	cursor  trie.NodeID
	shifted bool

	pending atomic.Pointer[trie.Trie]

	events     atomic.Uint64
	presses    atomic.Uint64
	resets     atomic.Uint64
	expansions atomic.Uint64
	reloads    atomic.Uint64
}

// New returns an engine matching against t. The cursor starts at root.
func New(t *trie.Trie, expander Expander, opts Options, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{
		trie:     t,
		keys:     keymap.New(),
		expander: expander,
		opts:     opts,
		log:      log.WithComponent("engine"),
		cursor:   trie.Root,
	}
}

// Swap schedules t to replace the current trie. It takes effect before
// the next event is processed and resets the cursor.
func (e *Engine) Swap(t *trie.Trie) {
	e.pending.Store(t)
}

// Cursor returns the node the partial match has reached.
func (e *Engine) Cursor() trie.Node {
	return e.trie.Node(e.cursor)
}

// Shifted reports whether a shift key is currently held.
func (e *Engine) Shifted() bool {
	return e.shifted
}

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Events:     e.events.Load(),
		Presses:    e.presses.Load(),
		Resets:     e.resets.Load(),
		Expansions: e.expansions.Load(),
		Reloads:    e.reloads.Load(),
	}
}

// Process feeds one event through the matcher. A non-nil error is always
// an *IntegrityError; the caller must stop feeding events.
func (e *Engine) Process(ev evdev.Event) (Outcome, error) {
	e.events.Add(1)
	e.installPending()

	if !ev.IsKey() || !keymap.Supported(ev.Code) {
		return Ignored, nil
	}

	if keymap.IsShift(ev.Code) {
		switch ev.Value {
		case evdev.ValuePress:
			e.shifted = true
		case evdev.ValueRelease:
			e.shifted = false
		}
		return Ignored, nil
	}

	if !ev.Pressed() {
		return Ignored, nil
	}
	e.presses.Add(1)

	sym, err := e.keys.Resolve(ev.Code, e.shifted)
	if err != nil {
		return Ignored, &IntegrityError{Event: ev, Err: err}
	}

	fromRoot := e.cursor == trie.Root
	outcome, err := e.step(ev, sym)
	if err != nil || outcome != Reset {
		return outcome, err
	}
	e.resets.Add(1)
	if e.opts.RestartOnMismatch && !fromRoot {
		// The cursor is at root now; give the breaking key one chance to
		// start a new match.
		return e.step(ev, sym)
	}
	return Reset, nil
}

// step advances the cursor by sym from wherever it currently is.
func (e *Engine) step(ev evdev.Event, sym keymap.Symbol) (Outcome, error) {
	child, ok := e.trie.Child(e.cursor, sym.Position)
	if !ok || child.Symbol.Char != sym.Char || child.Symbol.Shifted != sym.Shifted {
		e.cursor = trie.Root
		return Reset, nil
	}

	if !child.Terminal {
		e.cursor = child.ID
		return Advanced, nil
	}

	e.cursor = trie.Root
	e.log.Debug("trigger matched", "code", ev.Code, "depth", child.Depth, "expansion", child.Expansion)
	if err := e.expander.Expand(ev.Code, child.Depth, child.Expansion); err != nil {
		return Expanded, &IntegrityError{Event: ev, Err: err}
	}
	e.expansions.Add(1)
	return Expanded, nil
}

func (e *Engine) installPending() {
	next := e.pending.Swap(nil)
	if next == nil {
		return
	}
	e.trie = next
	e.cursor = trie.Root
	e.reloads.Add(1)
	e.log.Info("trigger set replaced", "triggers", next.Len(), "nodes", next.Size())
}

// Run reads events from src until ctx is done or an error occurs. Each
// event is fully processed, including any expansion, before the next read.
//
// A read error after ctx is done is treated as shutdown (closing the
// device is how a blocked read is interrupted) and Run returns nil.
func (e *Engine) Run(ctx context.Context, src Source) error {
	e.log.Info("matching started", "triggers", e.trie.Len())
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		ev, err := src.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}

		outcome, err := e.Process(ev)
		if err != nil {
			e.log.Error("stopping on integrity violation", "error", err)
			return err
		}
		if outcome == Expanded {
			e.log.Info("expanded trigger", "code", ev.Code)
		}
	}
}
