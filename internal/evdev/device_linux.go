//go:build linux

package evdev

import (
	"fmt"
	"io"
	"os"
)

// Keyboard is an open physical input device. Reads block until the kernel
// delivers the next event. Writes inject events into the device's own
// stream, which is how a physical key-down is closed early.
type Keyboard struct {
	f    *os.File
	path string
	buf  []byte
}

// OpenKeyboard opens the event device at path for reading and writing.
func OpenKeyboard(path string) (*Keyboard, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		return nil, fmt.Errorf("open keyboard %s: %w", path, err)
	}
	return &Keyboard{f: f, path: path, buf: make([]byte, EventSize)}, nil
}

// Path returns the device node path.
func (k *Keyboard) Path() string { return k.path }

// ReadEvent blocks for the next event. Reads return in arrival order.
func (k *Keyboard) ReadEvent() (Event, error) {
	if _, err := io.ReadFull(k.f, k.buf); err != nil {
		return Event{}, fmt.Errorf("read %s: %w", k.path, err)
	}
	return Unmarshal(k.buf)
}

// WriteKey injects a key transition into the physical device.
func (k *Keyboard) WriteKey(code uint16, pressed bool) error {
	return writeEvent(k.f, KeyEvent(code, pressed))
}

// Sync injects a report barrier into the physical device.
func (k *Keyboard) Sync() error {
	return writeEvent(k.f, SyncEvent())
}

// Close closes the device. A blocked ReadEvent returns an error.
func (k *Keyboard) Close() error {
	return k.f.Close()
}

func writeEvent(w io.Writer, ev Event) error {
	b := Marshal(ev)
	n, err := w.Write(b)
	if err != nil {
		return fmt.Errorf("write %s: %w", ev, err)
	}
	if n != len(b) {
		return fmt.Errorf("write %s: %w (%d of %d bytes)", ev, ErrShortWrite, n, len(b))
	}
	return nil
}
