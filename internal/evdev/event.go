// Package evdev reads key events from a Linux input device and writes
// synthetic ones, both to the physical device and to a uinput virtual
// keyboard.
//
// Requires read/write access to /dev/input/event* and /dev/uinput (root, or
// membership in the input group plus a uinput udev rule).
package evdev

import (
	"errors"
	"fmt"
	"time"
)

// Event types and values from include/uapi/linux/input-event-codes.h.
const (
	EvSyn     uint16 = 0x00
	EvKey     uint16 = 0x01
	SynReport uint16 = 0

	ValueRelease int32 = 0
	ValuePress   int32 = 1
	ValueRepeat  int32 = 2
)

var (
	// ErrNoKeyboard is returned when autodetection finds no usable keyboard.
	ErrNoKeyboard = errors.New("no keyboard device found")

	// ErrShortWrite is returned when a device accepts only part of an event.
	ErrShortWrite = errors.New("short write to input device")
)

// Event mirrors struct input_event.
type Event struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

// KeyEvent builds an EV_KEY event.
func KeyEvent(code uint16, pressed bool) Event {
	ev := Event{Type: EvKey, Code: code, Value: ValueRelease}
	if pressed {
		ev.Value = ValuePress
	}
	return ev
}

// SyncEvent builds an EV_SYN/SYN_REPORT barrier.
func SyncEvent() Event {
	return Event{Type: EvSyn, Code: SynReport}
}

// IsKey reports whether e is an EV_KEY event.
func (e Event) IsKey() bool { return e.Type == EvKey }

// Pressed reports whether e is a key press. Autorepeats are not presses.
func (e Event) Pressed() bool { return e.IsKey() && e.Value == ValuePress }

// Released reports whether e is a key release.
func (e Event) Released() bool { return e.IsKey() && e.Value == ValueRelease }

func (e Event) String() string {
	switch {
	case e.Type == EvSyn:
		return "syn"
	case e.Pressed():
		return fmt.Sprintf("key %d down", e.Code)
	case e.Released():
		return fmt.Sprintf("key %d up", e.Code)
	case e.IsKey() && e.Value == ValueRepeat:
		return fmt.Sprintf("key %d repeat", e.Code)
	}
	return fmt.Sprintf("type %d code %d value %d", e.Type, e.Code, e.Value)
}
