//go:build linux

package evdev

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// rawEvent matches the kernel struct input_event layout.
type rawEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// EventSize is the size of one struct input_event on this platform.
var EventSize = binary.Size(rawEvent{})

// Marshal encodes ev in the kernel's native layout.
func Marshal(ev Event) []byte {
	raw := rawEvent{Type: ev.Type, Code: ev.Code, Value: ev.Value}
	if !ev.Time.IsZero() {
		raw.Time = unix.NsecToTimeval(ev.Time.UnixNano())
	}
	var buf bytes.Buffer
	buf.Grow(EventSize)
	// Writes into a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.NativeEndian, &raw)
	return buf.Bytes()
}

// Unmarshal decodes one struct input_event.
func Unmarshal(b []byte) (Event, error) {
	if len(b) < EventSize {
		return Event{}, fmt.Errorf("input event: need %d bytes, got %d", EventSize, len(b))
	}
	var raw rawEvent
	if err := binary.Read(bytes.NewReader(b[:EventSize]), binary.NativeEndian, &raw); err != nil {
		return Event{}, fmt.Errorf("input event: %w", err)
	}
	sec, nsec := raw.Time.Unix()
	return Event{
		Time:  time.Unix(sec, nsec),
		Type:  raw.Type,
		Code:  raw.Code,
		Value: raw.Value,
	}, nil
}
