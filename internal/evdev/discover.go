package evdev

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ProcDevices lists the input devices known to the kernel.
const ProcDevices = "/proc/bus/input/devices"

// evRep is the EV_REP capability bit. Devices that autorepeat are real
// keyboards; power buttons and hotkey panels also carry a kbd handler but
// do not repeat.
const evRep = 0x14

// InputDevice is one block of ProcDevices.
type InputDevice struct {
	Name     string
	Handlers []string
	EvBits   uint64
}

// EventPath returns the /dev/input/eventN node for d, or "".
func (d InputDevice) EventPath() string {
	for _, h := range d.Handlers {
		if strings.HasPrefix(h, "event") {
			return "/dev/input/" + h
		}
	}
	return ""
}

// IsKeyboard reports whether d looks like a typing keyboard.
func (d InputDevice) IsKeyboard() bool {
	hasKbd := false
	for _, h := range d.Handlers {
		if h == "kbd" {
			hasKbd = true
		}
	}
	return hasKbd && d.EvBits&(1<<EvKey) != 0 && d.EvBits&(1<<evRep) != 0 && d.EventPath() != ""
}

// ParseDevices parses the ProcDevices format.
func ParseDevices(r io.Reader) ([]InputDevice, error) {
	var (
		devices []InputDevice
		cur     InputDevice
		seen    bool
	)
	flush := func() {
		if seen {
			devices = append(devices, cur)
		}
		cur = InputDevice{}
		seen = false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "N: Name="):
			cur.Name = strings.Trim(strings.TrimPrefix(line, "N: Name="), `"`)
			seen = true
		case strings.HasPrefix(line, "H: Handlers="):
			cur.Handlers = strings.Fields(strings.TrimPrefix(line, "H: Handlers="))
			seen = true
		case strings.HasPrefix(line, "B: EV="):
			bits, err := strconv.ParseUint(strings.TrimPrefix(line, "B: EV="), 16, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", line, err)
			}
			cur.EvBits = bits
			seen = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return devices, nil
}

// FindKeyboard returns the event node of the first keyboard in
// ProcDevices, skipping any device named exclude so the daemon never reads
// back its own virtual keyboard.
func FindKeyboard(exclude string) (string, error) {
	f, err := os.Open(ProcDevices)
	if err != nil {
		return "", fmt.Errorf("list input devices: %w", err)
	}
	defer f.Close()

	devices, err := ParseDevices(f)
	if err != nil {
		return "", err
	}
	return pickKeyboard(devices, exclude)
}

func pickKeyboard(devices []InputDevice, exclude string) (string, error) {
	for _, d := range devices {
		if exclude != "" && d.Name == exclude {
			continue
		}
		if d.IsKeyboard() {
			return d.EventPath(), nil
		}
	}
	return "", ErrNoKeyboard
}
