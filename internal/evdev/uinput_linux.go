//go:build linux

package evdev

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uinput ioctl numbers from include/uapi/linux/uinput.h. The type
// character is 'U' (0x55).
const (
	uiDevCreate  = 0x5501     // _IO('U', 1)
	uiDevDestroy = 0x5502     // _IO('U', 2)
	uiDevSetup   = 0x405c5503 // _IOW('U', 3, struct uinput_setup), 92 bytes
	uiSetEvBit   = 0x40045564 // _IOW('U', 100, int)
	uiSetKeyBit  = 0x40045565 // _IOW('U', 101, int)

	busUSB = 0x03

	uinputMaxNameSize = 80
)

// inputID mirrors struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	ID           inputID
	Name         [uinputMaxNameSize]byte
	FFEffectsMax uint32
}

// VirtualConfig describes the virtual keyboard to register.
type VirtualConfig struct {
	Path    string
	Name    string
	Vendor  uint16
	Product uint16
}

// VirtualKeyboard is a registered uinput device.
type VirtualKeyboard struct {
	f    *os.File
	name string
}

// CreateVirtual registers a virtual keyboard able to emit EV_KEY events for
// the given keycodes.
func CreateVirtual(cfg VirtualConfig, codes []uint16) (*VirtualKeyboard, error) {
	if len(cfg.Name) >= uinputMaxNameSize {
		return nil, fmt.Errorf("virtual device name %q longer than %d bytes", cfg.Name, uinputMaxNameSize-1)
	}
	f, err := os.OpenFile(cfg.Path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	fd := int(f.Fd())

	if err := unix.IoctlSetInt(fd, uiSetEvBit, int(EvKey)); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput set EV_KEY: %w", err)
	}
	for _, code := range codes {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(code)); err != nil {
			f.Close()
			return nil, fmt.Errorf("uinput enable key %d: %w", code, err)
		}
	}

	setup := uinputSetup{
		ID: inputID{Bustype: busUSB, Vendor: cfg.Vendor, Product: cfg.Product},
	}
	copy(setup.Name[:], cfg.Name)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup, uintptr(unsafe.Pointer(&setup))); errno != 0 {
		f.Close()
		return nil, fmt.Errorf("uinput setup: %w", errno)
	}
	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput create: %w", err)
	}

	return &VirtualKeyboard{f: f, name: cfg.Name}, nil
}

// Name returns the registered device name.
func (v *VirtualKeyboard) Name() string { return v.name }

// WriteKey emits a key transition.
func (v *VirtualKeyboard) WriteKey(code uint16, pressed bool) error {
	return writeEvent(v.f, KeyEvent(code, pressed))
}

// Sync emits a report barrier.
func (v *VirtualKeyboard) Sync() error {
	return writeEvent(v.f, SyncEvent())
}

// Close unregisters the device and closes it.
func (v *VirtualKeyboard) Close() error {
	destroyErr := unix.IoctlSetInt(int(v.f.Fd()), uiDevDestroy, 0)
	if destroyErr != nil {
		destroyErr = fmt.Errorf("uinput destroy: %w", destroyErr)
	}
	return errors.Join(destroyErr, v.f.Close())
}
