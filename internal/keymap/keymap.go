// Package keymap translates between printable ASCII characters and Linux
// input keycodes on a US keyboard layout.
//
// Every supported character maps to exactly one Symbol: the keycode that
// produces it and whether shift must be held. Each Symbol also carries a
// dense Position in [0, AlphabetSize), used by the trigger trie as its
// branching index.
package keymap

import (
	"errors"
	"fmt"
)

// Linux input event codes (include/uapi/linux/input-event-codes.h).
const (
	KeyEsc        uint16 = 1
	Key1          uint16 = 2
	Key2          uint16 = 3
	Key3          uint16 = 4
	Key4          uint16 = 5
	Key5          uint16 = 6
	Key6          uint16 = 7
	Key7          uint16 = 8
	Key8          uint16 = 9
	Key9          uint16 = 10
	Key0          uint16 = 11
	KeyMinus      uint16 = 12
	KeyEqual      uint16 = 13
	KeyBackspace  uint16 = 14
	KeyTab        uint16 = 15
	KeyQ          uint16 = 16
	KeyW          uint16 = 17
	KeyE          uint16 = 18
	KeyR          uint16 = 19
	KeyT          uint16 = 20
	KeyY          uint16 = 21
	KeyU          uint16 = 22
	KeyI          uint16 = 23
	KeyO          uint16 = 24
	KeyP          uint16 = 25
	KeyLeftBrace  uint16 = 26
	KeyRightBrace uint16 = 27
	KeyEnter      uint16 = 28
	KeyLeftCtrl   uint16 = 29
	KeyA          uint16 = 30
	KeyS          uint16 = 31
	KeyD          uint16 = 32
	KeyF          uint16 = 33
	KeyG          uint16 = 34
	KeyH          uint16 = 35
	KeyJ          uint16 = 36
	KeyK          uint16 = 37
	KeyL          uint16 = 38
	KeySemicolon  uint16 = 39
	KeyApostrophe uint16 = 40
	KeyGrave      uint16 = 41
	KeyLeftShift  uint16 = 42
	KeyBackslash  uint16 = 43
	KeyZ          uint16 = 44
	KeyX          uint16 = 45
	KeyC          uint16 = 46
	KeyV          uint16 = 47
	KeyB          uint16 = 48
	KeyN          uint16 = 49
	KeyM          uint16 = 50
	KeyComma      uint16 = 51
	KeyDot        uint16 = 52
	KeySlash      uint16 = 53
	KeyRightShift uint16 = 54
	KeySpace      uint16 = 57
)

// key is one row of the static layout table. A zero shifted glyph means
// the key types the same character with or without shift.
type key struct {
	code    uint16
	plain   rune
	shifted rune
}

// layout is the supported alphabet. Row order fixes Symbol positions for
// the lifetime of the process.
var layout = [...]key{
	{Key1, '1', '!'},
	{Key2, '2', '@'},
	{Key3, '3', '#'},
	{Key4, '4', '$'},
	{Key5, '5', '%'},
	{Key6, '6', '^'},
	{Key7, '7', '&'},
	{Key8, '8', '*'},
	{Key9, '9', '('},
	{Key0, '0', ')'},
	{KeyMinus, '-', '_'},
	{KeyEqual, '=', '+'},
	{KeyQ, 'q', 'Q'},
	{KeyW, 'w', 'W'},
	{KeyE, 'e', 'E'},
	{KeyR, 'r', 'R'},
	{KeyT, 't', 'T'},
	{KeyY, 'y', 'Y'},
	{KeyU, 'u', 'U'},
	{KeyI, 'i', 'I'},
	{KeyO, 'o', 'O'},
	{KeyP, 'p', 'P'},
	{KeyLeftBrace, '[', '{'},
	{KeyRightBrace, ']', '}'},
	{KeyA, 'a', 'A'},
	{KeyS, 's', 'S'},
	{KeyD, 'd', 'D'},
	{KeyF, 'f', 'F'},
	{KeyG, 'g', 'G'},
	{KeyH, 'h', 'H'},
	{KeyJ, 'j', 'J'},
	{KeyK, 'k', 'K'},
	{KeyL, 'l', 'L'},
	{KeySemicolon, ';', ':'},
	{KeyApostrophe, '\'', '"'},
	{KeyGrave, '`', '~'},
	{KeyBackslash, '\\', '|'},
	{KeyZ, 'z', 'Z'},
	{KeyX, 'x', 'X'},
	{KeyC, 'c', 'C'},
	{KeyV, 'v', 'V'},
	{KeyB, 'b', 'B'},
	{KeyN, 'n', 'N'},
	{KeyM, 'm', 'M'},
	{KeyComma, ',', '<'},
	{KeyDot, '.', '>'},
	{KeySlash, '/', '?'},
	{KeySpace, ' ', 0},
}

// AlphabetSize is the number of distinct Symbol positions. Each layout row
// owns two slots, plain and shifted, so no two characters share a position.
const AlphabetSize = 2 * len(layout)

var (
	// ErrUnsupportedCharacter is returned when a character has no key in
	// the supported layout.
	ErrUnsupportedCharacter = errors.New("unsupported character")

	// ErrUnknownKeyCode is returned when a keycode is not part of the
	// supported layout.
	ErrUnknownKeyCode = errors.New("unknown keycode")
)

// Symbol is the canonical identity of a typed character.
type Symbol struct {
	Char     rune
	Keycode  uint16
	Shifted  bool
	Position int
}

// IsZero reports whether s is the empty sentinel symbol.
func (s Symbol) IsZero() bool {
	return s == Symbol{}
}

// String returns the character, or "" for the zero symbol.
func (s Symbol) String() string {
	if s.IsZero() {
		return ""
	}
	return string(s.Char)
}

// Codes returns every keycode in the supported layout, in table order.
// The virtual device registers these as its key capabilities.
func Codes() []uint16 {
	codes := make([]uint16, 0, len(layout))
	for _, k := range layout {
		codes = append(codes, k.code)
	}
	return codes
}

// IsShift reports whether code is one of the shift modifiers.
func IsShift(code uint16) bool {
	return code == KeyLeftShift || code == KeyRightShift
}

// Supported reports whether the engine reacts to code at all: any key in
// the layout plus both shift keys.
func Supported(code uint16) bool {
	switch {
	case code >= Key1 && code <= KeyEqual:
		return true
	case code >= KeyQ && code <= KeyRightBrace:
		return true
	case code >= KeyA && code <= KeyLeftShift:
		return true
	case code >= KeyBackslash && code <= KeyRightShift:
		return true
	case code == KeySpace:
		return true
	}
	return false
}

// lookup scans the layout for c. It is the uncached path behind
// Keymap.Symbol.
func lookup(c rune) (Symbol, error) {
	for i, k := range layout {
		if c == k.plain {
			return Symbol{Char: c, Keycode: k.code, Position: 2 * i}, nil
		}
		if k.shifted != 0 && c == k.shifted {
			return Symbol{Char: c, Keycode: k.code, Shifted: true, Position: 2*i + 1}, nil
		}
	}
	return Symbol{}, fmt.Errorf("%w: %q", ErrUnsupportedCharacter, c)
}

// Char returns the character produced by code with the given shift state.
// Keys without a shifted glyph return their plain glyph.
func Char(code uint16, shifted bool) (rune, error) {
	for _, k := range layout {
		if k.code != code {
			continue
		}
		if shifted && k.shifted != 0 {
			return k.shifted, nil
		}
		return k.plain, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownKeyCode, code)
}
