package keymap

import "fmt"

// CacheSize bounds the character domain the cache covers (7-bit ASCII).
const CacheSize = 128

type cacheEntry struct {
	resolved bool
	sym      Symbol
}

// Keymap resolves characters to Symbols, memoizing each resolution.
//
// Slots are written once, on first lookup, and never change afterwards.
// A Keymap is not safe for concurrent use; the engine owns one and touches
// it from a single goroutine.
type Keymap struct {
	cache [CacheSize]cacheEntry
}

// New returns a Keymap with an empty cache.
func New() *Keymap {
	return &Keymap{}
}

// Symbol resolves c to its canonical Symbol.
func (m *Keymap) Symbol(c rune) (Symbol, error) {
	if c < 0 || c >= CacheSize {
		return Symbol{}, fmt.Errorf("%w: %q", ErrUnsupportedCharacter, c)
	}
	if e := m.cache[c]; e.resolved {
		return e.sym, nil
	}
	sym, err := lookup(c)
	if err != nil {
		return Symbol{}, err
	}
	m.cache[c] = cacheEntry{resolved: true, sym: sym}
	return sym, nil
}

// Resolve maps a keycode and shift state to its canonical Symbol. It is the
// round trip Char followed by Symbol.
func (m *Keymap) Resolve(code uint16, shifted bool) (Symbol, error) {
	c, err := Char(code, shifted)
	if err != nil {
		return Symbol{}, err
	}
	return m.Symbol(c)
}

// Cached reports how many cache slots have been populated.
func (m *Keymap) Cached() int {
	n := 0
	for _, e := range m.cache {
		if e.resolved {
			n++
		}
	}
	return n
}

// Validate checks that every character of s is in the supported alphabet.
func (m *Keymap) Validate(s string) error {
	for _, c := range s {
		if _, err := m.Symbol(c); err != nil {
			return err
		}
	}
	return nil
}
