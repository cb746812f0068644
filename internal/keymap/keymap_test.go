package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alphabet() []rune {
	var chars []rune
	for _, k := range layout {
		chars = append(chars, k.plain)
		if k.shifted != 0 {
			chars = append(chars, k.shifted)
		}
	}
	return chars
}

func TestSymbol_RoundTrip(t *testing.T) {
	m := New()
	for _, c := range alphabet() {
		sym, err := m.Symbol(c)
		require.NoError(t, err, "char %q", c)

		back, err := Char(sym.Keycode, sym.Shifted)
		require.NoError(t, err)
		assert.Equal(t, c, back, "round trip of %q", c)
	}
}

func TestSymbol_PositionsAreUnique(t *testing.T) {
	m := New()
	seen := make(map[int]rune)
	for _, c := range alphabet() {
		sym, err := m.Symbol(c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sym.Position, 0)
		assert.Less(t, sym.Position, AlphabetSize)
		if prev, ok := seen[sym.Position]; ok {
			t.Fatalf("position %d shared by %q and %q", sym.Position, prev, c)
		}
		seen[sym.Position] = c
	}
}

func TestSymbol_ShiftFlag(t *testing.T) {
	m := New()

	tests := []struct {
		char    rune
		keycode uint16
		shifted bool
	}{
		{'a', KeyA, false},
		{'A', KeyA, true},
		{'1', Key1, false},
		{'!', Key1, true},
		{'\'', KeyApostrophe, false},
		{'"', KeyApostrophe, true},
		{' ', KeySpace, false},
		{'?', KeySlash, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.char), func(t *testing.T) {
			sym, err := m.Symbol(tt.char)
			require.NoError(t, err)
			assert.Equal(t, tt.char, sym.Char)
			assert.Equal(t, tt.keycode, sym.Keycode)
			assert.Equal(t, tt.shifted, sym.Shifted)
		})
	}
}

func TestSymbol_CacheIsStable(t *testing.T) {
	m := New()
	first, err := m.Symbol('X')
	require.NoError(t, err)
	assert.Equal(t, 1, m.Cached())

	second, err := m.Symbol('X')
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Cached())

	// Population order must not matter.
	other := New()
	_, err = other.Symbol('x')
	require.NoError(t, err)
	third, err := other.Symbol('X')
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestSymbol_Unsupported(t *testing.T) {
	m := New()
	for _, c := range []rune{'\n', '\t', 'é', -1, 200, 0x1F600} {
		_, err := m.Symbol(c)
		assert.ErrorIs(t, err, ErrUnsupportedCharacter, "char %q", c)
	}
	assert.Equal(t, 0, m.Cached())
}

func TestChar(t *testing.T) {
	c, err := Char(KeyH, true)
	require.NoError(t, err)
	assert.Equal(t, 'H', c)

	c, err = Char(KeySpace, true)
	require.NoError(t, err)
	assert.Equal(t, ' ', c, "space has no shifted glyph")

	_, err = Char(KeyEnter, false)
	assert.ErrorIs(t, err, ErrUnknownKeyCode)
}

func TestResolve(t *testing.T) {
	m := New()
	sym, err := m.Resolve(KeySemicolon, true)
	require.NoError(t, err)
	assert.Equal(t, ':', sym.Char)
	assert.True(t, sym.Shifted)

	_, err = m.Resolve(KeyLeftShift, false)
	assert.ErrorIs(t, err, ErrUnknownKeyCode)
}

func TestSupported(t *testing.T) {
	for _, code := range Codes() {
		assert.True(t, Supported(code), "layout code %d", code)
	}
	assert.True(t, Supported(KeyLeftShift))
	assert.True(t, Supported(KeyRightShift))

	for _, code := range []uint16{0, KeyEsc, KeyBackspace, KeyTab, KeyEnter, KeyLeftCtrl, 56, 58, 100} {
		assert.False(t, Supported(code), "code %d", code)
	}
}

func TestValidate(t *testing.T) {
	m := New()
	assert.NoError(t, m.Validate("JavaScript XML"))
	assert.ErrorIs(t, m.Validate("line\nbreak"), ErrUnsupportedCharacter)
}

func TestIsShift(t *testing.T) {
	assert.True(t, IsShift(KeyLeftShift))
	assert.True(t, IsShift(KeyRightShift))
	assert.False(t, IsShift(KeyA))
}
