package hotkeys

import (
	"fmt"
	"strings"
)

// Modifier is a bitmask of modifier keys. The bit values follow the
// device-independent modifier flags of the macOS event system so that
// persisted bindings are stable across platforms.
type Modifier uint32

const (
	ModShift   Modifier = 1 << 17
	ModControl Modifier = 1 << 18
	ModOption  Modifier = 1 << 19
	ModCommand Modifier = 1 << 20

	modifierMask = ModShift | ModControl | ModOption | ModCommand
)

// KeyCode is a hardware-independent virtual key code in the macOS key code
// space. Key sources translate it to their native code.
type KeyCode uint16

// Binding is one global hotkey. It is a value type: rebinding swaps the whole
// value, so the modifier set and the key are always observed together.
type Binding struct {
	modifiers Modifier
	key       KeyCode
}

// DefaultBinding is Command+G.
var DefaultBinding = Binding{modifiers: ModCommand, key: KeyG}

// NewBinding validates a persisted (modifier_flags, key_code) pair.
// Unknown modifier bits are discarded.
func NewBinding(modifierFlags uint32, keyCode uint16) (Binding, error) {
	mods := Modifier(modifierFlags) & modifierMask
	if mods == 0 {
		return Binding{}, fmt.Errorf("hotkey requires at least one modifier (flags=%#x)", modifierFlags)
	}
	key := KeyCode(keyCode)
	if _, ok := keyTable[key]; !ok {
		return Binding{}, fmt.Errorf("unsupported key code %d", keyCode)
	}
	return Binding{modifiers: mods, key: key}, nil
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.modifiers }

// Key returns the key code.
func (b Binding) Key() KeyCode { return b.key }

// IsZero reports whether b is the zero Binding.
func (b Binding) IsZero() bool { return b.modifiers == 0 && b.key == 0 }

// Matches reports whether a key-down with key and mods triggers b.
func (b Binding) Matches(key KeyCode, mods Modifier) bool {
	return !b.IsZero() && key == b.key && mods&modifierMask == b.modifiers
}

// String returns the canonical spec accepted by ParseBinding, e.g. "Cmd+Shift+G".
func (b Binding) String() string {
	if b.IsZero() {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, m := range modifierOrder {
		if b.modifiers&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, keyTable[b.key].name)
	return strings.Join(parts, "+")
}

// Glyphs returns the modifier symbols in display order, e.g. ["⌃", "⌘"].
func (b Binding) Glyphs() []string {
	var glyphs []string
	for _, m := range modifierOrder {
		if b.modifiers&m.mod != 0 {
			glyphs = append(glyphs, m.glyph)
		}
	}
	return glyphs
}

// KeyLabel describes how the key should be displayed. printable is the literal
// label for printable keys; otherwise l10nKey names a translation entry.
func (b Binding) KeyLabel() (printable string, l10nKey string) {
	info, ok := keyTable[b.key]
	if !ok {
		return fmt.Sprintf("0x%02X", uint16(b.key)), ""
	}
	if info.l10nKey != "" {
		return "", info.l10nKey
	}
	return info.label, ""
}

var modifierOrder = []struct {
	mod   Modifier
	name  string
	glyph string
}{
	{ModControl, "Ctrl", "⌃"},
	{ModOption, "Option", "⌥"},
	{ModShift, "Shift", "⇧"},
	{ModCommand, "Cmd", "⌘"},
}
