package hotkeys

import "fmt"

// Key codes referenced by name elsewhere in the module.
const (
	KeyG     KeyCode = 0x05
	KeySpace KeyCode = 0x31
)

type keyInfo struct {
	name    string // canonical token used by ParseBinding and Binding.String
	label   string // display label for printable keys
	l10nKey string // translation key for non-printable keys
	winVK   uint16
	x11     string
}

var keyTable = map[KeyCode]keyInfo{}

// keyAliases maps upper-cased tokens to key codes for ParseBinding.
var keyAliases = map[string]KeyCode{}

func addKey(code KeyCode, info keyInfo) {
	if _, dup := keyTable[code]; dup {
		panic(fmt.Sprintf("hotkeys: duplicate key code %#x", code))
	}
	if info.label == "" && info.l10nKey == "" {
		info.label = info.name
	}
	keyTable[code] = info
	keyAliases[upperASCII(info.name)] = code
}

func init() {
	letters := map[byte]KeyCode{
		'A': 0x00, 'S': 0x01, 'D': 0x02, 'F': 0x03, 'H': 0x04, 'G': 0x05,
		'Z': 0x06, 'X': 0x07, 'C': 0x08, 'V': 0x09, 'B': 0x0B, 'Q': 0x0C,
		'W': 0x0D, 'E': 0x0E, 'R': 0x0F, 'Y': 0x10, 'T': 0x11, 'O': 0x1F,
		'U': 0x20, 'I': 0x22, 'P': 0x23, 'L': 0x25, 'J': 0x26, 'K': 0x28,
		'N': 0x2D, 'M': 0x2E,
	}
	for ch, code := range letters {
		addKey(code, keyInfo{name: string(ch), winVK: uint16(ch), x11: string(ch + ('a' - 'A'))})
	}

	digits := map[byte]KeyCode{
		'1': 0x12, '2': 0x13, '3': 0x14, '4': 0x15, '6': 0x16,
		'5': 0x17, '9': 0x19, '7': 0x1A, '8': 0x1C, '0': 0x1D,
	}
	for ch, code := range digits {
		addKey(code, keyInfo{name: string(ch), winVK: uint16(ch), x11: string(ch)})
	}

	punctuation := []struct {
		code  KeyCode
		label string
		winVK uint16
		x11   string
	}{
		{0x18, "=", 0xBB, "equal"},
		{0x1B, "-", 0xBD, "minus"},
		{0x1E, "]", 0xDD, "bracketright"},
		{0x21, "[", 0xDB, "bracketleft"},
		{0x27, "'", 0xDE, "apostrophe"},
		{0x29, ";", 0xBA, "semicolon"},
		{0x2A, `\`, 0xDC, "backslash"},
		{0x2B, ",", 0xBC, "comma"},
		{0x2C, "/", 0xBF, "slash"},
		{0x2F, ".", 0xBE, "period"},
		{0x32, "`", 0xC0, "grave"},
	}
	for _, p := range punctuation {
		addKey(p.code, keyInfo{name: p.label, winVK: p.winVK, x11: p.x11})
	}

	named := []struct {
		code  KeyCode
		name  string
		winVK uint16
		x11   string
	}{
		{0x24, "Return", 0x0D, "Return"},
		{0x30, "Tab", 0x09, "Tab"},
		{KeySpace, "Space", 0x20, "space"},
		{0x33, "Delete", 0x08, "BackSpace"},
		{0x35, "Escape", 0x1B, "Escape"},
		{0x7B, "Left", 0x25, "Left"},
		{0x7C, "Right", 0x27, "Right"},
		{0x7D, "Down", 0x28, "Down"},
		{0x7E, "Up", 0x26, "Up"},
	}
	for _, n := range named {
		addKey(n.code, keyInfo{
			name:    n.name,
			l10nKey: "key." + lowerASCII(n.name),
			winVK:   n.winVK,
			x11:     n.x11,
		})
	}

	functionKeys := []KeyCode{0x7A, 0x78, 0x63, 0x76, 0x60, 0x61, 0x62, 0x64, 0x65, 0x6D, 0x67, 0x6F}
	for i, code := range functionKeys {
		name := fmt.Sprintf("F%d", i+1)
		addKey(code, keyInfo{name: name, winVK: uint16(0x70 + i), x11: name})
	}

	for alias, code := range map[string]KeyCode{
		"ENTER":     0x24,
		"ESC":       0x35,
		"BACKSPACE": 0x33,
		"BACKQUOTE": 0x32,
		"GRAVE":     0x32,
		"MINUS":     0x1B,
		"EQUAL":     0x18,
		"COMMA":     0x2B,
		"PERIOD":    0x2F,
		"SLASH":     0x2C,
	} {
		keyAliases[alias] = code
	}
}

// windowsVirtualKey returns the Win32 virtual-key code for k.
func windowsVirtualKey(k KeyCode) (uint16, bool) {
	info, ok := keyTable[k]
	return info.winVK, ok
}

// x11KeysymName returns the X keysym name for k.
func x11KeysymName(k KeyCode) (string, bool) {
	info, ok := keyTable[k]
	return info.x11, ok
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
