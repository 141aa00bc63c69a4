package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

var modifierByName = map[string]Modifier{
	"CMD":     ModCommand,
	"COMMAND": ModCommand,
	"SUPER":   ModCommand,
	"WIN":     ModCommand,
	"META":    ModCommand,
	"CTRL":    ModControl,
	"CONTROL": ModControl,
	"ALT":     ModOption,
	"OPT":     ModOption,
	"OPTION":  ModOption,
	"SHIFT":   ModShift,
}

// ParseBinding parses a binding like "Cmd+Shift+Space". The last token is the
// key; every other token must be a modifier. A "+" key is not supported.
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}

	var modifiers Modifier
	for _, token := range parts[:len(parts)-1] {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, ok := modifierByName[name]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		modifiers |= mod
	}

	key, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Binding{}, fmt.Errorf("%w in hotkey %q", err, raw)
	}
	return NewBinding(uint32(modifiers), uint16(key))
}

func parseKey(raw string) (KeyCode, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, fmt.Errorf("missing key token")
	}
	if code, ok := keyAliases[token]; ok {
		return code, nil
	}
	if strings.HasPrefix(token, "0X") {
		value, err := strconv.ParseUint(token[2:], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid hex key %q", raw)
		}
		return KeyCode(value), nil
	}
	return 0, fmt.Errorf("unknown key %q", raw)
}
