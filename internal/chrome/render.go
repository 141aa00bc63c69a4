// Package chrome renders the status item: icon, tooltip, hotkey hint and
// menu labels.
package chrome

import (
	_ "embed"
	"strings"

	"chatbar/internal/hotkeys"
	"chatbar/internal/i18n"
)

// Appearance is the system light/dark mode.
type Appearance int

const (
	AppearanceLight Appearance = iota
	AppearanceDark
)

func (a Appearance) String() string {
	if a == AppearanceDark {
		return "dark"
	}
	return "light"
}

// ParseAppearance maps "dark" (any case) to AppearanceDark and anything else
// to AppearanceLight.
func ParseAppearance(s string) Appearance {
	if strings.EqualFold(strings.TrimSpace(s), "dark") {
		return AppearanceDark
	}
	return AppearanceLight
}

// IconVariant names the template image drawn on the status bar.
type IconVariant string

const (
	IconBlack IconVariant = "black"
	IconWhite IconVariant = "white"
)

// Assets holds the encoded status images. A nil slice is a missing asset.
type Assets struct {
	Black []byte
	White []byte
}

var (
	//go:embed icons/status_black.png
	statusBlackPNG []byte
	//go:embed icons/status_white.png
	statusWhitePNG []byte
)

// DefaultAssets returns the bundled status images.
func DefaultAssets() Assets {
	return Assets{Black: statusBlackPNG, White: statusWhitePNG}
}

// Snapshot is every input the status chrome depends on.
type Snapshot struct {
	Appearance Appearance
	Language   string
	Binding    hotkeys.Binding
	// HotkeyUnavailable is set when no OS key source could be started.
	HotkeyUnavailable bool
	Assets            Assets
}

// MenuLabels are the localized status menu titles.
type MenuLabels struct {
	Show      string
	Hide      string
	NewWindow string
	Settings  string
	Autostart string
	Language  string
	Quit      string
}

// Rendered is the output of Render. When IconOK is false no asset was
// usable and the current image must be left alone.
type Rendered struct {
	Icon        []byte
	IconVariant IconVariant
	IconOK      bool
	HotkeyText  string
	Hint        string
	Tooltip     string
	Menu        MenuLabels
}

// TranslateFunc resolves key for an explicit language.
type TranslateFunc func(lang, key string) string

// Render computes the chrome for s. It has no side effects.
func Render(s Snapshot, translate TranslateFunc) Rendered {
	tr := func(key string) string { return translate(s.Language, key) }

	var out Rendered
	out.IconVariant, out.Icon, out.IconOK = SelectIcon(s.Appearance, s.Assets)

	out.HotkeyText = FormatHotkey(s.Binding, s.Language, translate)
	if s.HotkeyUnavailable || s.Binding.IsZero() {
		out.Hint = tr("menu.hotkey_unavailable")
	} else {
		out.Hint = i18n.Interpolate(tr("menu.hotkey_hint"), map[string]string{"hotkey": out.HotkeyText})
	}
	out.Tooltip = i18n.Interpolate(tr("tray.tooltip"), map[string]string{"hotkey": out.HotkeyText})

	out.Menu = MenuLabels{
		Show:      tr("menu.show"),
		Hide:      tr("menu.hide"),
		NewWindow: tr("menu.new_window"),
		Settings:  tr("menu.settings"),
		Autostart: tr("menu.autostart"),
		Language:  tr("menu.language"),
		Quit:      tr("menu.quit"),
	}
	return out
}

// SelectIcon picks the white asset on dark bars and the black asset on light
// ones, falling back to whichever exists.
func SelectIcon(a Appearance, assets Assets) (IconVariant, []byte, bool) {
	preferred, other := IconBlack, IconWhite
	if a == AppearanceDark {
		preferred, other = IconWhite, IconBlack
	}
	if data := assets.variant(preferred); len(data) > 0 {
		return preferred, data, true
	}
	if data := assets.variant(other); len(data) > 0 {
		return other, data, true
	}
	return "", nil, false
}

func (a Assets) variant(v IconVariant) []byte {
	if v == IconWhite {
		return a.White
	}
	return a.Black
}

// FormatHotkey renders b as modifier glyphs joined with "+" and the key
// label, e.g. "⌘+G". Keys without a printable label use their localized
// name.
func FormatHotkey(b hotkeys.Binding, lang string, translate TranslateFunc) string {
	if b.IsZero() {
		return ""
	}
	label, l10nKey := b.KeyLabel()
	if l10nKey != "" {
		label = translate(lang, l10nKey)
	}
	parts := append(b.Glyphs(), label)
	return strings.Join(parts, "+")
}
