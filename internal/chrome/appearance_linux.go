//go:build linux

package chrome

import "context"

// SystemDetector reads the GNOME color-scheme key, falling back to the GTK
// theme name on desktops that predate it.
func SystemDetector() AppearanceDetector {
	return DetectorFunc(func(ctx context.Context) (Appearance, error) {
		out, err := commandOutputFn(ctx, "gsettings", "get", "org.gnome.desktop.interface", "color-scheme")
		if err == nil && parseColorScheme(out) == AppearanceDark {
			return AppearanceDark, nil
		}
		theme, themeErr := commandOutputFn(ctx, "gsettings", "get", "org.gnome.desktop.interface", "gtk-theme")
		if themeErr != nil {
			if err != nil {
				return AppearanceLight, err
			}
			return AppearanceLight, nil
		}
		return parseGtkTheme(theme), nil
	})
}
