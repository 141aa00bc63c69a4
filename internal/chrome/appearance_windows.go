//go:build windows

package chrome

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const personalizeKey = `Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`

// SystemDetector reads SystemUsesLightTheme, which drives the taskbar and
// notification area colors.
func SystemDetector() AppearanceDetector {
	return DetectorFunc(func(context.Context) (Appearance, error) {
		key, err := registry.OpenKey(registry.CURRENT_USER, personalizeKey, registry.QUERY_VALUE)
		if err != nil {
			return AppearanceLight, fmt.Errorf("open personalize key: %w", err)
		}
		defer key.Close()
		value, _, err := key.GetIntegerValue("SystemUsesLightTheme")
		if err != nil {
			return AppearanceLight, fmt.Errorf("read SystemUsesLightTheme: %w", err)
		}
		if value == 0 {
			return AppearanceDark, nil
		}
		return AppearanceLight, nil
	})
}
