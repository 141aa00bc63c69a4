//go:build windows

package locale

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// SystemProvider queries the user's preferred UI languages.
func SystemProvider() Provider {
	return ProviderFunc(func() ([]string, error) {
		langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
		if err != nil {
			return nil, fmt.Errorf("%w: GetUserPreferredUILanguages: %v", ErrUnavailable, err)
		}
		if len(langs) == 0 {
			return nil, ErrUnavailable
		}
		return langs, nil
	})
}
