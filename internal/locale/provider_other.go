//go:build !darwin && !windows

package locale

// SystemProvider reads the GNU LANGUAGE priority list. Desktop sessions
// without it fall through to the POSIX locale variables.
func SystemProvider() Provider {
	return ProviderFunc(func() ([]string, error) {
		langs := splitLanguageList(getenvFn("LANGUAGE"))
		if len(langs) == 0 {
			return nil, ErrUnavailable
		}
		return langs, nil
	})
}
