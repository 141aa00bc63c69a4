package locale

import (
	"errors"
	"os"
	"strings"
)

// ErrUnavailable is returned by providers whose platform API cannot be
// queried in this process.
var ErrUnavailable = errors.New("preferred language list unavailable")

// Provider reports the user's preferred languages, most preferred first.
type Provider interface {
	PreferredLanguages() ([]string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() ([]string, error)

func (f ProviderFunc) PreferredLanguages() ([]string, error) { return f() }

// posixLocaleVars are consulted in precedence order when no provider answers.
var posixLocaleVars = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// posixLocale returns the first non-empty POSIX locale variable.
func posixLocale(getenv func(string) string) string {
	for _, name := range posixLocaleVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// splitLanguageList parses a GNU LANGUAGE style list ("fr:en_GB:en").
func splitLanguageList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ":") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var getenvFn = os.Getenv
