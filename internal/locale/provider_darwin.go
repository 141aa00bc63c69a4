//go:build darwin

package locale

import (
	"context"
	"fmt"
	"strings"

	"chatbar/internal/procutil"
)

// SystemProvider reads AppleLanguages from the global defaults domain.
func SystemProvider() Provider {
	return ProviderFunc(func() ([]string, error) {
		out, err := procutil.Output(context.Background(), "defaults", "read", "-g", "AppleLanguages")
		if err != nil {
			return nil, fmt.Errorf("%w: read AppleLanguages: %v", ErrUnavailable, err)
		}
		langs := parseDefaultsArray(out)
		if len(langs) == 0 {
			return nil, ErrUnavailable
		}
		return langs, nil
	})
}

// parseDefaultsArray parses the plist-ish output of `defaults read`:
//
//	(
//	    "en-US",
//	    ja
//	)
func parseDefaultsArray(out string) []string {
	var langs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, ",")
		line = strings.Trim(line, `"`)
		if line == "" || line == "(" || line == ")" {
			continue
		}
		langs = append(langs, line)
	}
	return langs
}
