//go:build darwin

package chrome

import "context"

// SystemDetector reads AppleInterfaceStyle from the global defaults domain.
func SystemDetector() AppearanceDetector {
	return DetectorFunc(func(ctx context.Context) (Appearance, error) {
		out, err := commandOutputFn(ctx, "defaults", "read", "-g", "AppleInterfaceStyle")
		if ctx.Err() != nil {
			return AppearanceLight, ctx.Err()
		}
		return parseInterfaceStyle(out, err), nil
	})
}
