//go:build !darwin && !linux && !windows

package chrome

import "context"

func SystemDetector() AppearanceDetector {
	return DetectorFunc(func(context.Context) (Appearance, error) {
		return AppearanceLight, ErrAppearanceUnsupported
	})
}
