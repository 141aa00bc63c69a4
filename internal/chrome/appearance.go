package chrome

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chatbar/internal/procutil"
)

// ErrAppearanceUnsupported is returned by detectors on platforms without a
// known appearance setting.
var ErrAppearanceUnsupported = errors.New("appearance detection is not supported on this platform")

// DefaultPollInterval is how often WatchAppearance re-reads the setting.
const DefaultPollInterval = 5 * time.Second

// AppearanceDetector reads the current system appearance.
type AppearanceDetector interface {
	Detect(ctx context.Context) (Appearance, error)
}

// DetectorFunc adapts a function to AppearanceDetector.
type DetectorFunc func(ctx context.Context) (Appearance, error)

func (f DetectorFunc) Detect(ctx context.Context) (Appearance, error) { return f(ctx) }

// commandOutputFn runs an external command. Tests replace it.
var commandOutputFn = procutil.Output

// WatchAppearance polls detector until ctx is done and calls onChange with
// the first reading and with every change after it. Detection errors keep
// the last known value.
func WatchAppearance(ctx context.Context, detector AppearanceDetector, interval time.Duration, onChange func(Appearance)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var (
		current Appearance
		known   bool
	)
	check := func() {
		a, err := detector.Detect(ctx)
		if err != nil {
			if errors.Is(err, ErrAppearanceUnsupported) {
				return
			}
			slog.Debug("[DEBUG-chrome] appearance detection failed", "error", err)
			return
		}
		if known && a == current {
			return
		}
		current, known = a, true
		onChange(a)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// parseInterfaceStyle reads `defaults read -g AppleInterfaceStyle`. The key
// is absent in light mode, so any error means light.
func parseInterfaceStyle(out string, err error) Appearance {
	if err != nil {
		return AppearanceLight
	}
	return ParseAppearance(out)
}

// parseColorScheme reads `gsettings get org.gnome.desktop.interface
// color-scheme`, e.g. "'prefer-dark'".
func parseColorScheme(out string) Appearance {
	value := strings.Trim(strings.TrimSpace(out), "'\"")
	if strings.Contains(value, "dark") {
		return AppearanceDark
	}
	return AppearanceLight
}

// parseGtkTheme treats theme names ending in "-dark" as dark.
func parseGtkTheme(out string) Appearance {
	value := strings.ToLower(strings.Trim(strings.TrimSpace(out), "'\""))
	if strings.HasSuffix(value, "-dark") || strings.HasSuffix(value, ":dark") {
		return AppearanceDark
	}
	return AppearanceLight
}
