//go:build darwin

package autostart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"chatbar/internal/procutil"
)

func platformLayout() layout {
	return layout{
		fileName: func(d Descriptor) string { return d.Label + ".plist" },
		render:   renderLaunchAgent,
		perm:     0o644,
	}
}

var runLaunchctlFn = func(args ...string) (string, error) {
	return procutil.CombinedOutput(context.Background(), "launchctl", args...)
}

type launchctlService struct{}

func (launchctlService) Register(path string) error {
	if _, err := runLaunchctlFn("load", "-w", path); err != nil {
		return fmt.Errorf("launchctl load: %w", err)
	}
	return nil
}

func (launchctlService) Unregister(path string) error {
	if _, err := runLaunchctlFn("unload", "-w", path); err != nil {
		return fmt.Errorf("launchctl unload: %w", err)
	}
	return nil
}

func platformService() Service { return launchctlService{} }

// ResolveAutostartDir returns ~/Library/LaunchAgents.
func ResolveAutostartDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents"), nil
}
