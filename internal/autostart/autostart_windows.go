//go:build windows

package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

func platformLayout() layout {
	return layout{
		fileName: func(d Descriptor) string { return d.Name + ".cmd" },
		render:   renderStartupScript,
		perm:     0o644,
	}
}

func platformService() Service { return noService{} }

// ResolveAutostartDir returns the per-user Startup folder.
func ResolveAutostartDir() (string, error) {
	appData := strings.TrimSpace(os.Getenv("APPDATA"))
	if appData == "" {
		return "", errors.New("APPDATA is not set")
	}
	return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup"), nil
}
