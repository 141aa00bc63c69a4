//go:build linux

package autostart

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

func platformLayout() layout {
	return layout{
		fileName: func(d Descriptor) string { return d.Name + ".desktop" },
		render:   renderDesktopEntry,
		perm:     0o644,
	}
}

func platformService() Service { return noService{} }

// ResolveAutostartDir returns the autostart directory under the XDG config
// home, ~/.config/autostart by default.
func ResolveAutostartDir() (string, error) {
	base := strings.TrimSpace(xdg.ConfigHome)
	if base == "" {
		return "", errors.New("config home directory is empty")
	}
	return filepath.Join(base, "autostart"), nil
}
