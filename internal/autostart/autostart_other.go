//go:build !linux && !darwin && !windows

package autostart

import "errors"

func platformLayout() layout {
	return layout{
		fileName: func(d Descriptor) string { return d.Name + ".desktop" },
		render:   renderDesktopEntry,
		perm:     0o644,
	}
}

func platformService() Service { return noService{} }

// ResolveAutostartDir is not supported on this platform.
func ResolveAutostartDir() (string, error) {
	return "", errors.New("autostart is not supported on this platform")
}
