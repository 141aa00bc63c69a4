package userutil

import (
	"os"
	"strings"

	"github.com/adrg/xdg"
)

// RuntimeDir returns the user runtime directory from the XDG base directory
// settings. It falls back to the temp dir when that directory is missing,
// as on hosts without a session manager.
func RuntimeDir() string {
	dir := strings.TrimSpace(xdg.RuntimeDir)
	if dir == "" {
		return os.TempDir()
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return os.TempDir()
	}
	return dir
}
