//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"chatbar/internal/userutil"
)

// DefaultEndpoint returns the per-user socket path. CHATBAR_IPC overrides it
// when it is an absolute path ending in ".sock".
func DefaultEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("CHATBAR_IPC")); v != "" {
		if filepath.IsAbs(v) && strings.HasSuffix(v, ".sock") {
			return v
		}
		slog.Warn("[ipc] CHATBAR_IPC rejected: expected an absolute .sock path", "value", v)
	}
	return filepath.Join(userutil.RuntimeDir(), "chatbar-"+userutil.CurrentUsername()+".sock")
}

// listen binds the socket, replacing a stale file left by a crashed
// instance. A live server at the same path is an error.
func listen(endpoint string) (net.Listener, error) {
	if _, err := os.Stat(endpoint); err == nil {
		if conn, dialErr := net.DialTimeout("unix", endpoint, 200*time.Millisecond); dialErr == nil {
			conn.Close()
			return nil, fmt.Errorf("endpoint %s already in use", endpoint)
		}
		if removeErr := os.Remove(endpoint); removeErr != nil {
			return nil, fmt.Errorf("remove stale socket: %w", removeErr)
		}
		slog.Debug("[DEBUG-ipc] removed stale socket", "path", endpoint)
	}
	listener, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(endpoint, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}
	return listener, nil
}

func dial(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}

func cleanupEndpoint(endpoint string) {
	if err := os.Remove(endpoint); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("[DEBUG-ipc] failed to remove socket", "path", endpoint, "error", err)
	}
}

func isNoServerError(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
