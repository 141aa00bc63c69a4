//go:build windows

package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"regexp"
	"strings"
	"time"

	"github.com/Microsoft/go-winio"

	"chatbar/internal/userutil"
)

const defaultPipePrefix = `\\.\pipe\chatbar-`

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\chatbar-[a-z0-9._-]{1,128}$`)

// DefaultEndpoint returns the per-user pipe name. CHATBAR_IPC overrides it
// when it matches the allowed pattern.
func DefaultEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("CHATBAR_IPC")); v != "" {
		if pipeNamePattern.MatchString(v) {
			return v
		}
		slog.Warn("[ipc] CHATBAR_IPC rejected: value does not match allowed pattern", "value", v)
	}
	return defaultPipePrefix + userutil.CurrentUsername()
}

// listen creates a pipe restricted to SYSTEM and the current user.
func listen(endpoint string) (net.Listener, error) {
	securityDescriptor, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	return winio.ListenPipe(endpoint, &winio.PipeConfig{
		SecurityDescriptor: securityDescriptor,
		MessageMode:        false,
		InputBufferSize:    int32(maxRequestBytes),
		OutputBufferSize:   int32(maxResponseBytes),
	})
}

func dial(endpoint string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(endpoint, &timeout)
}

func cleanupEndpoint(string) {}

func isNoServerError(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, winio.ErrTimeout)
}

var validSIDPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

func pipeSecurityDescriptor() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}
	sid := strings.TrimSpace(current.Uid)
	if sid == "" {
		return "", errors.New("current user SID is unavailable")
	}
	if !validSIDPattern.MatchString(sid) {
		return "", fmt.Errorf("current user SID has unexpected format: %s", sid)
	}
	// SDDL: D:P = protected DACL (no inheritance)
	// (A;;GA;;;SY) = full access for SYSTEM
	// (A;;GA;;;%s) = full access for current user SID
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
