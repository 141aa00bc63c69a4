package procutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds commands whose context has no deadline.
const DefaultTimeout = 2 * time.Second

// ErrEmptyCommand is returned when no program name is given.
var ErrEmptyCommand = errors.New("command name is required")

// Output runs name and returns its stdout. A failing command's error carries
// the trimmed stderr.
func Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd, cancel, err := command(ctx, name, args)
	if err != nil {
		return "", err
	}
	defer cancel()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return string(out), commandError(name, err, stderr.Bytes())
	}
	return string(out), nil
}

// CombinedOutput runs name and returns stdout and stderr interleaved.
func CombinedOutput(ctx context.Context, name string, args ...string) (string, error) {
	cmd, cancel, err := command(ctx, name, args)
	if err != nil {
		return "", err
	}
	defer cancel()

	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), commandError(name, err, out)
	}
	return string(out), nil
}

func command(ctx context.Context, name string, args []string) (*exec.Cmd, context.CancelFunc, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, ErrEmptyCommand
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	HideWindow(cmd)
	return cmd, cancel, nil
}

func commandError(name string, err error, output []byte) error {
	detail := strings.TrimSpace(string(output))
	if detail == "" {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%s: %w: %s", name, err, detail)
}
