//go:build unix

package procutil

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestOutput(t *testing.T) {
	got, err := Output(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Output error = %v", err)
	}
	if got != "hello" {
		t.Fatalf("Output = %q, want %q", got, "hello")
	}
}

func TestOutputErrorCarriesStderr(t *testing.T) {
	_, err := Output(context.Background(), "sh", "-c", "echo broken key >&2; exit 3")
	if err == nil {
		t.Fatal("Output error = nil, want failure")
	}
	if !strings.Contains(err.Error(), "broken key") || !strings.HasPrefix(err.Error(), "sh: ") {
		t.Fatalf("Output error = %q, want command name and stderr", err)
	}
}

func TestCombinedOutput(t *testing.T) {
	got, err := CombinedOutput(context.Background(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("CombinedOutput error = %v", err)
	}
	if !strings.Contains(got, "out") || !strings.Contains(got, "err") {
		t.Fatalf("CombinedOutput = %q, want both streams", got)
	}
}

func TestOutputHonorsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := Output(ctx, "sleep", "5"); err == nil {
		t.Fatal("Output error = nil, want deadline failure")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("Output returned after %v, want prompt cancellation", elapsed)
	}
}

func TestEmptyCommand(t *testing.T) {
	if _, err := Output(context.Background(), " "); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("Output error = %v, want ErrEmptyCommand", err)
	}
	if _, err := CombinedOutput(context.Background(), ""); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("CombinedOutput error = %v, want ErrEmptyCommand", err)
	}
}

func TestHideWindowNoOp(t *testing.T) {
	HideWindow(nil)
}
