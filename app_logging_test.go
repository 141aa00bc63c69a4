package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"chatbar/internal/config"
	"chatbar/internal/sessionlog"
)

func TestInstallLoggerCapturesWarnings(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	logs := installLogger(config.Env{LogLevel: "debug"}, &out)

	slog.Debug("[DEBUG-window] created", "id", "w1")
	slog.Warn("[WARN-hotkey] registration failed", "error", "busy")

	if !strings.Contains(out.String(), "created") {
		t.Fatalf("debug line missing from output: %q", out.String())
	}

	app := NewApp(logs)
	entries := app.GetRecentLog(0)
	if len(entries) != 1 {
		t.Fatalf("GetRecentLog len = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.Source != "hotkey" || got.Message != "registration failed" || got.Error != "busy" {
		t.Fatalf("entry = %+v", got)
	}

	app.ClearRecentLog()
	if got := app.GetRecentLog(0); len(got) != 0 {
		t.Fatalf("GetRecentLog after clear = %v, want empty", got)
	}
}

func TestInstallLoggerRespectsLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	installLogger(config.Env{LogLevel: "error"}, &out)
	slog.Info("[config] loaded")
	slog.Warn("[WARN-CONFIG] fallback")
	if out.Len() != 0 {
		t.Fatalf("output below error level = %q, want empty", out.String())
	}
}

func TestGetRecentLogWithoutBuffer(t *testing.T) {
	app := &App{}
	if got := app.GetRecentLog(10); got != nil {
		t.Fatalf("GetRecentLog = %v, want nil", got)
	}
	app.ClearRecentLog()
}

func TestLogEntriesAreForwarded(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	logs := installLogger(config.Env{LogLevel: "info"}, &out)
	env := newTestEnv(t, nil)
	env.app.logs = logs
	env.app.startLogEvents()

	slog.Error("[ERROR-ipc] listener stopped")
	events := env.events.named("app:log-entry")
	if len(events) == 0 {
		t.Fatal("app:log-entry not emitted")
	}
	last, ok := events[len(events)-1].payload.(sessionlog.Entry)
	if !ok {
		t.Fatalf("payload type = %T, want sessionlog.Entry", events[len(events)-1].payload)
	}
	if last.Source != "ipc" || last.Message != "listener stopped" || last.Level != "ERROR" {
		t.Fatalf("entry = %+v", last)
	}
}
