package main

import (
	"context"
	"errors"
	"testing"

	"chatbar/internal/config"
	"chatbar/internal/hotkeys"
	"chatbar/internal/testutil"
	"chatbar/internal/window"
)

func TestCreateWindowRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name     string
		platform string
		typ      string
	}{
		{name: "unknown platform", platform: "nope", typ: "secondary"},
		{name: "unknown type", platform: "chatgpt", typ: "floating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.app.CreateWindow(tt.platform, tt.typ); err == nil {
				t.Fatalf("CreateWindow(%q, %q) error = nil, want error", tt.platform, tt.typ)
			}
		})
	}
	if got := len(env.app.ListWindows()); got != 0 {
		t.Fatalf("ListWindows len = %d, want 0", got)
	}
}

func TestCreateWindowLimitEmitsLocalizedEvent(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Limits.MaxWindowsPerPlatform = testutil.Ptr(1)
	})

	first, err := env.app.CreateWindow("claude", "")
	if err != nil {
		t.Fatalf("first CreateWindow error = %v", err)
	}
	if first.Type != window.TypeSecondary || !first.Visible {
		t.Fatalf("created window = %+v, want visible secondary", first)
	}

	_, err = env.app.CreateWindow("claude", "secondary")
	if !errors.Is(err, window.ErrLimitExceeded) {
		t.Fatalf("second CreateWindow error = %v, want ErrLimitExceeded", err)
	}
	events := env.events.named("window:limit-reached")
	if len(events) != 1 {
		t.Fatalf("window:limit-reached events = %d, want 1", len(events))
	}
	payload, ok := events[0].payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T, want map[string]any", events[0].payload)
	}
	if got, want := payload["message"], "Window limit reached (1/1)"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if got := env.app.WindowsForPlatform("claude"); len(got) != 1 || got[0] != first.ID {
		t.Fatalf("WindowsForPlatform = %v, want [%s]", got, first.ID)
	}
}

func TestToggleMainWindowAlternates(t *testing.T) {
	env := newTestEnv(t, nil)

	if !env.app.ToggleMainWindow() {
		t.Fatal("first ToggleMainWindow = false")
	}
	env.sync(t)
	if got := env.app.listener.State(); got != hotkeys.Visible {
		t.Fatalf("state after first toggle = %v, want Visible", got)
	}
	mainIDs := env.app.WindowsForPlatform("chatgpt")
	if len(mainIDs) != 1 {
		t.Fatalf("main windows = %v, want exactly one", mainIDs)
	}

	env.app.ToggleMainWindow()
	env.sync(t)
	if got := env.app.listener.State(); got != hotkeys.Hidden {
		t.Fatalf("state after second toggle = %v, want Hidden", got)
	}

	env.app.ToggleMainWindow()
	env.sync(t)
	if ids := env.app.WindowsForPlatform("chatgpt"); len(ids) != 1 || ids[0] != mainIDs[0] {
		t.Fatalf("third toggle created a new main window: %v", ids)
	}
	presented, dismissed := env.host.counts()
	if presented != 2 || dismissed != 1 {
		t.Fatalf("host presented/dismissed = %d/%d, want 2/1", presented, dismissed)
	}
	if got := len(env.events.named("window:visibility")); got != 3 {
		t.Fatalf("window:visibility events = %d, want 3", got)
	}
}

func TestShowHideMainWindowSyncToggleState(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.app.ShowMainWindow(); err != nil {
		t.Fatalf("ShowMainWindow error = %v", err)
	}
	if got := env.app.listener.State(); got != hotkeys.Visible {
		t.Fatalf("state after ShowMainWindow = %v, want Visible", got)
	}
	// The hotkey must now hide, not show again.
	env.app.ToggleMainWindow()
	env.sync(t)
	if _, dismissed := env.host.counts(); dismissed != 1 {
		t.Fatalf("dismissed = %d, want 1", dismissed)
	}
	if err := env.app.HideMainWindow(); err != nil {
		t.Fatalf("HideMainWindow while hidden error = %v", err)
	}
}

func TestCloseWindowIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	w, err := env.app.CreateWindow("gemini", "main")
	if err != nil {
		t.Fatalf("CreateWindow error = %v", err)
	}
	if !env.app.CloseWindow(string(w.ID)) {
		t.Fatal("first CloseWindow = false, want true")
	}
	if env.app.CloseWindow(string(w.ID)) {
		t.Fatal("second CloseWindow = true, want false")
	}
	if _, err := env.app.FindWindow(string(w.ID)); !errors.Is(err, window.ErrNotFound) {
		t.Fatalf("FindWindow after close error = %v, want ErrNotFound", err)
	}
	if got := env.app.listener.State(); got != hotkeys.Hidden {
		t.Fatalf("state after closing main = %v, want Hidden", got)
	}
}

func TestRelocateWindow(t *testing.T) {
	env := newTestEnv(t, nil)
	w, err := env.app.CreateWindow("chatgpt", "main")
	if err != nil {
		t.Fatalf("CreateWindow error = %v", err)
	}
	g := window.Geometry{X: 10, Y: 20, Width: 640, Height: 480}
	moved, err := env.app.RelocateWindow(string(w.ID), g)
	if err != nil {
		t.Fatalf("RelocateWindow error = %v", err)
	}
	if moved.Geometry != g {
		t.Fatalf("geometry = %+v, want %+v", moved.Geometry, g)
	}
	if _, err := env.app.RelocateWindow("missing", g); !errors.Is(err, window.ErrNotFound) {
		t.Fatalf("RelocateWindow(missing) error = %v, want ErrNotFound", err)
	}
}

func TestWindowHiddenResetsToggle(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.app.ShowMainWindow(); err != nil {
		t.Fatalf("ShowMainWindow error = %v", err)
	}
	ids := env.app.WindowsForPlatform("chatgpt")
	env.app.WindowHidden(string(ids[0]))
	env.sync(t)
	if got := env.app.listener.State(); got != hotkeys.Hidden {
		t.Fatalf("state after WindowHidden = %v, want Hidden", got)
	}
}

func TestBeforeCloseHidesUntilQuit(t *testing.T) {
	env := newTestEnv(t, nil)
	quitCalls := 0
	runtimeQuitFn = func(context.Context) { quitCalls++ }

	if err := env.app.ShowMainWindow(); err != nil {
		t.Fatalf("ShowMainWindow error = %v", err)
	}
	if !env.app.beforeClose(context.Background()) {
		t.Fatal("beforeClose = false before quit, want true")
	}
	env.sync(t)
	if env.app.session.MainVisible() {
		t.Fatal("main window still visible after close button")
	}

	env.app.quit()
	if quitCalls != 1 {
		t.Fatalf("quit calls = %d, want 1", quitCalls)
	}
	if env.app.beforeClose(context.Background()) {
		t.Fatal("beforeClose = true after quit, want false")
	}
}

func TestHotkeyToggleReportsWindowLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Limits.MaxTotalWindows = testutil.Ptr(0)
	})

	if !env.app.listener.Toggle() {
		t.Fatal("Toggle = false with the UI loop running")
	}
	env.sync(t)

	if got := len(env.events.named("window:limit-reached")); got != 1 {
		t.Fatalf("window:limit-reached events = %d, want 1", got)
	}
	if got := env.app.listener.State(); got != hotkeys.Hidden {
		t.Fatalf("listener state = %v, want Hidden", got)
	}
	if env.app.registry.Len() != 0 {
		t.Fatalf("registry Len = %d, want 0", env.app.registry.Len())
	}
}
