package main

import (
	"context"
	"log/slog"

	"chatbar/internal/session"
	"chatbar/internal/window"
)

// windowActivateEvent tells the frontend which platform surface to load.
type windowActivateEvent struct {
	Window       window.Window `json:"window"`
	PlatformName string        `json:"platform_name"`
	URL          string        `json:"url"`
}

// wailsHost presents registry windows in the Wails window. The frontend keeps
// one surface per window id and switches to the one named by window:activate.
// The native window stays up while any registered window is visible.
type wailsHost struct {
	app *App
}

var _ session.Host = wailsHost{}

func (h wailsHost) Present(w window.Window) error {
	ctx := h.app.runtimeContext()
	if ctx == nil {
		return errRuntimeUnavailable
	}
	if !w.Geometry.Empty() {
		runtimeWindowSetSizeFn(ctx, w.Geometry.Width, w.Geometry.Height)
		if w.Geometry.X != 0 || w.Geometry.Y != 0 {
			runtimeWindowSetPositionFn(ctx, w.Geometry.X, w.Geometry.Y)
		}
	}
	runtimeWindowShowFn(ctx)
	runtimeWindowUnminimiseFn(ctx)
	// Pulse always-on-top to raise above the active application.
	runtimeWindowSetAlwaysOnTopFn(ctx, true)
	runtimeWindowSetAlwaysOnTopFn(ctx, false)
	h.activate(ctx, w)
	return nil
}

// Dismiss retires w's surface. When another window is still visible its
// surface takes over; otherwise the native window is hidden.
func (h wailsHost) Dismiss(w window.Window) error {
	ctx := h.app.runtimeContext()
	if ctx == nil {
		return errRuntimeUnavailable
	}
	runtimeEventsEmitFn(ctx, "window:deactivate", map[string]any{"id": w.ID})
	if next, ok := h.nextVisible(w.ID); ok {
		h.activate(ctx, next)
		return nil
	}
	runtimeWindowHideFn(ctx)
	return nil
}

func (h wailsHost) activate(ctx context.Context, w window.Window) {
	event := windowActivateEvent{Window: w}
	if platform, ok := h.app.getConfigSnapshot().Platform(w.PlatformID); ok {
		event.PlatformName = platform.Name
		event.URL = platform.URL
	} else {
		slog.Warn("[WARN-window] presenting window for unknown platform", "platform", w.PlatformID)
	}
	runtimeEventsEmitFn(ctx, "window:activate", event)
}

// nextVisible picks the surface to show once except is gone: a visible MAIN
// window first, then the newest visible one.
func (h wailsHost) nextVisible(except window.ID) (window.Window, bool) {
	if h.app.registry == nil {
		return window.Window{}, false
	}
	var (
		next  window.Window
		found bool
	)
	for _, w := range h.app.registry.List() {
		if w.ID == except || !w.Visible {
			continue
		}
		if found && next.Type == window.TypeMain && w.Type != window.TypeMain {
			continue
		}
		next, found = w, true
	}
	return next, found
}
