package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"chatbar/internal/hotkeys"
	"chatbar/internal/window"
)

// CreateWindow opens a window for platformID. windowType is "main" or
// "secondary"; empty means secondary. A rejected creation returns the limit
// error and emits window:limit-reached.
func (a *App) CreateWindow(platformID string, windowType string) (window.Window, error) {
	typ := window.Type(strings.ToLower(strings.TrimSpace(windowType)))
	if typ == "" {
		typ = window.TypeSecondary
	}
	if !typ.Valid() {
		return window.Window{}, fmt.Errorf("unknown window type %q", windowType)
	}
	if _, ok := a.getConfigSnapshot().Platform(platformID); !ok {
		return window.Window{}, fmt.Errorf("unknown platform %q", platformID)
	}
	var created window.Window
	err := a.call(func() error {
		var err error
		created, err = a.openWindow(platformID, typ)
		return err
	})
	return created, err
}

// CloseWindow hides and removes id. Unknown or already closed ids report false.
func (a *App) CloseWindow(id string) bool {
	closed := false
	if err := a.call(func() error {
		closed = a.session.CloseWindow(window.ID(id))
		if closed {
			a.syncToggleState()
		}
		return nil
	}); err != nil {
		slog.Warn("[window] close failed", "id", id, "error", err)
	}
	return closed
}

// FindWindow returns the window registered under id.
func (a *App) FindWindow(id string) (window.Window, error) {
	if a.registry == nil {
		return window.Window{}, errServicesUnavailable
	}
	return a.registry.Find(window.ID(id))
}

// ListWindows returns every live window, oldest first.
func (a *App) ListWindows() []window.Window {
	if a.registry == nil {
		return nil
	}
	return a.registry.List()
}

// WindowsForPlatform lists the ids of platformID's windows, oldest first.
func (a *App) WindowsForPlatform(platformID string) []window.ID {
	if a.registry == nil {
		return nil
	}
	return a.registry.WindowsForPlatform(platformID)
}

// RelocateWindow records a new frame for id. The frontend reports moves and
// resizes through it.
func (a *App) RelocateWindow(id string, geometry window.Geometry) (window.Window, error) {
	var moved window.Window
	err := a.call(func() error {
		var err error
		moved, err = a.session.Relocate(window.ID(id), geometry)
		return err
	})
	return moved, err
}

// ToggleMainWindow requests one hotkey-equivalent toggle. It reports false
// when the UI loop no longer accepts work.
func (a *App) ToggleMainWindow() bool {
	if a.listener == nil {
		return false
	}
	return a.listener.Toggle()
}

// ShowMainWindow shows the default platform's MAIN window.
func (a *App) ShowMainWindow() error {
	return a.call(func() error { return a.showMainErr() })
}

// HideMainWindow hides the MAIN window.
func (a *App) HideMainWindow() error {
	return a.call(func() error { return a.hideMainErr() })
}

// WindowHidden is called by the frontend when the host window was hidden
// outside the app, for example by the window manager.
func (a *App) WindowHidden(id string) {
	a.post(func() {
		a.session.HostHidden(window.ID(id))
		a.syncToggleState()
	})
}

// openWindow runs on the UI loop.
func (a *App) openWindow(platformID string, typ window.Type) (window.Window, error) {
	w, err := a.session.OpenWindow(platformID, typ)
	if err != nil {
		a.notifyLimitReached(err)
		return w, err
	}
	a.syncToggleState()
	return w, nil
}

func (a *App) showMain() {
	if err := a.showMainErr(); err != nil {
		slog.Warn("[window] show main window failed", "error", err)
	}
}

func (a *App) hideMain() {
	if err := a.hideMainErr(); err != nil {
		slog.Warn("[window] hide main window failed", "error", err)
	}
}

// hideAll runs on the UI loop.
func (a *App) hideAll() {
	if err := a.session.HideAll(); err != nil {
		slog.Warn("[window] hide windows failed", "error", err)
	}
	a.syncToggleState()
}

// mainToggler routes listener toggles through the App so hotkey shows get
// the same limit notification and toggle sync as the bound API.
type mainToggler struct {
	app *App
}

func (t mainToggler) ShowMain() error { return t.app.showMainErr() }
func (t mainToggler) HideMain() error { return t.app.hideMainErr() }

// showMainErr runs on the UI loop.
func (a *App) showMainErr() error {
	if err := a.session.ShowMain(); err != nil {
		a.notifyLimitReached(err)
		return err
	}
	a.syncToggleState()
	return nil
}

// hideMainErr runs on the UI loop.
func (a *App) hideMainErr() error {
	if err := a.session.HideMain(); err != nil {
		return err
	}
	a.syncToggleState()
	return nil
}

// syncToggleState aligns the hotkey state machine with windows shown or
// hidden through the menu, IPC or the bound API. Runs on the UI loop.
func (a *App) syncToggleState() {
	if a.listener == nil {
		return
	}
	if a.session.MainVisible() {
		a.listener.SetState(hotkeys.Visible)
		return
	}
	a.listener.SetState(hotkeys.Hidden)
}

// notifyLimitReached tells the user that a creation hit a window cap.
func (a *App) notifyLimitReached(err error) {
	var limitErr *window.LimitError
	if !errors.As(err, &limitErr) {
		return
	}
	message := a.TFormat("window.limit_reached", map[string]string{
		"count": strconv.Itoa(limitErr.Count),
		"max":   strconv.Itoa(limitErr.Max),
	})
	slog.Warn("[window] creation rejected by window limit", "scope", limitErr.Scope, "platform", limitErr.PlatformID, "error", err)
	a.emitRuntimeEvent("window:limit-reached", map[string]any{
		"message":  message,
		"scope":    limitErr.Scope,
		"platform": limitErr.PlatformID,
		"count":    limitErr.Count,
		"max":      limitErr.Max,
	})
}
