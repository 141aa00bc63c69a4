package main

import (
	"errors"
	"log/slog"

	"chatbar/internal/autostart"
)

var errAutostartUnavailable = errors.New("autostart is not available on this system")

// SetAutostart installs or removes the login item. The result message is
// localized; failures never stop the app.
func (a *App) SetAutostart(enabled bool) autostart.Result {
	var result autostart.Result
	if err := a.call(func() error {
		result = a.setAutostart(enabled)
		return nil
	}); err != nil {
		return autostart.Result{Success: false, Enabled: !enabled, Message: err.Error()}
	}
	return result
}

// IsAutostartEnabled reports whether the login item is installed.
func (a *App) IsAutostartEnabled() bool {
	if a.autostart == nil {
		return false
	}
	return a.autostart.IsEnabled()
}

// setAutostart runs on the UI loop.
func (a *App) setAutostart(enabled bool) autostart.Result {
	if a.autostart == nil {
		return autostart.Result{
			Success: false,
			Message: a.TFormat("autostart.failed", map[string]string{"reason": errAutostartUnavailable.Error()}),
		}
	}
	result := a.autostart.SetEnabled(enabled)
	switch {
	case !result.Success:
		result.Message = a.TFormat("autostart.failed", map[string]string{"reason": result.Message})
	case result.Enabled:
		result.Message = a.T("autostart.enabled")
	default:
		result.Message = a.T("autostart.disabled")
	}
	if a.status != nil {
		a.status.SetAutostart(a.autostart.IsEnabled())
	}
	slog.Debug("[DEBUG-autostart] state applied", "requested", enabled, "success", result.Success)
	a.emitRuntimeEvent("autostart:changed", result)
	return result
}
