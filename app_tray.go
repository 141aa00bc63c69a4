package main

import (
	"log/slog"

	"chatbar/internal/tray"
	"chatbar/internal/window"
)

// trayActions maps status menu clicks onto the UI loop.
func (a *App) trayActions() tray.Actions {
	return tray.Actions{
		OnShow: func() { a.post(a.showMain) },
		OnHide: func() { a.post(a.hideMain) },
		OnNewWindow: func() {
			a.post(func() {
				platform := a.session.DefaultPlatform()
				if _, err := a.openWindow(platform, window.TypeSecondary); err != nil {
					slog.Warn("[window] new window from menu failed", "platform", platform, "error", err)
				}
			})
		},
		OnSettings: func() {
			a.post(func() {
				a.showMain()
				a.emitRuntimeEvent("app:open-settings", nil)
			})
		},
		OnToggleAutostart: func() {
			a.post(func() {
				if a.autostart == nil {
					return
				}
				a.setAutostart(!a.autostart.IsEnabled())
			})
		},
		OnSelectLanguage: func(code string) {
			a.post(func() {
				if _, err := a.setLanguage(code); err != nil {
					slog.Warn("[WARN-i18n] language change from menu not persisted", "language", code, "error", err)
				}
			})
		},
		OnQuit: a.quit,
	}
}
