package main

import (
	"io"
	"log/slog"

	"chatbar/internal/config"
	"chatbar/internal/sessionlog"
)

// installLogger makes a text handler on w the default logger and tees
// warnings and errors into a ring buffer for GetRecentLog.
func installLogger(env config.Env, w io.Writer) *sessionlog.Buffer {
	buffer := sessionlog.NewBuffer(sessionlog.DefaultCapacity)
	base := slog.NewTextHandler(w, &slog.HandlerOptions{Level: env.SlogLevel()})
	slog.SetDefault(slog.New(sessionlog.NewTeeHandler(base, slog.LevelWarn, buffer.Append)))
	return buffer
}

// GetRecentLog returns up to limit captured warnings and errors, oldest
// first. limit <= 0 returns everything kept.
func (a *App) GetRecentLog(limit int) []sessionlog.Entry {
	if a.logs == nil {
		return nil
	}
	return a.logs.Recent(limit)
}

// ClearRecentLog drops the captured entries.
func (a *App) ClearRecentLog() {
	if a.logs != nil {
		a.logs.Clear()
	}
}

// startLogEvents forwards captured entries to the frontend. The notify path
// must not log: it runs inside the log handler.
func (a *App) startLogEvents() {
	a.logs.OnAppend(func(entry sessionlog.Entry) {
		ctx := a.runtimeContext()
		if ctx == nil {
			return
		}
		runtimeEventsEmitFn(ctx, "app:log-entry", entry)
	})
}
