package main

import (
	"log/slog"

	"chatbar/internal/ipc"
)

// handleIPCRequest serves commands forwarded by a second launch. It runs on
// the IPC server goroutine and waits for the UI loop.
func (a *App) handleIPCRequest(req ipc.Request) ipc.Response {
	slog.Debug("[DEBUG-IPC] request received", "command", req.Command)
	var err error
	switch req.Command {
	case ipc.CommandActivate, ipc.CommandShow:
		err = a.call(a.showMainErr)
	case ipc.CommandHide:
		err = a.call(a.hideMainErr)
	case ipc.CommandToggle:
		if !a.ToggleMainWindow() {
			return ipc.Fail("toggle rejected: application is shutting down")
		}
	default:
		return ipc.Fail("unknown command %q", req.Command)
	}
	if err != nil {
		return ipc.Fail("%s failed: %v", req.Command, err)
	}
	return ipc.OK(req.Command)
}
