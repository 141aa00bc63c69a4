package main

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"chatbar/internal/config"
	"chatbar/internal/ipc"
	"chatbar/internal/singleinstance"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	env, envErr := config.LoadEnv()
	logs := installLogger(env, os.Stderr)
	if envErr != nil {
		slog.Warn("[WARN-CONFIG] invalid CHATBAR_* environment, using defaults", "error", envErr)
	}

	command := ipc.CommandActivate
	if len(os.Args) > 1 {
		parsed, err := ipc.ParseCommand(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "chatbar: %v (expected activate, toggle, show or hide)\n", err)
			os.Exit(2)
		}
		command = parsed
	}

	// Single-instance check before any Wails initialization.
	lock, err := singleinstance.TryLock(singleinstance.DefaultName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[DEBUG-SINGLE] another instance is already running, forwarding command", "command", command)
		resp, sendErr := ipc.Send("", ipc.Request{Command: command})
		if sendErr != nil {
			slog.Warn("[DEBUG-SINGLE] failed to signal existing instance", "error", sendErr)
			os.Exit(1)
		}
		if resp.ExitCode != 0 {
			fmt.Fprintln(os.Stderr, resp.Message)
		}
		os.Exit(resp.ExitCode)
	}
	if err != nil {
		slog.Warn("[DEBUG-SINGLE] instance lock failed, proceeding without single-instance guard", "error", err)
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("[DEBUG-SINGLE] instance lock release failed", "error", releaseErr)
			}
		}()
	}

	app := NewApp(logs)
	defaults := config.DefaultConfig()

	err = wails.Run(&options.App{
		Title:       "chatbar",
		Width:       defaults.Window.Width,
		Height:      defaults.Window.Height,
		MinWidth:    320,
		MinHeight:   240,
		StartHidden: true,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		OnStartup:        app.startup,
		OnBeforeClose:    app.beforeClose,
		OnShutdown:       app.shutdown,
		Bind: []any{
			app,
		},
	})

	if err != nil {
		slog.Error("[DEBUG-SINGLE] wails run failed", "error", err)
	}
}
