package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"chatbar/internal/autostart"
	"chatbar/internal/chrome"
	"chatbar/internal/config"
	"chatbar/internal/hotkeys"
	"chatbar/internal/i18n"
	"chatbar/internal/ipc"
	"chatbar/internal/locale"
	"chatbar/internal/session"
	"chatbar/internal/statestore"
	"chatbar/internal/tray"
	"chatbar/internal/window"
	"chatbar/internal/workerutil"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

type appRuntimeLogger interface {
	Warningf(context.Context, string, ...interface{})
	Infof(context.Context, string, ...interface{})
	Errorf(context.Context, string, ...interface{})
}

type wailsRuntimeLogger struct{}

func formatRuntimeLogMessage(message string, args ...interface{}) string {
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

func (wailsRuntimeLogger) Warningf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Warn(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogWarningf(ctx, message, args...)
}

func (wailsRuntimeLogger) Infof(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Info(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogInfof(ctx, message, args...)
}

func (wailsRuntimeLogger) Errorf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Error(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogErrorf(ctx, message, args...)
}

// statusSink is the status item as the app drives it. *tray.Tray implements it.
type statusSink interface {
	chrome.StatusIconSink
	SetSystemLanguageLabel(text string)
	SetLanguages(codes []string, override string)
	SetAutostart(enabled bool)
	Start()
	Stop()
}

var (
	runtimeEventsEmitFn                            = runtime.EventsEmit
	runtimeEventsOnFn                              = runtime.EventsOn
	runtimeWindowShowFn                            = runtime.WindowShow
	runtimeWindowHideFn                            = runtime.WindowHide
	runtimeWindowUnminimiseFn                      = runtime.WindowUnminimise
	runtimeWindowSetAlwaysOnTopFn                  = runtime.WindowSetAlwaysOnTop
	runtimeWindowSetSizeFn                         = runtime.WindowSetSize
	runtimeWindowSetPositionFn                     = runtime.WindowSetPosition
	runtimeQuitFn                                  = runtime.Quit
	runtimeLogger                 appRuntimeLogger = wailsRuntimeLogger{}

	newWindowHostFn         = func(a *App) session.Host { return wailsHost{app: a} }
	newStatusSinkFn         = func(actions tray.Actions) statusSink { return tray.New(actions) }
	newHotkeySourceFn       = hotkeys.NewSystemSource
	newLocaleProviderFn     = locale.SystemProvider
	newAppearanceDetectorFn = chrome.SystemDetector
	newIPCServerFn          = ipc.NewServer
	openStateStoreFn        = statestore.Open
	newAutostartRegistrarFn = func() (*autostart.Registrar, error) {
		desc, err := autostart.CurrentDescriptor()
		if err != nil {
			return nil, err
		}
		return autostart.NewRegistrar(desc)
	}
)

const shutdownWaitTimeout = 10 * time.Second

func (a *App) addPendingConfigLoadWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	a.startupWarnMu.Lock()
	a.configLoadWarnings = append(a.configLoadWarnings, trimmed)
	a.startupWarnMu.Unlock()
}

func (a *App) consumePendingConfigLoadWarning() string {
	a.startupWarnMu.Lock()
	defer a.startupWarnMu.Unlock()
	if len(a.configLoadWarnings) == 0 {
		return ""
	}
	message := strings.Join(a.configLoadWarnings, "\n")
	a.configLoadWarnings = nil
	return message
}

func (a *App) startup(ctx context.Context) {
	a.setRuntimeContext(ctx)

	a.configPath = config.DefaultPath()
	for _, message := range config.ConsumeDefaultPathWarnings() {
		a.addPendingConfigLoadWarning(message)
	}
	cfg, err := config.EnsureFile(a.configPath)
	if err != nil {
		// Config failures are non-fatal: run with defaults and tell the user.
		cfg = config.DefaultConfig()
		a.addPendingConfigLoadWarning(
			"Failed to load config file at startup. Running with defaults. Error: " + err.Error(),
		)
		runtimeLogger.Warningf(ctx, "failed to load config from %s: %v", a.configPath, err)
	}

	storePath := filepath.Join(filepath.Dir(a.configPath), statestore.FileName)
	if store, openErr := openStateStoreFn(storePath); openErr != nil {
		runtimeLogger.Warningf(ctx, "window state store unavailable: %v", openErr)
	} else {
		a.store = store
	}

	if err := a.initServices(cfg); err != nil {
		runtimeLogger.Errorf(ctx, "service initialization failed: %v", err)
		a.addPendingConfigLoadWarning("Failed to initialize chatbar services. Error: " + err.Error())
		a.flushPendingConfigLoadWarnings()
		return
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.bgCancel = cancel
	a.bgWG.Go(func() { a.loop.Run(bgCtx) })
	a.bgWG.Go(func() { a.session.RunStore(bgCtx) })

	a.startLogEvents()
	a.startIPCServer(ctx)
	a.startAutostart(ctx)
	a.status.Start()
	a.post(func() {
		a.refreshLanguageChrome()
		a.startHotkey(cfg)
	})
	a.startAppearanceWatcher(bgCtx)
	a.listenFrontendEvents(ctx)
	a.startConfigWatcher()
	a.startLocaleWatcher(cfg.LocalesDir)
	a.flushPendingConfigLoadWarnings()
}

// initServices builds the UI-loop services for cfg. It starts nothing.
func (a *App) initServices(cfg config.Config) error {
	a.setConfigSnapshot(cfg)

	a.registry = window.NewRegistry(cfg.WindowLimits())
	opts := session.Options{
		DefaultPlatform: cfg.DefaultPlatform,
		DefaultGeometry: cfg.DefaultGeometry(),
	}
	if a.store != nil {
		opts.Store = a.store
	}
	orchestrator, err := session.NewOrchestrator(a.registry, newWindowHostFn(a), opts)
	if err != nil {
		return err
	}
	a.session = orchestrator

	catalog := i18n.NewCatalog(cfg.LocalesDir)
	if err := catalog.Load(); err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	resolver := locale.NewResolver(newLocaleProviderFn(), catalog.Languages(),
		locale.WithEnvLanguage(config.EnvLanguage))
	if cfg.Language != "" && !resolver.SetLanguage(cfg.Language) {
		slog.Warn("[WARN-i18n] configured language has no translations, following the system", "language", cfg.Language)
	}
	a.setTranslator(i18n.NewTranslator(catalog, resolver))

	a.listener = hotkeys.NewListener(cfg.Binding(), a.loop, mainToggler{app: a})
	a.listener.OnStateChange(a.onToggleStateChanged)

	a.status = newStatusSinkFn(a.trayActions())
	a.chrome = chrome.NewController(a.status, a.translate, chrome.Snapshot{
		Appearance:        chrome.AppearanceLight,
		Language:          resolver.Active(),
		Binding:           cfg.Binding(),
		HotkeyUnavailable: true,
		Assets:            chrome.DefaultAssets(),
	})
	a.hotkeyUnavailable.Store(true)
	return nil
}

// startHotkey attaches the OS key source. A failure leaves every other
// feature running and shows the unavailable hint. Runs on the UI loop.
func (a *App) startHotkey(cfg config.Config) {
	if !cfg.HotkeyEnabled {
		slog.Info("[hotkey] global hotkey disabled by config")
		a.stopHotkey()
		a.setHotkeyUnavailable(true)
		return
	}
	if a.listener.Running() {
		if err := a.listener.SetBinding(cfg.Binding()); err != nil {
			runtimeLogger.Warningf(a.runtimeContext(), "global hotkey re-registration failed: %v", err)
			a.setHotkeyUnavailable(true)
			return
		}
		a.setHotkeyUnavailable(false)
		return
	}
	if err := a.listener.SetBinding(cfg.Binding()); err != nil {
		slog.Debug("[DEBUG-hotkey] binding stored before start", "error", err)
	}
	if err := a.listener.Start(newHotkeySourceFn()); err != nil {
		runtimeLogger.Warningf(a.runtimeContext(), "global hotkey registration failed: %v", err)
		a.setHotkeyUnavailable(true)
		return
	}
	runtimeLogger.Infof(a.runtimeContext(), "global hotkey registered: %s", a.listener.Binding())
	a.setHotkeyUnavailable(false)
}

func (a *App) stopHotkey() {
	if a.listener == nil {
		return
	}
	if err := a.listener.Stop(); err != nil {
		slog.Warn("[hotkey] stop failed", "error", err)
	}
}

func (a *App) setHotkeyUnavailable(unavailable bool) {
	a.hotkeyUnavailable.Store(unavailable)
	a.chrome.SetHotkeyUnavailable(unavailable)
}

func (a *App) onToggleStateChanged(state hotkeys.State) {
	slog.Debug("[DEBUG-hotkey] toggle state changed", "state", state.String())
	a.emitRuntimeEvent("window:visibility", map[string]any{
		"visible": state == hotkeys.Visible,
	})
}

func (a *App) startAppearanceWatcher(ctx context.Context) {
	detector := newAppearanceDetectorFn()
	workerutil.RunWithPanicRecovery(ctx, "appearance-watcher", &a.bgWG, func(ctx context.Context) {
		chrome.WatchAppearance(ctx, detector, chrome.DefaultPollInterval, func(appearance chrome.Appearance) {
			a.post(func() { a.chrome.SetAppearance(appearance) })
		})
	}, workerutil.RecoveryOptions{
		IsShutdown: a.shuttingDown.Load,
	})
}

// listenFrontendEvents subscribes to events the frontend emits.
func (a *App) listenFrontendEvents(ctx context.Context) {
	runtimeEventsOnFn(ctx, "chrome:appearance", func(data ...interface{}) {
		if len(data) == 0 {
			return
		}
		value, ok := data[0].(string)
		if !ok {
			return
		}
		appearance := chrome.ParseAppearance(value)
		a.post(func() { a.chrome.SetAppearance(appearance) })
	})
}

func (a *App) startIPCServer(ctx context.Context) {
	a.ipcServer = newIPCServerFn(ipc.DefaultEndpoint(), ipc.HandlerFunc(a.handleIPCRequest))
	if err := a.ipcServer.Start(); err != nil {
		runtimeLogger.Errorf(ctx, "activation server failed: %v", err)
		a.ipcServer = nil
		return
	}
	runtimeLogger.Infof(ctx, "activation server listening: %s", a.ipcServer.Endpoint())
}

func (a *App) startAutostart(ctx context.Context) {
	registrar, err := newAutostartRegistrarFn()
	if err != nil {
		runtimeLogger.Warningf(ctx, "autostart unavailable: %v", err)
		return
	}
	a.autostart = registrar
	a.status.SetAutostart(registrar.IsEnabled())
}

// beforeClose turns the window close button into a hide. It returns false
// once a quit is under way so the application can exit.
func (a *App) beforeClose(_ context.Context) bool {
	if a.shuttingDown.Load() || a.session == nil {
		return false
	}
	a.post(a.hideAll)
	return true
}

// quit ends the application from the status menu.
func (a *App) quit() {
	a.shuttingDown.Store(true)
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	runtimeQuitFn(ctx)
}

func (a *App) shutdown(_ context.Context) {
	a.shuttingDown.Store(true)
	logCtx := a.runtimeContext()

	a.stopWatchers()
	a.stopHotkey()
	if a.status != nil {
		a.status.Stop()
	}
	if a.ipcServer != nil {
		if err := a.ipcServer.Stop(); err != nil {
			runtimeLogger.Warningf(logCtx, "activation server stop failed: %v", err)
		}
	}
	if a.logs != nil {
		a.logs.OnAppend(nil)
	}
	if a.loop != nil {
		a.loop.Stop()
	}
	if a.bgCancel != nil {
		a.bgCancel()
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		runtimeLogger.Warningf(logCtx, "timed out waiting for background workers during shutdown")
	}
	if a.store != nil {
		if a.session != nil {
			if err := a.session.Flush(context.Background()); err != nil {
				runtimeLogger.Warningf(logCtx, "window geometry flush failed: %v", err)
			}
		}
		if err := a.store.Close(); err != nil {
			runtimeLogger.Warningf(logCtx, "window state store close failed: %v", err)
		}
	}
	a.setRuntimeContext(nil)
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	// The waiting goroutine may outlive timeout when waitFn blocks; this only
	// runs during process shutdown.
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

var errRuntimeUnavailable = errors.New("window runtime is not ready")
