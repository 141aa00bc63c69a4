package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"chatbar/internal/autostart"
	"chatbar/internal/chrome"
	"chatbar/internal/config"
	"chatbar/internal/filewatch"
	"chatbar/internal/hotkeys"
	"chatbar/internal/i18n"
	"chatbar/internal/ipc"
	"chatbar/internal/session"
	"chatbar/internal/sessionlog"
	"chatbar/internal/statestore"
	"chatbar/internal/uiloop"
	"chatbar/internal/window"
)

// App is the Wails-bound application service.
//
// Window, binding, chrome and language mutations run on loop. Bound methods
// called by Wails reach the loop through a.call; OS callbacks use a.post.
type App struct {
	// Runtime context lifecycle.
	ctx   context.Context
	ctxMu sync.RWMutex

	// Configuration state.
	// Lock ordering (outer -> inner): cfgSaveMu -> cfgMu.
	cfgMu              sync.RWMutex
	cfgSaveMu          sync.Mutex
	configEventVersion atomic.Uint64
	cfg                config.Config
	configPath         string
	startupWarnMu      sync.Mutex
	configLoadWarnings []string

	logs *sessionlog.Buffer

	// Services. Set by initServices before any bound method runs.
	loop      *uiloop.Loop
	registry  *window.Registry
	session   *session.Orchestrator
	listener  *hotkeys.Listener
	chrome    *chrome.Controller
	status    statusSink
	autostart *autostart.Registrar
	store     *statestore.Store
	ipcServer *ipc.Server

	// hotkeyUnavailable is true while no key source is attached.
	hotkeyUnavailable atomic.Bool

	// translator is swapped when the locales directory changes.
	i18nMu     sync.RWMutex
	translator *i18n.Translator

	watchMu       sync.Mutex
	configWatcher *filewatch.Watcher
	localeWatcher *filewatch.Watcher

	shuttingDown atomic.Bool
	bgCancel     context.CancelFunc
	bgWG         sync.WaitGroup
}

// NewApp creates the app service. logs receives the warnings shown by
// GetRecentLog and may be nil.
func NewApp(logs *sessionlog.Buffer) *App {
	if logs == nil {
		logs = sessionlog.NewBuffer(sessionlog.DefaultCapacity)
	}
	return &App{
		cfg:  config.DefaultConfig(),
		logs: logs,
		loop: uiloop.New(),
	}
}

func (a *App) setRuntimeContext(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
}

func (a *App) runtimeContext() context.Context {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()
	return ctx
}

var errServicesUnavailable = errors.New("application services are not initialized")

// post schedules fn on the UI loop without waiting.
func (a *App) post(fn func()) bool {
	if a.loop == nil {
		return false
	}
	return a.loop.Post(fn)
}

// call runs fn on the UI loop and waits for it.
func (a *App) call(fn func() error) error {
	if a.loop == nil || a.session == nil {
		return errServicesUnavailable
	}
	ctx := a.runtimeContext()
	if ctx == nil {
		ctx = context.Background()
	}
	var fnErr error
	if err := a.loop.Call(ctx, func() { fnErr = fn() }); err != nil {
		return fmt.Errorf("ui loop: %w", err)
	}
	return fnErr
}
