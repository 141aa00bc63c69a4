package main

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"chatbar/internal/autostart"
	"chatbar/internal/chrome"
	"chatbar/internal/config"
	"chatbar/internal/hotkeys"
	"chatbar/internal/ipc"
	"chatbar/internal/locale"
	"chatbar/internal/session"
	"chatbar/internal/statestore"
	"chatbar/internal/tray"
	"chatbar/internal/window"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// NOTE: Tests in this package swap package-level function variables
// (runtimeEventsEmitFn, newWindowHostFn, etc.). Do not use t.Parallel().

type testLogger struct{}

func (testLogger) Warningf(context.Context, string, ...any) {}
func (testLogger) Infof(context.Context, string, ...any)    {}
func (testLogger) Errorf(context.Context, string, ...any)   {}

type recordedEvent struct {
	name    string
	payload any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) emit(_ context.Context, name string, data ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var payload any
	if len(data) > 0 {
		payload = data[0]
	}
	r.events = append(r.events, recordedEvent{name: name, payload: payload})
}

func (r *eventRecorder) named(name string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeHost struct {
	mu        sync.Mutex
	presented []window.Window
	dismissed []window.Window
}

func (h *fakeHost) Present(w window.Window) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.presented = append(h.presented, w)
	return nil
}

func (h *fakeHost) Dismiss(w window.Window) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dismissed = append(h.dismissed, w)
	return nil
}

func (h *fakeHost) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presented), len(h.dismissed)
}

type fakeStatus struct {
	mu          sync.Mutex
	icon        []byte
	tooltip     string
	hint        string
	labels      chrome.MenuLabels
	systemLabel string
	languages   []string
	override    string
	autostartOn bool
	started     bool
	stopped     bool
}

func (s *fakeStatus) SetIcon(data []byte) { s.mu.Lock(); s.icon = data; s.mu.Unlock() }
func (s *fakeStatus) SetTooltip(text string) {
	s.mu.Lock()
	s.tooltip = text
	s.mu.Unlock()
}
func (s *fakeStatus) SetHint(text string) { s.mu.Lock(); s.hint = text; s.mu.Unlock() }
func (s *fakeStatus) SetMenuLabels(labels chrome.MenuLabels) {
	s.mu.Lock()
	s.labels = labels
	s.mu.Unlock()
}
func (s *fakeStatus) SetSystemLanguageLabel(text string) {
	s.mu.Lock()
	s.systemLabel = text
	s.mu.Unlock()
}
func (s *fakeStatus) SetLanguages(codes []string, override string) {
	s.mu.Lock()
	s.languages = slices.Clone(codes)
	s.override = override
	s.mu.Unlock()
}
func (s *fakeStatus) SetAutostart(enabled bool) {
	s.mu.Lock()
	s.autostartOn = enabled
	s.mu.Unlock()
}
func (s *fakeStatus) Start() { s.mu.Lock(); s.started = true; s.mu.Unlock() }
func (s *fakeStatus) Stop()  { s.mu.Lock(); s.stopped = true; s.mu.Unlock() }

type statusView struct {
	icon        []byte
	tooltip     string
	hint        string
	labels      chrome.MenuLabels
	systemLabel string
	languages   []string
	override    string
	autostartOn bool
}

func (s *fakeStatus) snapshot() statusView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statusView{
		icon:        s.icon,
		tooltip:     s.tooltip,
		hint:        s.hint,
		labels:      s.labels,
		systemLabel: s.systemLabel,
		languages:   slices.Clone(s.languages),
		override:    s.override,
		autostartOn: s.autostartOn,
	}
}

type fakeKeySource struct {
	mu       sync.Mutex
	startErr error
	watchErr error
	started  []hotkeys.Binding
	watched  []hotkeys.Binding
	stopped  int
}

func (f *fakeKeySource) Start(b hotkeys.Binding, _ func(hotkeys.KeyEvent)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, b)
	return nil
}

func (f *fakeKeySource) Watch(b hotkeys.Binding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return f.watchErr
	}
	f.watched = append(f.watched, b)
	return nil
}

func (f *fakeKeySource) Stop() error {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
	return nil
}

type testEnv struct {
	app    *App
	host   *fakeHost
	status *fakeStatus
	events *eventRecorder
	source *fakeKeySource
}

func restoreAppHooks() {
	runtimeEventsEmitFn = runtime.EventsEmit
	runtimeEventsOnFn = runtime.EventsOn
	runtimeWindowShowFn = runtime.WindowShow
	runtimeWindowHideFn = runtime.WindowHide
	runtimeWindowUnminimiseFn = runtime.WindowUnminimise
	runtimeWindowSetAlwaysOnTopFn = runtime.WindowSetAlwaysOnTop
	runtimeWindowSetSizeFn = runtime.WindowSetSize
	runtimeWindowSetPositionFn = runtime.WindowSetPosition
	runtimeQuitFn = runtime.Quit
	runtimeLogger = wailsRuntimeLogger{}
	newWindowHostFn = func(a *App) session.Host { return wailsHost{app: a} }
	newStatusSinkFn = func(actions tray.Actions) statusSink { return tray.New(actions) }
	newHotkeySourceFn = hotkeys.NewSystemSource
	newLocaleProviderFn = locale.SystemProvider
	newAppearanceDetectorFn = chrome.SystemDetector
	newIPCServerFn = ipc.NewServer
	openStateStoreFn = statestore.Open
	newAutostartRegistrarFn = func() (*autostart.Registrar, error) {
		desc, err := autostart.CurrentDescriptor()
		if err != nil {
			return nil, err
		}
		return autostart.NewRegistrar(desc)
	}
}

// newTestEnv builds an App over fakes with its UI loop running. The config
// file lives in a temp dir pointed to by CHATBAR_CONFIG.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	return buildTestEnv(t, mutate, nil)
}

// buildTestEnv is newTestEnv with a custom window host; nil uses env.host.
func buildTestEnv(t *testing.T, mutate func(*config.Config), hostFn func(*App) session.Host) *testEnv {
	t.Helper()
	t.Cleanup(restoreAppHooks)
	t.Setenv("CHATBAR_LANG", "")
	t.Setenv("CHATBAR_CONFIG", filepath.Join(t.TempDir(), "chatbar", config.FileName))

	env := &testEnv{
		host:   &fakeHost{},
		status: &fakeStatus{},
		events: &eventRecorder{},
		source: &fakeKeySource{},
	}
	runtimeEventsEmitFn = env.events.emit
	runtimeLogger = testLogger{}
	newWindowHostFn = func(*App) session.Host { return env.host }
	if hostFn != nil {
		newWindowHostFn = hostFn
	}
	newStatusSinkFn = func(tray.Actions) statusSink { return env.status }
	newHotkeySourceFn = func() hotkeys.Source { return env.source }
	newLocaleProviderFn = func() locale.Provider {
		return locale.ProviderFunc(func() ([]string, error) { return []string{"en-US"}, nil })
	}

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	app := NewApp(nil)
	app.configPath = config.DefaultPath()
	saved, err := config.Save(app.configPath, cfg)
	if err != nil {
		t.Fatalf("config.Save() error = %v", err)
	}
	if err := app.initServices(saved); err != nil {
		t.Fatalf("initServices() error = %v", err)
	}
	app.setRuntimeContext(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	app.bgWG.Go(func() { app.loop.Run(ctx) })
	t.Cleanup(func() {
		cancel()
		app.bgWG.Wait()
	})

	env.app = app
	env.sync(t)
	return env
}

// sync waits until every task posted so far has run.
func (e *testEnv) sync(t *testing.T) {
	t.Helper()
	if err := e.app.call(func() error { return nil }); err != nil {
		t.Fatalf("ui loop sync error = %v", err)
	}
}

// onLoop runs fn on the UI loop and waits for it.
func (e *testEnv) onLoop(t *testing.T, fn func()) {
	t.Helper()
	if err := e.app.call(func() error { fn(); return nil }); err != nil {
		t.Fatalf("ui loop call error = %v", err)
	}
}
