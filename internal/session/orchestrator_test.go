package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"

	"chatbar/internal/hotkeys"
	"chatbar/internal/testutil"
	"chatbar/internal/window"
)

type recordingHost struct {
	mu         sync.Mutex
	presented  []window.ID
	dismissed  []window.ID
	presentErr error
}

func (h *recordingHost) Present(w window.Window) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.presentErr != nil {
		return h.presentErr
	}
	h.presented = append(h.presented, w.ID)
	return nil
}

func (h *recordingHost) Dismiss(w window.Window) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dismissed = append(h.dismissed, w.ID)
	return nil
}

type memoryStore struct {
	mu       sync.Mutex
	geometry map[string]window.Geometry
	saves    int
	loads    int
}

func (s *memoryStore) SaveGeometry(_ context.Context, platformID string, g window.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.geometry[platformID] = g
	return nil
}

func (s *memoryStore) LoadAllGeometry(context.Context) (map[string]window.Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return maps.Clone(s.geometry), nil
}

func (s *memoryStore) stored(platformID string) window.Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geometry[platformID]
}

func (s *memoryStore) calls() (loads, saves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.saves
}

var defaultGeometry = window.Geometry{Width: 1000, Height: 720}

func newTestOrchestrator(t *testing.T, limits window.Limits, host Host, store GeometryStore) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(window.NewRegistry(limits), host, Options{
		DefaultPlatform: "chatgpt",
		DefaultGeometry: defaultGeometry,
		Store:           store,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator error = %v", err)
	}
	return o
}

func TestShowMainCreatesOnceAndReuses(t *testing.T) {
	host := &recordingHost{}
	o := newTestOrchestrator(t, window.Limits{}, host, nil)

	if err := o.ShowMain(); err != nil {
		t.Fatalf("ShowMain error = %v", err)
	}
	if err := o.HideMain(); err != nil {
		t.Fatalf("HideMain error = %v", err)
	}
	if err := o.ShowMain(); err != nil {
		t.Fatalf("second ShowMain error = %v", err)
	}
	if got := o.Registry().Len(); got != 1 {
		t.Fatalf("registry Len = %d, want 1", got)
	}
	if len(host.presented) != 2 || host.presented[0] != host.presented[1] {
		t.Fatalf("presented = %v, want the same window twice", host.presented)
	}
	if !o.MainVisible() {
		t.Fatal("MainVisible() = false after ShowMain")
	}
}

func TestHideMainKeepsWindowRegistered(t *testing.T) {
	host := &recordingHost{}
	o := newTestOrchestrator(t, window.Limits{}, host, nil)
	if err := o.ShowMain(); err != nil {
		t.Fatalf("ShowMain error = %v", err)
	}
	if err := o.HideMain(); err != nil {
		t.Fatalf("HideMain error = %v", err)
	}
	if o.MainVisible() {
		t.Fatal("MainVisible() = true after HideMain")
	}
	w, ok := o.Registry().FindMain("chatgpt")
	if !ok || w.Visible {
		t.Fatalf("FindMain after hide = (%+v, %v), want hidden window", w, ok)
	}
	if err := o.HideMain(); err != nil {
		t.Fatalf("HideMain with nothing shown error = %v", err)
	}
}

func TestShowMainRespectsLimits(t *testing.T) {
	host := &recordingHost{}
	o := newTestOrchestrator(t, window.Limits{MaxTotal: testutil.Ptr(1)}, host, nil)
	if _, err := o.OpenWindow("claude", window.TypeSecondary); err != nil {
		t.Fatalf("OpenWindow error = %v", err)
	}
	err := o.ShowMain()
	if !errors.Is(err, window.ErrLimitExceeded) {
		t.Fatalf("ShowMain at capacity error = %v, want ErrLimitExceeded", err)
	}
	if got := o.Registry().Len(); got != 1 {
		t.Fatalf("registry Len = %d, want 1", got)
	}
}

func TestToggleStaysHiddenWhenShowFails(t *testing.T) {
	host := &recordingHost{}
	o := newTestOrchestrator(t, window.Limits{MaxTotal: testutil.Ptr(0)}, host, nil)
	dispatcher := &inlineDispatcher{}
	l := hotkeys.NewListener(hotkeys.DefaultBinding, dispatcher, o)

	l.HandleEvent(hotkeys.KeyEvent{Kind: hotkeys.KeyDown, Key: hotkeys.KeyG, Modifiers: hotkeys.ModCommand})
	if l.State() != hotkeys.Hidden {
		t.Fatalf("State after failed show = %v, want hidden", l.State())
	}
}

func TestToggleRoundTripThroughListener(t *testing.T) {
	host := &recordingHost{}
	o := newTestOrchestrator(t, window.Limits{}, host, nil)
	l := hotkeys.NewListener(hotkeys.DefaultBinding, &inlineDispatcher{}, o)

	press := hotkeys.KeyEvent{Kind: hotkeys.KeyDown, Key: hotkeys.KeyG, Modifiers: hotkeys.ModCommand}
	release := hotkeys.KeyEvent{Kind: hotkeys.KeyUp, Key: hotkeys.KeyG}
	l.HandleEvent(press)
	l.HandleEvent(release)
	if l.State() != hotkeys.Visible || !o.MainVisible() {
		t.Fatalf("after first press state = %v visible = %v", l.State(), o.MainVisible())
	}
	l.HandleEvent(press)
	l.HandleEvent(release)
	if l.State() != hotkeys.Hidden || o.MainVisible() {
		t.Fatalf("after second press state = %v visible = %v", l.State(), o.MainVisible())
	}
	if len(host.dismissed) != 1 {
		t.Fatalf("dismissed = %v, want one window", host.dismissed)
	}
}

func TestGeometryRestoredAndSaved(t *testing.T) {
	saved := window.Geometry{X: 50, Y: 60, Width: 640, Height: 480}
	store := &memoryStore{geometry: map[string]window.Geometry{"chatgpt": saved}}
	o := newTestOrchestrator(t, window.Limits{}, &recordingHost{}, store)
	if err := o.Restore(context.Background()); err != nil {
		t.Fatalf("Restore error = %v", err)
	}

	if err := o.ShowMain(); err != nil {
		t.Fatalf("ShowMain error = %v", err)
	}
	w, _ := o.Registry().FindMain("chatgpt")
	if w.Geometry != saved {
		t.Fatalf("restored geometry = %+v, want %+v", w.Geometry, saved)
	}

	moved := window.Geometry{X: 1, Y: 2, Width: 900, Height: 700}
	if _, err := o.Relocate(w.ID, moved); err != nil {
		t.Fatalf("Relocate error = %v", err)
	}
	if err := o.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error = %v", err)
	}
	if got := store.stored("chatgpt"); got != moved {
		t.Fatalf("stored geometry = %+v, want %+v", got, moved)
	}

	other, err := o.OpenWindow("gemini", window.TypeMain)
	if err != nil {
		t.Fatalf("OpenWindow error = %v", err)
	}
	if other.Geometry != defaultGeometry {
		t.Fatalf("geometry without stored placement = %+v, want default", other.Geometry)
	}
}

func TestWindowOperationsLeaveStoreToRunStore(t *testing.T) {
	store := &memoryStore{geometry: map[string]window.Geometry{}}
	o := newTestOrchestrator(t, window.Limits{}, &recordingHost{}, store)

	if err := o.ShowMain(); err != nil {
		t.Fatalf("ShowMain error = %v", err)
	}
	w, _ := o.Registry().FindMain("chatgpt")
	moved := window.Geometry{X: 10, Y: 20, Width: 800, Height: 600}
	if _, err := o.Relocate(w.ID, moved); err != nil {
		t.Fatalf("Relocate error = %v", err)
	}
	o.CloseWindow(w.ID)
	if loads, saves := store.calls(); loads != 0 || saves != 0 {
		t.Fatalf("store calls from window operations = %d loads, %d saves; want none", loads, saves)
	}

	// The placement is remembered in memory before it reaches the store.
	reopened, err := o.OpenWindow("chatgpt", window.TypeMain)
	if err != nil {
		t.Fatalf("OpenWindow error = %v", err)
	}
	if reopened.Geometry != moved {
		t.Fatalf("reopened geometry = %+v, want %+v", reopened.Geometry, moved)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.RunStore(ctx)
		close(done)
	}()
	cancel()
	<-done
	if got := store.stored("chatgpt"); got != moved {
		t.Fatalf("stored geometry after RunStore = %+v, want %+v", got, moved)
	}
}

func TestRestoreKeepsNewerPlacements(t *testing.T) {
	store := &memoryStore{geometry: map[string]window.Geometry{
		"chatgpt": {X: 5, Y: 5, Width: 500, Height: 500},
	}}
	o := newTestOrchestrator(t, window.Limits{}, &recordingHost{}, store)
	w, err := o.OpenWindow("chatgpt", window.TypeMain)
	if err != nil {
		t.Fatalf("OpenWindow error = %v", err)
	}
	moved := window.Geometry{X: 70, Y: 80, Width: 700, Height: 800}
	if _, err := o.Relocate(w.ID, moved); err != nil {
		t.Fatalf("Relocate error = %v", err)
	}
	if err := o.Restore(context.Background()); err != nil {
		t.Fatalf("Restore error = %v", err)
	}
	if got := o.initialGeometry("chatgpt"); got != moved {
		t.Fatalf("initialGeometry after Restore = %+v, want %+v", got, moved)
	}
}

func TestHideAllHidesEveryVisibleWindow(t *testing.T) {
	host := &recordingHost{}
	o := newTestOrchestrator(t, window.Limits{}, host, nil)
	if err := o.ShowMain(); err != nil {
		t.Fatalf("ShowMain error = %v", err)
	}
	secondary, err := o.OpenWindow("claude", window.TypeSecondary)
	if err != nil {
		t.Fatalf("OpenWindow error = %v", err)
	}

	if err := o.HideAll(); err != nil {
		t.Fatalf("HideAll error = %v", err)
	}
	if o.MainVisible() {
		t.Fatal("MainVisible = true after HideAll")
	}
	for _, w := range o.Registry().List() {
		if w.Visible {
			t.Fatalf("window %s still visible after HideAll", w.ID)
		}
	}
	if len(host.dismissed) != 2 || !slices.Contains(host.dismissed, secondary.ID) {
		t.Fatalf("dismissed = %v, want main and %s", host.dismissed, secondary.ID)
	}
	if o.Registry().Len() != 2 {
		t.Fatalf("registry Len = %d, want windows kept", o.Registry().Len())
	}
}

func TestCloseWindowIsIdempotent(t *testing.T) {
	host := &recordingHost{}
	o := newTestOrchestrator(t, window.Limits{}, host, nil)
	w, err := o.OpenWindow("claude", window.TypeMain)
	if err != nil {
		t.Fatalf("OpenWindow error = %v", err)
	}
	if !o.CloseWindow(w.ID) {
		t.Fatal("first CloseWindow = false")
	}
	if o.CloseWindow(w.ID) {
		t.Fatal("second CloseWindow = true")
	}
	if len(host.dismissed) != 1 {
		t.Fatalf("dismissed = %v, want one call", host.dismissed)
	}
}

func TestShowMainFollowsDefaultPlatform(t *testing.T) {
	o := newTestOrchestrator(t, window.Limits{}, &recordingHost{}, nil)
	o.SetDefaultPlatform("deepseek")
	if err := o.ShowMain(); err != nil {
		t.Fatalf("ShowMain error = %v", err)
	}
	if _, ok := o.Registry().FindMain("deepseek"); !ok {
		t.Fatal("no MAIN window for new default platform")
	}
	o.SetDefaultPlatform(" ")
	if err := o.ShowMain(); err == nil {
		t.Fatal("ShowMain without default platform error = nil")
	}
}

type inlineDispatcher struct{}

func (inlineDispatcher) Post(fn func()) bool {
	fn()
	return true
}
