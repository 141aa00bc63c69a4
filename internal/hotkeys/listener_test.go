package hotkeys

import (
	"errors"
	"sync"
	"testing"
)

// queueDispatcher records posted tasks so tests control when the UI loop
// runs them.
type queueDispatcher struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
}

func (d *queueDispatcher) Post(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.tasks = append(d.tasks, fn)
	return true
}

func (d *queueDispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

func (d *queueDispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.tasks) == 0 {
			d.mu.Unlock()
			return
		}
		task := d.tasks[0]
		d.tasks = d.tasks[1:]
		d.mu.Unlock()
		task()
	}
}

type recordingToggler struct {
	shows, hides int
	showErr      error
}

func (r *recordingToggler) ShowMain() error {
	r.shows++
	return r.showErr
}

func (r *recordingToggler) HideMain() error {
	r.hides++
	return nil
}

func down(key KeyCode, mods Modifier) KeyEvent {
	return KeyEvent{Kind: KeyDown, Key: key, Modifiers: mods}
}

func up(key KeyCode) KeyEvent {
	return KeyEvent{Kind: KeyUp, Key: key}
}

func TestHeldKeyTogglesOnce(t *testing.T) {
	d := &queueDispatcher{}
	tg := &recordingToggler{}
	l := NewListener(DefaultBinding, d, tg)

	for range 5 {
		l.HandleEvent(down(KeyG, ModCommand))
	}
	d.drain()

	if tg.shows != 1 || tg.hides != 0 {
		t.Fatalf("shows/hides = %d/%d, want 1/0", tg.shows, tg.hides)
	}
	if l.State() != Visible {
		t.Fatalf("State() = %v, want visible", l.State())
	}
}

func TestReleaseRearmsToggle(t *testing.T) {
	d := &queueDispatcher{}
	tg := &recordingToggler{}
	l := NewListener(DefaultBinding, d, tg)

	l.HandleEvent(down(KeyG, ModCommand))
	l.HandleEvent(up(KeyG))
	l.HandleEvent(down(KeyG, ModCommand))
	l.HandleEvent(up(KeyG))
	d.drain()

	if tg.shows != 1 || tg.hides != 1 {
		t.Fatalf("shows/hides = %d/%d, want 1/1", tg.shows, tg.hides)
	}
	if l.State() != Hidden {
		t.Fatalf("State() = %v, want hidden", l.State())
	}
}

func TestAutoRepeatEventsIgnored(t *testing.T) {
	d := &queueDispatcher{}
	l := NewListener(DefaultBinding, d, &recordingToggler{})

	ev := down(KeyG, ModCommand)
	ev.Repeat = true
	l.HandleEvent(ev)
	if d.pending() != 0 {
		t.Fatalf("repeat key-down posted %d toggles, want 0", d.pending())
	}
}

func TestNonMatchingEventsIgnored(t *testing.T) {
	d := &queueDispatcher{}
	l := NewListener(DefaultBinding, d, &recordingToggler{})

	l.HandleEvent(down(KeyG, ModControl))
	l.HandleEvent(down(KeySpace, ModCommand))
	l.HandleEvent(up(KeyG))
	if d.pending() != 0 {
		t.Fatalf("non-matching events posted %d toggles, want 0", d.pending())
	}
}

func TestToggleOnlyAdvancesOnDispatcher(t *testing.T) {
	d := &queueDispatcher{}
	tg := &recordingToggler{}
	l := NewListener(DefaultBinding, d, tg)

	l.HandleEvent(down(KeyG, ModCommand))
	if tg.shows != 0 || l.State() != Hidden {
		t.Fatal("toggle ran in the monitoring context instead of the dispatcher")
	}
	if d.pending() != 1 {
		t.Fatalf("pending toggles = %d, want 1", d.pending())
	}
	d.drain()
	if l.State() != Visible {
		t.Fatalf("State() after drain = %v, want visible", l.State())
	}
}

func TestRebindAppliesToNextEvent(t *testing.T) {
	d := &queueDispatcher{}
	tg := &recordingToggler{}
	l := NewListener(DefaultBinding, d, tg)

	space, err := NewBinding(uint32(ModCommand|ModShift), uint16(KeySpace))
	if err != nil {
		t.Fatalf("NewBinding error = %v", err)
	}

	// The G press is matched before the rebind and keeps its toggle.
	l.HandleEvent(down(KeyG, ModCommand))
	if err := l.SetBinding(space); err != nil {
		t.Fatalf("SetBinding error = %v", err)
	}
	l.HandleEvent(up(KeyG))

	l.HandleEvent(down(KeyG, ModCommand))
	l.HandleEvent(down(KeySpace, ModCommand|ModShift))
	d.drain()

	if tg.shows != 1 || tg.hides != 1 {
		t.Fatalf("shows/hides = %d/%d, want 1/1", tg.shows, tg.hides)
	}
	if got := l.Binding(); got != space {
		t.Fatalf("Binding() = %v, want %v", got, space)
	}
}

func TestFailedShowStaysHidden(t *testing.T) {
	d := &queueDispatcher{}
	tg := &recordingToggler{showErr: errors.New("limit reached")}
	l := NewListener(DefaultBinding, d, tg)

	l.HandleEvent(down(KeyG, ModCommand))
	d.drain()
	if l.State() != Hidden {
		t.Fatalf("State() = %v, want hidden after failed show", l.State())
	}
}

func TestStateChangeCallbackAndSetState(t *testing.T) {
	d := &queueDispatcher{}
	l := NewListener(DefaultBinding, d, &recordingToggler{})
	var seen []State
	l.OnStateChange(func(s State) { seen = append(seen, s) })

	l.Toggle()
	d.drain()
	l.SetState(Visible) // already visible: no callback
	l.SetState(Hidden)

	if len(seen) != 2 || seen[0] != Visible || seen[1] != Hidden {
		t.Fatalf("state changes = %v, want [visible hidden]", seen)
	}
}

func TestToggleAfterDispatcherClosed(t *testing.T) {
	d := &queueDispatcher{closed: true}
	l := NewListener(DefaultBinding, d, &recordingToggler{})
	if l.Toggle() {
		t.Fatal("Toggle() = true with closed dispatcher")
	}
}

type fakeSource struct {
	started  Binding
	watched  []Binding
	handler  func(KeyEvent)
	startErr error
	stopped  bool
}

func (f *fakeSource) Start(b Binding, h func(KeyEvent)) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = b
	f.handler = h
	return nil
}

func (f *fakeSource) Watch(b Binding) error {
	f.watched = append(f.watched, b)
	return nil
}

func (f *fakeSource) Stop() error {
	f.stopped = true
	return nil
}

func TestStartWiresSource(t *testing.T) {
	d := &queueDispatcher{}
	tg := &recordingToggler{}
	l := NewListener(DefaultBinding, d, tg)
	src := &fakeSource{}

	if err := l.Start(src); err != nil {
		t.Fatalf("Start error = %v", err)
	}
	if err := l.Start(src); err == nil {
		t.Fatal("second Start error = nil, want error")
	}
	if src.started != DefaultBinding {
		t.Fatalf("source started with %v, want %v", src.started, DefaultBinding)
	}

	src.handler(down(KeyG, ModCommand))
	d.drain()
	if tg.shows != 1 {
		t.Fatalf("shows = %d, want 1", tg.shows)
	}

	next, _ := ParseBinding("Ctrl+Space")
	if err := l.SetBinding(next); err != nil {
		t.Fatalf("SetBinding error = %v", err)
	}
	if len(src.watched) != 1 || src.watched[0] != next {
		t.Fatalf("source watched %v, want [%v]", src.watched, next)
	}

	if err := l.Stop(); err != nil || !src.stopped {
		t.Fatalf("Stop = %v, stopped = %v", err, src.stopped)
	}
	if l.Running() {
		t.Fatal("Running() = true after Stop")
	}
}

func TestStartPropagatesUnsupported(t *testing.T) {
	l := NewListener(DefaultBinding, &queueDispatcher{}, &recordingToggler{})
	err := l.Start(&fakeSource{startErr: ErrUnsupported})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Start error = %v, want ErrUnsupported", err)
	}
	if l.Running() {
		t.Fatal("Running() = true after failed Start")
	}
}
