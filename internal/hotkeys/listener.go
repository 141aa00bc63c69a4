package hotkeys

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the visibility of the MAIN window as seen by the toggle.
type State int32

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Toggler performs the window side of a toggle. Both methods run on the UI
// loop.
type Toggler interface {
	// ShowMain shows (creating if needed) the MAIN window of the default
	// platform, brings it to front and focuses it.
	ShowMain() error
	// HideMain hides the MAIN window without destroying it.
	HideMain() error
}

// Dispatcher hands work to the UI loop. *uiloop.Loop satisfies it.
type Dispatcher interface {
	Post(fn func()) bool
}

// Listener turns raw key events into show/hide toggles.
//
// HandleEvent runs in the OS monitoring context. It only matches the event
// against the live binding, debounces, and posts the toggle; the state machine
// itself advances on the UI loop.
type Listener struct {
	binding    atomic.Pointer[Binding]
	dispatcher Dispatcher
	toggler    Toggler

	// held tracks the key of the press that last triggered a toggle, until
	// its key-up arrives.
	pressMu sync.Mutex
	held    bool
	heldKey KeyCode

	state         atomic.Int32
	onStateChange func(State)

	sourceMu sync.Mutex
	source   Source
}

// NewListener creates a listener in the Hidden state.
func NewListener(binding Binding, dispatcher Dispatcher, toggler Toggler) *Listener {
	l := &Listener{dispatcher: dispatcher, toggler: toggler}
	l.binding.Store(&binding)
	return l
}

// OnStateChange registers fn to run on the UI loop after every state change.
// It must be set before the listener starts receiving events.
func (l *Listener) OnStateChange(fn func(State)) {
	l.onStateChange = fn
}

// Binding returns the active binding.
func (l *Listener) Binding() Binding {
	return *l.binding.Load()
}

// SetBinding replaces the active binding. Events arriving afterwards match the
// new binding; a press already matched is not reinterpreted.
func (l *Listener) SetBinding(b Binding) error {
	l.binding.Store(&b)
	slog.Debug("[DEBUG-hotkey] binding updated", "binding", b.String())

	l.sourceMu.Lock()
	src := l.source
	l.sourceMu.Unlock()
	if src == nil {
		return nil
	}
	return src.Watch(b)
}

// State returns the current visibility state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

// SetState resynchronizes the state after the MAIN window was shown or hidden
// by something other than the hotkey. Call it on the UI loop.
func (l *Listener) SetState(s State) {
	if State(l.state.Swap(int32(s))) != s && l.onStateChange != nil {
		l.onStateChange(s)
	}
}

// HandleEvent consumes one key event. Safe to call from any goroutine.
func (l *Listener) HandleEvent(ev KeyEvent) {
	switch ev.Kind {
	case KeyUp:
		l.pressMu.Lock()
		if l.held && ev.Key == l.heldKey {
			l.held = false
		}
		l.pressMu.Unlock()
	case KeyDown:
		if ev.Repeat {
			return
		}
		if !l.Binding().Matches(ev.Key, ev.Modifiers) {
			return
		}
		l.pressMu.Lock()
		if l.held && l.heldKey == ev.Key {
			l.pressMu.Unlock()
			slog.Debug("[DEBUG-hotkey] key still held, ignoring repeat press")
			return
		}
		l.held = true
		l.heldKey = ev.Key
		l.pressMu.Unlock()
		l.Toggle()
	}
}

// Toggle requests one toggle through the dispatcher. It reports false when the
// dispatcher refused the work (loop stopped).
func (l *Listener) Toggle() bool {
	if l.dispatcher == nil {
		return false
	}
	return l.dispatcher.Post(l.toggle)
}

func (l *Listener) toggle() {
	if l.toggler == nil {
		return
	}
	switch l.State() {
	case Hidden:
		if err := l.toggler.ShowMain(); err != nil {
			slog.Warn("[hotkey] show main window failed, staying hidden", "error", err)
			return
		}
		l.SetState(Visible)
	case Visible:
		if err := l.toggler.HideMain(); err != nil {
			slog.Warn("[hotkey] hide main window failed, staying visible", "error", err)
			return
		}
		l.SetState(Hidden)
	}
}

// Start attaches src and begins observing the active binding.
func (l *Listener) Start(src Source) error {
	if src == nil {
		return errors.New("hotkey source is required")
	}
	l.sourceMu.Lock()
	defer l.sourceMu.Unlock()
	if l.source != nil {
		return errors.New("hotkey listener already started")
	}
	if err := src.Start(l.Binding(), l.HandleEvent); err != nil {
		return err
	}
	l.source = src
	return nil
}

// Stop detaches the source. Safe to call when not started.
func (l *Listener) Stop() error {
	l.sourceMu.Lock()
	src := l.source
	l.source = nil
	l.sourceMu.Unlock()
	if src == nil {
		return nil
	}
	return src.Stop()
}

// Running reports whether a source is attached.
func (l *Listener) Running() bool {
	l.sourceMu.Lock()
	defer l.sourceMu.Unlock()
	return l.source != nil
}
