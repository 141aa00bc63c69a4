package hotkeys

import "errors"

// ErrUnsupported is returned by sources that cannot observe global key events
// on the current platform or session.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// EventKind distinguishes key-down from key-up.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
)

func (k EventKind) String() string {
	if k == KeyUp {
		return "up"
	}
	return "down"
}

// KeyEvent is one observation from the OS input-monitoring context.
type KeyEvent struct {
	Kind      EventKind
	Key       KeyCode
	Modifiers Modifier
	// Repeat marks key-downs generated by keyboard auto-repeat.
	Repeat bool
}

// Source delivers global key events for the watched binding. handler is
// invoked on the source's own goroutine or OS thread and must not block.
type Source interface {
	Start(binding Binding, handler func(KeyEvent)) error
	// Watch switches the observed binding.
	Watch(binding Binding) error
	Stop() error
}
