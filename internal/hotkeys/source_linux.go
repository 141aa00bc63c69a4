//go:build linux

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// autoRepeatWindow is how long a release is held back to see whether X
// pairs it with a synthetic press of the same timestamp.
const autoRepeatWindow = 30 * time.Millisecond

// x11Source grabs the binding on the root window. X reports both press and
// release; auto-repeat arrives as release/press pairs sharing one timestamp,
// which are folded into a single repeated key-down.
type x11Source struct {
	mu      sync.Mutex
	xu      *xgbutil.XUtil
	root    xproto.Window
	handler func(KeyEvent)
	done    chan struct{}

	pendingRelease *time.Timer
	releaseTime    xproto.Timestamp
}

// NewSystemSource returns the key source for this platform.
func NewSystemSource() Source {
	return &x11Source{}
}

func (s *x11Source) Start(binding Binding, handler func(KeyEvent)) error {
	if handler == nil {
		return errors.New("hotkey handler is required")
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return fmt.Errorf("%w: connect to X server: %v", ErrUnsupported, err)
	}
	keybind.Initialize(xu)

	s.mu.Lock()
	s.xu = xu
	s.root = xu.RootWin()
	s.handler = handler
	s.done = make(chan struct{})
	err = s.grabLocked(binding)
	done := s.done
	s.mu.Unlock()
	if err != nil {
		xu.Conn().Close()
		return err
	}

	go func() {
		defer close(done)
		xevent.Main(xu)
	}()
	return nil
}

func (s *x11Source) Watch(binding Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.xu == nil {
		return errors.New("hotkey source not started")
	}
	keybind.Detach(s.xu, s.root)
	return s.grabLocked(binding)
}

func (s *x11Source) Stop() error {
	s.mu.Lock()
	xu := s.xu
	done := s.done
	s.xu = nil
	s.handler = nil
	if s.pendingRelease != nil {
		s.pendingRelease.Stop()
		s.pendingRelease = nil
	}
	s.mu.Unlock()
	if xu == nil {
		return nil
	}

	keybind.Detach(xu, xu.RootWin())
	xevent.Quit(xu)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		slog.Warn("[hotkey] X event loop did not exit in time")
	}
	xu.Conn().Close()
	return nil
}

func (s *x11Source) grabLocked(binding Binding) error {
	seq, err := x11KeySequence(binding)
	if err != nil {
		return err
	}
	key := binding.Key()
	mods := binding.Modifiers()

	press := keybind.KeyPressFun(func(_ *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		s.onPress(key, mods, ev.Time)
	})
	if err := press.Connect(s.xu, s.root, seq, true); err != nil {
		return fmt.Errorf("grab %q: %w", seq, err)
	}
	release := keybind.KeyReleaseFun(func(_ *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
		s.onRelease(key, ev.Time)
	})
	if err := release.Connect(s.xu, s.root, seq, false); err != nil {
		keybind.Detach(s.xu, s.root)
		return fmt.Errorf("watch release of %q: %w", seq, err)
	}
	slog.Debug("[DEBUG-hotkey] X11 grab installed", "sequence", seq)
	return nil
}

func (s *x11Source) onPress(key KeyCode, mods Modifier, ts xproto.Timestamp) {
	s.mu.Lock()
	handler := s.handler
	repeat := false
	if s.pendingRelease != nil && s.releaseTime == ts {
		s.pendingRelease.Stop()
		s.pendingRelease = nil
		repeat = true
	}
	s.mu.Unlock()
	if handler != nil {
		handler(KeyEvent{Kind: KeyDown, Key: key, Modifiers: mods, Repeat: repeat})
	}
}

func (s *x11Source) onRelease(key KeyCode, ts xproto.Timestamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingRelease != nil {
		s.pendingRelease.Stop()
	}
	s.releaseTime = ts
	var timer *time.Timer
	timer = time.AfterFunc(autoRepeatWindow, func() {
		s.mu.Lock()
		if s.pendingRelease != timer {
			s.mu.Unlock()
			return
		}
		s.pendingRelease = nil
		handler := s.handler
		s.mu.Unlock()
		if handler != nil {
			handler(KeyEvent{Kind: KeyUp, Key: key})
		}
	})
	s.pendingRelease = timer
}

// x11KeySequence renders b in keybind's "Mod4-shift-g" syntax.
func x11KeySequence(b Binding) (string, error) {
	keysym, ok := x11KeysymName(b.Key())
	if !ok || keysym == "" {
		return "", fmt.Errorf("key %s has no X11 keysym", b.String())
	}
	var parts []string
	if b.Modifiers()&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if b.Modifiers()&ModControl != 0 {
		parts = append(parts, "control")
	}
	if b.Modifiers()&ModOption != 0 {
		parts = append(parts, "mod1")
	}
	if b.Modifiers()&ModCommand != 0 {
		parts = append(parts, "mod4")
	}
	parts = append(parts, keysym)
	return strings.Join(parts, "-"), nil
}
