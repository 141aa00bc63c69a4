//go:build darwin

package hotkeys

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

// carbonSource registers the binding through the Carbon hotkey API, which
// reports both key-down and key-up. Its key codes share the macOS virtual key
// space used by KeyCode, so no translation table is needed.
type carbonSource struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	stop    chan struct{}
	wg      sync.WaitGroup
	handler func(KeyEvent)
}

// NewSystemSource returns the key source for this platform.
func NewSystemSource() Source {
	return &carbonSource{}
}

func (s *carbonSource) Start(binding Binding, handler func(KeyEvent)) error {
	if handler == nil {
		return errors.New("hotkey handler is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	return s.registerLocked(binding)
}

func (s *carbonSource) Watch(binding Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler == nil {
		return errors.New("hotkey source not started")
	}
	s.unregisterLocked()
	return s.registerLocked(binding)
}

func (s *carbonSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
	return s.unregisterLocked()
}

func (s *carbonSource) registerLocked(binding Binding) error {
	hk := hotkey.New(carbonModifiers(binding.Modifiers()), hotkey.Key(binding.Key()))
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %q: %w", binding.String(), err)
	}
	stop := make(chan struct{})
	s.hk = hk
	s.stop = stop

	handler := s.handler
	key, mods := binding.Key(), binding.Modifiers()
	s.wg.Go(func() {
		for {
			select {
			case <-stop:
				return
			case <-hk.Keydown():
				handler(KeyEvent{Kind: KeyDown, Key: key, Modifiers: mods})
			case <-hk.Keyup():
				handler(KeyEvent{Kind: KeyUp, Key: key})
			}
		}
	})
	return nil
}

func (s *carbonSource) unregisterLocked() error {
	if s.hk == nil {
		return nil
	}
	close(s.stop)
	s.wg.Wait()
	err := s.hk.Unregister()
	s.hk = nil
	s.stop = nil
	return err
}

func carbonModifiers(mods Modifier) []hotkey.Modifier {
	var out []hotkey.Modifier
	if mods&ModControl != 0 {
		out = append(out, hotkey.ModCtrl)
	}
	if mods&ModOption != 0 {
		out = append(out, hotkey.ModOption)
	}
	if mods&ModShift != 0 {
		out = append(out, hotkey.ModShift)
	}
	if mods&ModCommand != 0 {
		out = append(out, hotkey.ModCmd)
	}
	return out
}
