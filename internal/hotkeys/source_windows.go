//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey     = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32DLL.NewProc("UnregisterHotKey")
	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procGetAsyncKeyState   = user32DLL.NewProc("GetAsyncKeyState")
)

const (
	wmHotkey   = 0x0312
	wmQuit     = 0x0012
	pmNoRemove = 0x0000

	win32ModAlt      = 0x0001
	win32ModControl  = 0x0002
	win32ModShift    = 0x0004
	win32ModWin      = 0x0008
	win32ModNoRepeat = 0x4000

	maxHotkeyID int32 = 0xBFFF

	releasePollInterval = 15 * time.Millisecond
	loopStopTimeout     = 2 * time.Second
)

var nextHotkeyID int32 = 0x4000

type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct; the layout must not change.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type loopReady struct {
	threadID uint32
	err      error
}

type activeLoop struct {
	hotkeyID int32
	threadID uint32
	doneCh   chan struct{}
}

// registerHotKeySource observes a binding with RegisterHotKey. Windows only
// reports the press, so the release is detected by polling the key state.
type registerHotKeySource struct {
	mu      sync.Mutex
	active  *activeLoop
	handler func(KeyEvent)

	polling atomic.Bool
}

// NewSystemSource returns the key source for this platform.
func NewSystemSource() Source {
	return &registerHotKeySource{}
}

func (s *registerHotKeySource) Start(binding Binding, handler func(KeyEvent)) error {
	if handler == nil {
		return errors.New("hotkey handler is required")
	}
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	return s.restartLocked(binding)
}

func (s *registerHotKeySource) Watch(binding Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler == nil {
		return errors.New("hotkey source not started")
	}
	return s.restartLocked(binding)
}

func (s *registerHotKeySource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
	return s.stopLocked()
}

func (s *registerHotKeySource) restartLocked(binding Binding) error {
	if err := s.stopLocked(); err != nil {
		return err
	}
	vk, ok := windowsVirtualKey(binding.Key())
	if !ok {
		return fmt.Errorf("key %s has no Windows virtual-key mapping", binding.String())
	}

	hotkeyID := atomic.AddInt32(&nextHotkeyID, 1)
	if hotkeyID < 0 || hotkeyID > maxHotkeyID {
		return fmt.Errorf("hotkey ID range exhausted (ID=%d)", hotkeyID)
	}

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})
	handler := s.handler
	onPress := func() {
		handler(KeyEvent{Kind: KeyDown, Key: binding.Key(), Modifiers: binding.Modifiers()})
		s.watchRelease(binding.Key(), vk, handler)
	}
	go runHotkeyLoop(hotkeyID, win32Modifiers(binding.Modifiers()), uint32(vk), onPress, readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		return fmt.Errorf("register hotkey %q failed: %w", binding.String(), ready.err)
	}
	s.active = &activeLoop{hotkeyID: hotkeyID, threadID: ready.threadID, doneCh: doneCh}
	slog.Debug("[DEBUG-hotkey] RegisterHotKey loop running", "binding", binding.String(), "hotkeyID", hotkeyID)
	return nil
}

func (s *registerHotKeySource) stopLocked() error {
	if s.active == nil {
		return nil
	}
	loop := s.active
	s.active = nil

	stopErr := postQuit(loop.threadID)
	if stopErr != nil {
		if err := unregisterHotKey(loop.hotkeyID); err != nil {
			slog.Warn("[hotkey] unregisterHotKey fallback failed", "error", err, "hotkeyID", loop.hotkeyID)
		}
	}

	timer := time.NewTimer(loopStopTimeout)
	defer timer.Stop()
	select {
	case <-loop.doneCh:
	case <-timer.C:
		slog.Warn("[hotkey] message loop stop timed out, thread may leak", "hotkeyID", loop.hotkeyID)
		stopErr = errors.Join(stopErr, fmt.Errorf("hotkey message loop stop timed out (hotkeyID=%d)", loop.hotkeyID))
	}
	return stopErr
}

// watchRelease polls the key state until vk is released, then reports the
// key-up. At most one poller runs at a time.
func (s *registerHotKeySource) watchRelease(key KeyCode, vk uint16, handler func(KeyEvent)) {
	if !s.polling.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.polling.Store(false)
		ticker := time.NewTicker(releasePollInterval)
		defer ticker.Stop()
		for range ticker.C {
			state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
			if uint16(state)&0x8000 == 0 {
				handler(KeyEvent{Kind: KeyUp, Key: key})
				return
			}
		}
	}()
}

func win32Modifiers(mods Modifier) uint32 {
	out := uint32(win32ModNoRepeat)
	if mods&ModOption != 0 {
		out |= win32ModAlt
	}
	if mods&ModControl != 0 {
		out |= win32ModControl
	}
	if mods&ModShift != 0 {
		out |= win32ModShift
	}
	if mods&ModCommand != 0 {
		out |= win32ModWin
	}
	return out
}

func runHotkeyLoop(hotkeyID int32, modifiers uint32, vk uint32, onPress func(), readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID := windows.GetCurrentThreadId()

	// Creates the thread message queue so PostThreadMessageW can deliver WM_QUIT.
	var qmsg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)

	if err := registerHotKey(hotkeyID, modifiers, vk); err != nil {
		readyCh <- loopReady{err: err}
		return
	}
	defer func() {
		if err := unregisterHotKey(hotkeyID); err != nil {
			slog.Error("[hotkey] unregisterHotKey on loop exit failed", "error", err, "hotkeyID", hotkeyID)
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			slog.Warn("[hotkey] GetMessageW failed, exiting loop", "error", lastErr, "hotkeyID", hotkeyID)
			return
		case 0:
			return
		}
		if msg.message == wmHotkey && int32(msg.wParam) == hotkeyID {
			onPress()
		}
	}
}

func registerHotKey(hotkeyID int32, modifiers uint32, key uint32) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(hotkeyID), uintptr(modifiers), uintptr(key))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("RegisterHotKey failed")
	}
	return err
}

func unregisterHotKey(hotkeyID int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(hotkeyID))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("UnregisterHotKey failed")
	}
	return err
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("cannot post WM_QUIT: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return errors.New("PostThreadMessageW failed")
	}
	return err
}
