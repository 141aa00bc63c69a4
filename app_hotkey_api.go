package main

import (
	"fmt"

	"chatbar/internal/hotkeys"
)

// HotkeyInfo describes the configured toggle binding.
type HotkeyInfo struct {
	ModifierFlags uint32 `json:"modifier_flags"`
	KeyCode       uint16 `json:"key_code"`
	Display       string `json:"display"`
	Enabled       bool   `json:"enabled"`
	// Available is false when the OS refused the binding or no key source
	// exists on this platform.
	Available bool `json:"available"`
}

// GetHotkey returns the configured binding and whether it is active.
func (a *App) GetHotkey() HotkeyInfo {
	cfg := a.getConfigSnapshot()
	b := cfg.Binding()
	return HotkeyInfo{
		ModifierFlags: uint32(b.Modifiers()),
		KeyCode:       uint16(b.Key()),
		Display:       a.hotkeyDisplay(),
		Enabled:       cfg.HotkeyEnabled,
		Available:     !a.hotkeyUnavailable.Load(),
	}
}

// SetHotkey validates and stores a new binding in the canonical
// modifier-flags/key-code form, then re-registers it.
func (a *App) SetHotkey(modifierFlags uint32, keyCode uint16) error {
	b, err := hotkeys.NewBinding(modifierFlags, keyCode)
	if err != nil {
		return err
	}
	return a.setBinding(b)
}

// SetHotkeySpec accepts a textual binding such as "Cmd+Shift+Space".
func (a *App) SetHotkeySpec(spec string) error {
	b, err := hotkeys.ParseBinding(spec)
	if err != nil {
		return fmt.Errorf("parse hotkey: %w", err)
	}
	return a.setBinding(b)
}

// SetHotkeyEnabled turns the global hotkey on or off.
func (a *App) SetHotkeyEnabled(enabled bool) error {
	return a.call(func() error {
		cfg := a.getConfigSnapshot()
		cfg.HotkeyEnabled = enabled
		return a.commitConfig(cfg)
	})
}

// GetHotkeyHint returns the localized hint shown in the status menu.
func (a *App) GetHotkeyHint() string {
	if a.chrome == nil {
		return ""
	}
	return a.chrome.Last().Hint
}

func (a *App) setBinding(b hotkeys.Binding) error {
	return a.call(func() error {
		cfg := a.getConfigSnapshot()
		cfg.SetBinding(b)
		return a.commitConfig(cfg)
	})
}

func (a *App) hotkeyDisplay() string {
	if a.chrome != nil {
		if text := a.chrome.Last().HotkeyText; text != "" {
			return text
		}
	}
	return a.getConfigSnapshot().Binding().String()
}
