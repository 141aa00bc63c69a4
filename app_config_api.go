package main

import (
	"errors"
	"log/slog"
	"reflect"
	"time"

	"chatbar/internal/config"
)

type configUpdatedEvent struct {
	Config             config.Config `json:"config"`
	Version            uint64        `json:"version"`
	UpdatedAtUnixMilli int64         `json:"updated_at_unix_milli"`
}

// GetConfig returns loaded config.
func (a *App) GetConfig() config.Config {
	return a.getConfigSnapshot()
}

// GetConfigAndFlushWarnings returns loaded config and emits any pending startup warnings.
func (a *App) GetConfigAndFlushWarnings() config.Config {
	a.flushPendingConfigLoadWarnings()
	return a.getConfigSnapshot()
}

// GetPlatforms returns the configured platforms in menu order.
func (a *App) GetPlatforms() []config.PlatformConfig {
	return a.getConfigSnapshot().Platforms
}

func (a *App) flushPendingConfigLoadWarnings() {
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	if warning := a.consumePendingConfigLoadWarning(); warning != "" {
		a.emitRuntimeEventWithContext(ctx, "config:load-failed", map[string]string{
			"message": warning,
		})
	}
}

// SaveConfig validates and persists cfg, then applies it to the running
// services. The config:updated event carries the normalized config.
func (a *App) SaveConfig(cfg config.Config) error {
	return a.call(func() error {
		return a.commitConfig(cfg)
	})
}

// commitConfig is the only path that writes the config file. Runs on the UI loop.
func (a *App) commitConfig(cfg config.Config) error {
	prev := a.getConfigSnapshot()
	event, err := a.saveConfigWithLock(cfg)
	if err != nil {
		return err
	}
	a.applyConfig(prev, event.Config)
	a.emitRuntimeEvent("config:updated", event)
	return nil
}

// saveConfigWithLock persists cfg, updates the in-memory snapshot, and bumps event version under cfgSaveMu.
func (a *App) saveConfigWithLock(cfg config.Config) (configUpdatedEvent, error) {
	a.cfgSaveMu.Lock()
	defer a.cfgSaveMu.Unlock()

	if a.configPath == "" {
		return configUpdatedEvent{}, errors.New("config path is not set")
	}
	normalized, err := config.Save(a.configPath, cfg)
	if err != nil {
		return configUpdatedEvent{}, err
	}
	a.setConfigSnapshot(normalized)
	return a.nextConfigEvent(normalized), nil
}

func (a *App) nextConfigEvent(cfg config.Config) configUpdatedEvent {
	return configUpdatedEvent{
		Config:             config.Clone(cfg),
		Version:            a.configEventVersion.Add(1),
		UpdatedAtUnixMilli: time.Now().UnixMilli(),
	}
}

// reloadConfigFromDisk applies an external edit of the config file. Runs on
// the UI loop. Writes made by commitConfig read back unchanged and are skipped.
func (a *App) reloadConfigFromDisk() {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		slog.Warn("[WARN-CONFIG] config reload failed, keeping current settings", "path", a.configPath, "error", err)
		a.emitRuntimeEvent("config:load-failed", map[string]string{
			"message": "Failed to reload config file. Keeping current settings. Error: " + err.Error(),
		})
		return
	}
	prev := a.getConfigSnapshot()
	if reflect.DeepEqual(prev, cfg) {
		slog.Debug("[DEBUG-CONFIG] config file unchanged, skipping reload")
		return
	}
	a.setConfigSnapshot(cfg)
	event := a.nextConfigEvent(cfg)
	a.applyConfig(prev, cfg)
	slog.Info("[config] reloaded from disk", "path", a.configPath, "version", event.Version)
	a.emitRuntimeEvent("config:updated", event)
}

// applyConfig pushes the differences between prev and next into the running
// services. Runs on the UI loop.
func (a *App) applyConfig(prev, next config.Config) {
	a.registry.SetLimits(next.WindowLimits())
	a.session.SetDefaultPlatform(next.DefaultPlatform)
	a.session.SetDefaultGeometry(next.DefaultGeometry())

	// An enabled hotkey whose registration failed is retried on every save.
	retry := next.HotkeyEnabled && a.hotkeyUnavailable.Load()
	if retry || next.Binding() != prev.Binding() || next.HotkeyEnabled != prev.HotkeyEnabled {
		a.chrome.SetBinding(next.Binding())
		a.startHotkey(next)
	}

	languageChanged := next.Language != prev.Language
	if next.LocalesDir != prev.LocalesDir {
		a.swapCatalog(next.LocalesDir)
		languageChanged = true
	}
	if next.Language != prev.Language {
		resolver := a.currentTranslator().Resolver()
		if next.Language == "" {
			resolver.ClearOverride()
		} else if !resolver.SetLanguage(next.Language) {
			slog.Warn("[WARN-i18n] configured language has no translations, keeping current language", "language", next.Language)
		}
	}
	if languageChanged {
		a.refreshLanguageChrome()
	}
}
