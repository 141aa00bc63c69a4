package main

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"chatbar/internal/filewatch"
)

// startConfigWatcher reapplies external edits of the config file.
func (a *App) startConfigWatcher() {
	if a.configPath == "" {
		return
	}
	w, err := filewatch.Watch(filepath.Dir(a.configPath), filewatch.Options{
		Name:     filepath.Base(a.configPath),
		OnChange: func() { a.post(a.reloadConfigFromDisk) },
	})
	if err != nil {
		slog.Warn("[WARN-CONFIG] config file watch unavailable", "path", a.configPath, "error", err)
		return
	}
	a.watchMu.Lock()
	a.configWatcher = w
	a.watchMu.Unlock()
}

// startLocaleWatcher watches dir for translation overrides, replacing any
// previous locale watcher. An empty dir only stops the previous one.
func (a *App) startLocaleWatcher(dir string) {
	a.watchMu.Lock()
	previous := a.localeWatcher
	a.localeWatcher = nil
	a.watchMu.Unlock()
	if previous != nil {
		if err := previous.Close(); err != nil {
			slog.Debug("[DEBUG-i18n] previous locale watcher close failed", "error", err)
		}
	}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	w, err := filewatch.Watch(dir, filewatch.Options{
		Suffix:   ".yaml",
		OnChange: a.reloadTranslations,
	})
	if err != nil {
		slog.Warn("[WARN-i18n] locales directory watch unavailable", "dir", dir, "error", err)
		return
	}
	a.watchMu.Lock()
	a.localeWatcher = w
	a.watchMu.Unlock()
}

func (a *App) stopWatchers() {
	a.watchMu.Lock()
	watchers := []*filewatch.Watcher{a.configWatcher, a.localeWatcher}
	a.configWatcher = nil
	a.localeWatcher = nil
	a.watchMu.Unlock()

	var errs []error
	for _, w := range watchers {
		if w == nil {
			continue
		}
		errs = append(errs, w.Close())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("[WARN-CONFIG] watcher shutdown failed", "error", err)
	}
}
