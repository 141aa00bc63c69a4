package main

import (
	"log/slog"

	"chatbar/internal/i18n"
	"chatbar/internal/tray"
)

// LanguageOption is one entry of the language picker.
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (a *App) setTranslator(t *i18n.Translator) {
	a.i18nMu.Lock()
	a.translator = t
	a.i18nMu.Unlock()
}

func (a *App) currentTranslator() *i18n.Translator {
	a.i18nMu.RLock()
	defer a.i18nMu.RUnlock()
	return a.translator
}

// translate backs the chrome controller so a swapped catalog is picked up.
func (a *App) translate(lang, key string) string {
	t := a.currentTranslator()
	if t == nil {
		return key
	}
	return t.Translate(lang, key)
}

// T resolves key in the active language.
func (a *App) T(key string) string {
	t := a.currentTranslator()
	if t == nil {
		return key
	}
	return t.T(key)
}

// TFormat resolves key and substitutes {name} placeholders from args.
func (a *App) TFormat(key string, args map[string]string) string {
	t := a.currentTranslator()
	if t == nil {
		return i18n.Interpolate(key, args)
	}
	return t.Format(key, args)
}

// GetLanguage returns the active language code.
func (a *App) GetLanguage() string {
	t := a.currentTranslator()
	if t == nil {
		return ""
	}
	return t.Language()
}

// AvailableLanguages lists the languages with a translation table.
func (a *App) AvailableLanguages() []LanguageOption {
	t := a.currentTranslator()
	if t == nil {
		return nil
	}
	codes := t.Catalog().Languages()
	out := make([]LanguageOption, 0, len(codes))
	for _, code := range codes {
		out = append(out, LanguageOption{Code: code, Name: tray.LanguageName(code)})
	}
	return out
}

// DetectSystemLanguage returns the language the system preference resolves
// to, ignoring any override.
func (a *App) DetectSystemLanguage() string {
	t := a.currentTranslator()
	if t == nil {
		return ""
	}
	return t.Resolver().DetectSystemLanguage()
}

// SetLanguage switches the UI language and persists the choice. An empty
// code follows the system again. Codes without translations are ignored and
// reported as false.
func (a *App) SetLanguage(code string) bool {
	applied := false
	err := a.call(func() error {
		var err error
		applied, err = a.setLanguage(code)
		return err
	})
	if err != nil {
		slog.Warn("[WARN-i18n] language change failed", "language", code, "error", err)
	}
	return applied
}

// setLanguage runs on the UI loop.
func (a *App) setLanguage(code string) (bool, error) {
	resolver := a.currentTranslator().Resolver()
	cfg := a.getConfigSnapshot()
	if code == "" {
		resolver.ClearOverride()
		cfg.Language = ""
	} else {
		if !resolver.SetLanguage(code) {
			slog.Debug("[DEBUG-i18n] ignoring unknown language", "language", code)
			return false, nil
		}
		cfg.Language = resolver.Override()
	}
	if err := a.commitConfig(cfg); err != nil {
		// The language is already active; only persistence failed.
		a.refreshLanguageChrome()
		return true, err
	}
	return true, nil
}

// swapCatalog replaces the translation tables with ones read from dir,
// keeping the resolver and its override. Runs on the UI loop.
func (a *App) swapCatalog(dir string) {
	current := a.currentTranslator()
	catalog := i18n.NewCatalog(dir)
	if err := catalog.Load(); err != nil {
		slog.Warn("[WARN-i18n] locales directory rejected, keeping current translations", "dir", dir, "error", err)
		return
	}
	a.setTranslator(i18n.NewTranslator(catalog, current.Resolver()))
	a.startLocaleWatcher(dir)
}

// reloadTranslations rereads the catalog and the system language off the UI
// loop, then posts the chrome refresh.
func (a *App) reloadTranslations() {
	if err := a.currentTranslator().Reload(); err != nil {
		slog.Warn("[WARN-i18n] translation reload failed", "error", err)
		return
	}
	a.post(a.refreshLanguageChrome)
}

// refreshLanguageChrome re-renders every localized surface. Runs on the UI loop.
func (a *App) refreshLanguageChrome() {
	t := a.currentTranslator()
	lang := t.Language()
	a.chrome.SetLanguage(lang)
	a.status.SetSystemLanguageLabel(t.T("language.system"))
	a.status.SetLanguages(t.Catalog().Languages(), t.Resolver().Override())
	a.emitRuntimeEvent("i18n:language-changed", map[string]string{"language": lang})
}
