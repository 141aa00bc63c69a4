// Package tray shows the status item through energye/systray.
package tray

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/energye/systray"

	"chatbar/internal/chrome"
	"chatbar/internal/workerutil"
)

// Actions are invoked when menu items are clicked. Nil fields are ignored.
// Callbacks run on the systray goroutine and should only post work.
type Actions struct {
	OnShow            func()
	OnHide            func()
	OnNewWindow       func()
	OnSettings        func()
	OnToggleAutostart func()
	// OnSelectLanguage receives "" for the system default entry.
	OnSelectLanguage func(code string)
	OnQuit           func()
}

type menuItems struct {
	hint      *systray.MenuItem
	show      *systray.MenuItem
	hide      *systray.MenuItem
	newWindow *systray.MenuItem
	settings  *systray.MenuItem
	autostart *systray.MenuItem
	language  *systray.MenuItem
	system    *systray.MenuItem
	langs     map[string]*systray.MenuItem
	quit      *systray.MenuItem
}

// Tray implements chrome.StatusIconSink. State pushed before the status item
// is ready is kept and applied once it is.
type Tray struct {
	mu      sync.Mutex
	ready   bool
	actions Actions
	items   menuItems
	stop    func()

	icon        []byte
	tooltip     string
	hint        string
	labels      chrome.MenuLabels
	systemLabel string
	languages   []string
	override    string
	autostartOn bool
}

var _ chrome.StatusIconSink = (*Tray)(nil)

// New creates a tray that is not yet shown.
func New(actions Actions) *Tray {
	return &Tray{actions: actions, systemLabel: "System Default"}
}

// Start registers the status item with the platform event loop already run
// by the window host.
func (t *Tray) Start() {
	start, end := systray.RunWithExternalLoop(t.onReady, t.onExit)
	t.mu.Lock()
	t.stop = end
	t.mu.Unlock()
	start()
}

// Stop removes the status item. Safe to call before Start.
func (t *Tray) Stop() {
	t.mu.Lock()
	stop := t.stop
	t.stop = nil
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Ready reports whether the status item has been created.
func (t *Tray) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

func (t *Tray) onReady() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.items.hint = systray.AddMenuItem(t.hint, "")
	t.items.hint.Disable()
	systray.AddSeparator()
	t.items.show = t.addItem(t.labels.Show, t.actions.OnShow)
	t.items.hide = t.addItem(t.labels.Hide, t.actions.OnHide)
	t.items.newWindow = t.addItem(t.labels.NewWindow, t.actions.OnNewWindow)
	systray.AddSeparator()
	t.items.settings = t.addItem(t.labels.Settings, t.actions.OnSettings)
	t.items.autostart = systray.AddMenuItemCheckbox(t.labels.Autostart, "", t.autostartOn)
	t.items.autostart.Click(t.wrap("autostart", t.actions.OnToggleAutostart))
	t.items.language = systray.AddMenuItem(t.labels.Language, "")
	t.items.system = t.items.language.AddSubMenuItemCheckbox(t.systemLabel, "", t.override == "")
	t.items.system.Click(t.selectLanguage(""))
	t.items.langs = map[string]*systray.MenuItem{}
	systray.AddSeparator()
	t.items.quit = t.addItem(t.labels.Quit, t.actions.OnQuit)

	t.ready = true
	t.applyLocked()
	slog.Debug("[DEBUG-tray] status item ready")
}

func (t *Tray) onExit() {
	t.mu.Lock()
	t.ready = false
	t.mu.Unlock()
	slog.Debug("[DEBUG-tray] status item removed")
}

func (t *Tray) addItem(title string, action func()) *systray.MenuItem {
	item := systray.AddMenuItem(title, "")
	item.Click(t.wrap(title, action))
	return item
}

func (t *Tray) wrap(name string, action func()) func() {
	return func() {
		if action == nil {
			return
		}
		workerutil.RecoverTask("tray:"+name, action)
	}
}

func (t *Tray) selectLanguage(code string) func() {
	return func() {
		if t.actions.OnSelectLanguage == nil {
			return
		}
		workerutil.RecoverTask("tray:language", func() { t.actions.OnSelectLanguage(code) })
	}
}

func (t *Tray) SetIcon(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.icon = slices.Clone(data)
	if t.ready {
		systray.SetIcon(t.icon)
	}
}

func (t *Tray) SetTooltip(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tooltip = text
	if t.ready {
		systray.SetTooltip(text)
	}
}

func (t *Tray) SetHint(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hint = text
	if t.ready {
		t.items.hint.SetTitle(text)
	}
}

func (t *Tray) SetMenuLabels(labels chrome.MenuLabels) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.labels = labels
	if t.ready {
		t.applyLabelsLocked()
	}
}

// SetSystemLanguageLabel sets the title of the "follow the OS" entry.
func (t *Tray) SetSystemLanguageLabel(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.systemLabel = text
	if t.ready {
		t.items.system.SetTitle(text)
	}
}

// SetLanguages lists the selectable languages. override is the explicit
// choice, or "" when the system language is followed.
func (t *Tray) SetLanguages(codes []string, override string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.languages = slices.Clone(codes)
	t.override = override
	if t.ready {
		t.applyLanguagesLocked()
	}
}

// SetAutostart reflects the login item state in the checkbox.
func (t *Tray) SetAutostart(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autostartOn = enabled
	if t.ready {
		setChecked(t.items.autostart, enabled)
	}
}

func (t *Tray) applyLocked() {
	if len(t.icon) > 0 {
		systray.SetIcon(t.icon)
	}
	systray.SetTooltip(t.tooltip)
	t.items.hint.SetTitle(t.hint)
	t.applyLabelsLocked()
	t.applyLanguagesLocked()
	setChecked(t.items.autostart, t.autostartOn)
}

func (t *Tray) applyLabelsLocked() {
	t.items.show.SetTitle(t.labels.Show)
	t.items.hide.SetTitle(t.labels.Hide)
	t.items.newWindow.SetTitle(t.labels.NewWindow)
	t.items.settings.SetTitle(t.labels.Settings)
	t.items.autostart.SetTitle(t.labels.Autostart)
	t.items.language.SetTitle(t.labels.Language)
	t.items.quit.SetTitle(t.labels.Quit)
}

func (t *Tray) applyLanguagesLocked() {
	for _, code := range t.languages {
		if _, ok := t.items.langs[code]; ok {
			continue
		}
		item := t.items.language.AddSubMenuItemCheckbox(LanguageName(code), code, false)
		item.Click(t.selectLanguage(code))
		t.items.langs[code] = item
	}
	for code, item := range t.items.langs {
		if slices.Contains(t.languages, code) {
			item.Show()
		} else {
			item.Hide()
		}
		setChecked(item, code == t.override)
	}
	setChecked(t.items.system, t.override == "")
}

func setChecked(item *systray.MenuItem, checked bool) {
	if item == nil {
		return
	}
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

var nativeNames = map[string]string{
	"en": "English",
	"fr": "Français",
	"ja": "日本語",
	"ko": "한국어",
	"zh": "中文",
}

// LanguageName returns the endonym for code, or code itself when unknown.
func LanguageName(code string) string {
	if name, ok := nativeNames[code]; ok {
		return name
	}
	return code
}
