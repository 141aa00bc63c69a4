package chrome

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chatbar/internal/hotkeys"
)

var testTables = map[string]map[string]string{
	"en": {
		"menu.hotkey_hint":        "Toggle with {hotkey}",
		"menu.hotkey_unavailable": "Global hotkey unavailable",
		"tray.tooltip":            "chatbar: {hotkey}",
		"menu.quit":               "Quit",
		"key.space":               "Space",
	},
	"fr": {
		"menu.hotkey_hint": "Basculer avec {hotkey}",
		"menu.quit":        "Quitter",
		"key.space":        "Espace",
	},
}

func testTranslate(lang, key string) string {
	if text, ok := testTables[lang][key]; ok {
		return text
	}
	if text, ok := testTables["en"][key]; ok {
		return text
	}
	return key
}

func mustBinding(t *testing.T, mods hotkeys.Modifier, key hotkeys.KeyCode) hotkeys.Binding {
	t.Helper()
	b, err := hotkeys.NewBinding(uint32(mods), uint16(key))
	if err != nil {
		t.Fatalf("NewBinding error = %v", err)
	}
	return b
}

func TestSelectIcon(t *testing.T) {
	black, white := []byte("black"), []byte("white")
	tests := []struct {
		name       string
		appearance Appearance
		assets     Assets
		want       IconVariant
		wantOK     bool
	}{
		{"dark uses white", AppearanceDark, Assets{Black: black, White: white}, IconWhite, true},
		{"light uses black", AppearanceLight, Assets{Black: black, White: white}, IconBlack, true},
		{"dark falls back to black", AppearanceDark, Assets{Black: black}, IconBlack, true},
		{"light falls back to white", AppearanceLight, Assets{White: white}, IconWhite, true},
		{"no assets", AppearanceDark, Assets{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := SelectIcon(tt.appearance, tt.assets)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("SelectIcon = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRenderHint(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		want     string
	}{
		{
			name:     "default binding",
			snapshot: Snapshot{Language: "en", Binding: hotkeys.DefaultBinding},
			want:     "Toggle with ⌘+G",
		},
		{
			name:     "non printable key is localized",
			snapshot: Snapshot{Language: "fr", Binding: mustBinding(t, hotkeys.ModCommand|hotkeys.ModShift, hotkeys.KeySpace)},
			want:     "Basculer avec ⇧+⌘+Espace",
		},
		{
			name:     "source unavailable",
			snapshot: Snapshot{Language: "fr", Binding: hotkeys.DefaultBinding, HotkeyUnavailable: true},
			want:     "Global hotkey unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.snapshot, testTranslate).Hint; got != tt.want {
				t.Fatalf("Hint = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderIsPure(t *testing.T) {
	s := Snapshot{Language: "en", Binding: hotkeys.DefaultBinding, Assets: DefaultAssets()}
	first := Render(s, testTranslate)
	second := Render(s, testTranslate)
	if first.Hint != second.Hint || first.Tooltip != second.Tooltip || !bytes.Equal(first.Icon, second.Icon) {
		t.Fatalf("Render not deterministic: %+v vs %+v", first, second)
	}
	if first.Menu.Quit != "Quit" {
		t.Fatalf("Menu.Quit = %q, want Quit", first.Menu.Quit)
	}
	if !first.IconOK || first.IconVariant != IconBlack {
		t.Fatalf("icon = (%q, %v), want (black, true)", first.IconVariant, first.IconOK)
	}
}

type recordingSink struct {
	mu       sync.Mutex
	icons    int
	lastIcon []byte
	hints    []string
	tooltip  string
	menu     MenuLabels
}

func (s *recordingSink) SetIcon(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.icons++
	s.lastIcon = data
}

func (s *recordingSink) SetTooltip(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tooltip = text
}

func (s *recordingSink) SetHint(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints = append(s.hints, text)
}

func (s *recordingSink) SetMenuLabels(labels MenuLabels) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu = labels
}

func TestControllerPushesOnEveryChange(t *testing.T) {
	sink := &recordingSink{}
	assets := Assets{Black: []byte("b"), White: []byte("w")}
	c := NewController(sink, testTranslate, Snapshot{Language: "en", Binding: hotkeys.DefaultBinding, Assets: assets})

	c.SetAppearance(AppearanceDark)
	if string(sink.lastIcon) != "w" {
		t.Fatalf("icon after dark = %q, want w", sink.lastIcon)
	}
	c.SetBinding(mustBinding(t, hotkeys.ModControl, hotkeys.KeySpace))
	if got := sink.hints[len(sink.hints)-1]; got != "Toggle with ⌃+Space" {
		t.Fatalf("hint after rebind = %q", got)
	}
	c.SetLanguage("fr")
	if sink.menu.Quit != "Quitter" {
		t.Fatalf("menu quit after SetLanguage = %q, want Quitter", sink.menu.Quit)
	}
	c.Refresh()
	c.Refresh()
	if len(sink.hints) != 5 {
		t.Fatalf("hint pushes = %d, want 5", len(sink.hints))
	}
}

func TestControllerKeepsIconWhenAssetsMissing(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(sink, testTranslate, Snapshot{Language: "en", Binding: hotkeys.DefaultBinding, Assets: Assets{Black: []byte("b")}})
	c.Refresh()
	if sink.icons != 1 {
		t.Fatalf("icon pushes = %d, want 1", sink.icons)
	}
	c.SetAssets(Assets{})
	if sink.icons != 1 {
		t.Fatalf("icon pushes after losing assets = %d, want 1", sink.icons)
	}
	if c.Last().IconOK {
		t.Fatal("Last().IconOK = true, want false")
	}
}

func TestParseHelpers(t *testing.T) {
	if got := parseInterfaceStyle("Dark\n", nil); got != AppearanceDark {
		t.Fatalf("parseInterfaceStyle(Dark) = %v", got)
	}
	if got := parseInterfaceStyle("", errors.New("does not exist")); got != AppearanceLight {
		t.Fatalf("parseInterfaceStyle(error) = %v", got)
	}
	if got := parseColorScheme("'prefer-dark'\n"); got != AppearanceDark {
		t.Fatalf("parseColorScheme(prefer-dark) = %v", got)
	}
	if got := parseColorScheme("'default'"); got != AppearanceLight {
		t.Fatalf("parseColorScheme(default) = %v", got)
	}
	if got := parseGtkTheme("'Adwaita-dark'"); got != AppearanceDark {
		t.Fatalf("parseGtkTheme(Adwaita-dark) = %v", got)
	}
	if got := ParseAppearance(" DARK "); got != AppearanceDark {
		t.Fatalf("ParseAppearance = %v", got)
	}
}

func TestWatchAppearanceReportsChangesOnly(t *testing.T) {
	readings := []Appearance{AppearanceLight, AppearanceLight, AppearanceDark, AppearanceDark}
	var (
		mu  sync.Mutex
		idx int
	)
	detector := DetectorFunc(func(context.Context) (Appearance, error) {
		mu.Lock()
		defer mu.Unlock()
		a := readings[min(idx, len(readings)-1)]
		idx++
		return a, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan Appearance, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		WatchAppearance(ctx, detector, 5*time.Millisecond, func(a Appearance) { changes <- a })
	}()

	want := []Appearance{AppearanceLight, AppearanceDark}
	for i, w := range want {
		select {
		case got := <-changes:
			if got != w {
				t.Fatalf("change #%d = %v, want %v", i, got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for change #%d", i)
		}
	}
	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done
	if len(changes) != 0 {
		t.Fatalf("unexpected extra changes: %d", len(changes))
	}
}
