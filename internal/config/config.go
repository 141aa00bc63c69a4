package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"chatbar/internal/hotkeys"
	"chatbar/internal/window"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle quickly.
	// Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond

	// FileName is the base name of the config file.
	FileName   = "config.yaml"
	appDirName = "chatbar"

	defaultWindowWidth  = 1000
	defaultWindowHeight = 720
	minWindowWidth      = 320
	minWindowHeight     = 240
)

// defaultConfigDirFn is a test seam; tests override it to simulate
// directory-resolution failures in validateConfigPath.
var defaultConfigDirFn = defaultConfigDir
var userConfigDirFn = os.UserConfigDir
var userHomeDirFn = os.UserHomeDir
var yamlUnmarshalConfigMetadataFn = func(raw []byte, out *map[string]any) error {
	return yaml.Unmarshal(raw, out)
}
var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// HotkeyConfig is the persisted global toggle binding, in macOS virtual key
// code and NSEvent modifier flag space.
type HotkeyConfig struct {
	ModifierFlags uint32 `yaml:"modifier_flags" json:"modifier_flags"`
	KeyCode       uint16 `yaml:"key_code" json:"key_code"`
}

// PlatformConfig is one chat site the launcher can open.
type PlatformConfig struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// LimitsConfig caps live windows. Omitted values mean unlimited.
type LimitsConfig struct {
	MaxTotalWindows       *int `yaml:"max_total_windows,omitempty" json:"max_total_windows,omitempty"`
	MaxWindowsPerPlatform *int `yaml:"max_windows_per_platform,omitempty" json:"max_windows_per_platform,omitempty"`
}

// WindowConfig is the size used for windows without a stored placement.
type WindowConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Config is the on-disk application configuration.
type Config struct {
	// Language is an explicit UI language. Empty follows the system.
	Language        string           `yaml:"language,omitempty" json:"language"`
	Hotkey          HotkeyConfig     `yaml:"hotkey" json:"hotkey"`
	HotkeyEnabled   bool             `yaml:"hotkey_enabled" json:"hotkey_enabled"`
	DefaultPlatform string           `yaml:"default_platform" json:"default_platform"`
	Platforms       []PlatformConfig `yaml:"platforms" json:"platforms"`
	Limits          LimitsConfig     `yaml:"limits" json:"limits"`
	Window          WindowConfig     `yaml:"window" json:"window"`
	// LocalesDir holds <lang>.yaml files merged over the built-in catalog.
	LocalesDir string `yaml:"locales_dir,omitempty" json:"locales_dir"`
}

// DefaultPlatforms returns the built-in platform list.
func DefaultPlatforms() []PlatformConfig {
	return []PlatformConfig{
		{ID: "chatgpt", Name: "ChatGPT", URL: "https://chatgpt.com/"},
		{ID: "claude", Name: "Claude", URL: "https://claude.ai/"},
		{ID: "gemini", Name: "Gemini", URL: "https://gemini.google.com/"},
		{ID: "deepseek", Name: "DeepSeek", URL: "https://chat.deepseek.com/"},
	}
}

func DefaultConfig() Config {
	binding := hotkeys.DefaultBinding
	return Config{
		Hotkey: HotkeyConfig{
			ModifierFlags: uint32(binding.Modifiers()),
			KeyCode:       uint16(binding.Key()),
		},
		HotkeyEnabled:   true,
		DefaultPlatform: "chatgpt",
		Platforms:       DefaultPlatforms(),
		Window: WindowConfig{
			Width:  defaultWindowWidth,
			Height: defaultWindowHeight,
		},
	}
}

// DefaultPath resolves the config file path. CHATBAR_CONFIG wins; otherwise
// the file lives under the user config directory, then ~/.config, and
// finally os.TempDir() when no home directory can be resolved.
// The temp-dir fallback is not a stable persistence location.
func DefaultPath() string {
	if env, err := LoadEnv(); err == nil && strings.TrimSpace(env.Config) != "" {
		return strings.TrimSpace(env.Config)
	}
	base, err := userConfigDirFn()
	if err != nil || strings.TrimSpace(base) == "" {
		home, homeErr := userHomeDirFn()
		if homeErr != nil {
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", homeErr)
			recordDefaultPathWarning(
				"Config path fallback: failed to resolve the user config and home directories. Using temp directory; settings persistence may be limited.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName, FileName)
}

// Load reads the config file. A missing file yields defaults. A file that
// cannot be parsed yields defaults together with the parse error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return cfg, nil
	}
	// Platforms are replaced, not merged, so start from an empty list.
	cfg.Platforms = nil
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), err
	}

	rawMap, metadataErr := parseRawConfigMetadata(raw)
	if metadataErr != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config metadata, preserving parsed values", "error", metadataErr)
	} else {
		if _, has := rawMap["hotkey_enabled"]; !has {
			cfg.HotkeyEnabled = DefaultConfig().HotkeyEnabled
		}
		warnUnknownFields(rawMap)
	}
	applyDefaultsAndValidate(&cfg)
	return cfg, nil
}

// EnsureFile writes default config if missing and returns loaded config.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Clone returns a deep copy of src.
func Clone(src Config) Config {
	dst := src
	if src.Platforms != nil {
		dst.Platforms = make([]PlatformConfig, len(src.Platforms))
		copy(dst.Platforms, src.Platforms)
	}
	dst.Limits = LimitsConfig{
		MaxTotalWindows:       cloneIntPtr(src.Limits.MaxTotalWindows),
		MaxWindowsPerPlatform: cloneIntPtr(src.Limits.MaxWindowsPerPlatform),
	}
	return dst
}

func cloneIntPtr(src *int) *int {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

// Binding converts the persisted hotkey into a binding. Invalid values fall
// back to the default binding.
func (c Config) Binding() hotkeys.Binding {
	b, err := hotkeys.NewBinding(c.Hotkey.ModifierFlags, c.Hotkey.KeyCode)
	if err != nil {
		return hotkeys.DefaultBinding
	}
	return b
}

// SetBinding stores b as the persisted hotkey.
func (c *Config) SetBinding(b hotkeys.Binding) {
	c.Hotkey = HotkeyConfig{ModifierFlags: uint32(b.Modifiers()), KeyCode: uint16(b.Key())}
}

// WindowLimits converts the configured caps for the window registry.
func (c Config) WindowLimits() window.Limits {
	return window.Limits{
		MaxTotal:       cloneIntPtr(c.Limits.MaxTotalWindows),
		MaxPerPlatform: cloneIntPtr(c.Limits.MaxWindowsPerPlatform),
	}
}

// DefaultGeometry is the size of windows without a stored placement.
func (c Config) DefaultGeometry() window.Geometry {
	return window.Geometry{Width: c.Window.Width, Height: c.Window.Height}
}

// Platform looks up a configured platform by id.
func (c Config) Platform(id string) (PlatformConfig, bool) {
	for _, p := range c.Platforms {
		if p.ID == id {
			return p, true
		}
	}
	return PlatformConfig{}, false
}

// Save validates cfg and writes it atomically.
// Returns the normalized config that was actually written to disk.
func Save(path string, cfg Config) (Config, error) {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	applyDefaultsAndValidate(&cfg)

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path)
	return cfg, nil
}

// atomicWrite writes config data using temp-file + rename to avoid partial
// writes and retries rename on Windows to tolerate transient file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// validateConfigPath normalizes path and enforces that config writes stay
// inside the config directory when that directory is resolvable.
func validateConfigPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}

	expectedDir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absoluteExpectedDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteExpectedDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
	}

	return absolutePath, nil
}

func defaultConfigDir() (string, error) {
	return filepath.Dir(DefaultPath()), nil
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// It also rejects Windows cross-drive escapes because filepath.Rel returns
// an absolute path when roots differ.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}

// applyDefaultsAndValidate fills missing defaults and resets invalid values
// in-place. Invalid values are logged, never fatal.
// MUTATES: cfg is directly modified.
// Used by both Load and Save to ensure consistent normalization.
func applyDefaultsAndValidate(cfg *Config) {
	defaults := DefaultConfig()
	if isZeroConfig(*cfg) {
		*cfg = defaults
		return
	}

	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	validateHotkey(cfg, defaults)
	sanitizePlatforms(cfg, defaults)
	validateDefaultPlatform(cfg)
	validateLimits(cfg)
	validateWindow(cfg, defaults)
	cfg.LocalesDir = strings.TrimSpace(cfg.LocalesDir)
}

func validateHotkey(cfg *Config, defaults Config) {
	if cfg.Hotkey == (HotkeyConfig{}) {
		cfg.Hotkey = defaults.Hotkey
		return
	}
	if _, err := hotkeys.NewBinding(cfg.Hotkey.ModifierFlags, cfg.Hotkey.KeyCode); err != nil {
		slog.Warn("[WARN-CONFIG] invalid hotkey, using default",
			"modifier_flags", cfg.Hotkey.ModifierFlags, "key_code", cfg.Hotkey.KeyCode, "error", err)
		cfg.Hotkey = defaults.Hotkey
	}
}

func sanitizePlatforms(cfg *Config, defaults Config) {
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = defaults.Platforms
		return
	}
	seen := make(map[string]struct{}, len(cfg.Platforms))
	kept := make([]PlatformConfig, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		p.Name = strings.TrimSpace(p.Name)
		p.URL = strings.TrimSpace(p.URL)
		if p.ID == "" {
			slog.Warn("[WARN-CONFIG] platform without id ignored", "name", p.Name)
			continue
		}
		if _, dup := seen[p.ID]; dup {
			slog.Warn("[WARN-CONFIG] duplicate platform ignored", "id", p.ID)
			continue
		}
		if err := validatePlatformURL(p.URL); err != nil {
			slog.Warn("[WARN-CONFIG] platform with invalid url ignored", "id", p.ID, "url", p.URL, "error", err)
			continue
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		seen[p.ID] = struct{}{}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		slog.Warn("[WARN-CONFIG] no usable platforms configured, using defaults")
		kept = defaults.Platforms
	}
	cfg.Platforms = kept
}

func validatePlatformURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func validateDefaultPlatform(cfg *Config) {
	cfg.DefaultPlatform = strings.ToLower(strings.TrimSpace(cfg.DefaultPlatform))
	if _, ok := cfg.Platform(cfg.DefaultPlatform); ok {
		return
	}
	if cfg.DefaultPlatform != "" {
		slog.Warn("[WARN-CONFIG] default_platform not configured, using first platform",
			"default_platform", cfg.DefaultPlatform)
	}
	cfg.DefaultPlatform = cfg.Platforms[0].ID
}

func validateLimits(cfg *Config) {
	if v := cfg.Limits.MaxTotalWindows; v != nil && *v < 0 {
		slog.Warn("[WARN-CONFIG] negative limits.max_total_windows treated as unlimited", "value", *v)
		cfg.Limits.MaxTotalWindows = nil
	}
	if v := cfg.Limits.MaxWindowsPerPlatform; v != nil && *v < 0 {
		slog.Warn("[WARN-CONFIG] negative limits.max_windows_per_platform treated as unlimited", "value", *v)
		cfg.Limits.MaxWindowsPerPlatform = nil
	}
}

func validateWindow(cfg *Config, defaults Config) {
	if cfg.Window.Width <= 0 {
		cfg.Window.Width = defaults.Window.Width
	}
	if cfg.Window.Height <= 0 {
		cfg.Window.Height = defaults.Window.Height
	}
	if cfg.Window.Width < minWindowWidth || cfg.Window.Height < minWindowHeight {
		slog.Warn("[WARN-CONFIG] window size below minimum, clamping",
			"width", cfg.Window.Width, "height", cfg.Window.Height)
		cfg.Window.Width = max(cfg.Window.Width, minWindowWidth)
		cfg.Window.Height = max(cfg.Window.Height, minWindowHeight)
	}
}

func parseRawConfigMetadata(raw []byte) (map[string]any, error) {
	rawMap := map[string]any{}
	if err := yamlUnmarshalConfigMetadataFn(raw, &rawMap); err != nil {
		return nil, err
	}
	return rawMap, nil
}

var knownTopLevelKeys = map[string]struct{}{
	"language":         {},
	"hotkey":           {},
	"hotkey_enabled":   {},
	"default_platform": {},
	"platforms":        {},
	"limits":           {},
	"window":           {},
	"locales_dir":      {},
}

// warnUnknownFields logs top-level keys yaml.Unmarshal silently ignores.
func warnUnknownFields(rawMap map[string]any) {
	for key := range rawMap {
		if _, ok := knownTopLevelKeys[key]; !ok {
			slog.Warn("[WARN-CONFIG] unknown field ignored", "field", key)
		}
	}
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func isZeroConfig(cfg Config) bool {
	// reflect.DeepEqual guards against field-addition drift that manual checks miss.
	return reflect.DeepEqual(cfg, Config{})
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
