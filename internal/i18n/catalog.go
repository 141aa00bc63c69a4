// Package i18n holds the translated UI strings and resolves them for the
// active language.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"chatbar/internal/locale"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

const (
	localeFileSuffix = ".yaml"
	// maxLocaleFileBytes bounds override files read from disk.
	maxLocaleFileBytes = 256 * 1024
)

// Table maps dotted keys such as "menu.quit" to translated text.
type Table map[string]string

// Catalog stores one Table per language code. Reads are safe during Load;
// readers see either the previous or the new tables, never a mix.
type Catalog struct {
	mu          sync.RWMutex
	tables      map[string]Table
	overrideDir string
}

// NewCatalog creates a catalog backed by the embedded locales. overrideDir,
// when non-empty, is a directory of <lang>.yaml files merged over them.
func NewCatalog(overrideDir string) *Catalog {
	return &Catalog{
		tables:      map[string]Table{},
		overrideDir: strings.TrimSpace(overrideDir),
	}
}

// OverrideDir returns the directory merged over the embedded tables.
func (c *Catalog) OverrideDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overrideDir
}

// Load rebuilds every table and swaps them in atomically. On error the
// previous tables stay active.
func (c *Catalog) Load() error {
	tables, err := loadEmbedded()
	if err != nil {
		return err
	}
	if dir := c.OverrideDir(); dir != "" {
		if err := mergeOverrides(tables, dir); err != nil {
			slog.Warn("[WARN-i18n] locale overrides skipped", "dir", dir, "error", err)
		}
	}
	if len(tables[locale.Fallback]) == 0 {
		return fmt.Errorf("fallback locale %q is missing or empty", locale.Fallback)
	}

	c.mu.Lock()
	c.tables = tables
	c.mu.Unlock()
	slog.Debug("[DEBUG-i18n] catalog loaded", "languages", len(tables))
	return nil
}

// Languages lists the known language codes in sorted order.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	codes := make([]string, 0, len(c.tables))
	for code := range c.tables {
		codes = append(codes, code)
	}
	c.mu.RUnlock()
	sort.Strings(codes)
	return codes
}

// Has reports whether lang has a table.
func (c *Catalog) Has(lang string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[lang]
	return ok
}

// Lookup returns the entry for key in lang.
func (c *Catalog) Lookup(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table, ok := c.tables[lang]
	if !ok {
		return "", false
	}
	text, ok := table[key]
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// Keys lists every key defined for lang in sorted order.
func (c *Catalog) Keys(lang string) []string {
	c.mu.RLock()
	table := c.tables[lang]
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	c.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

func loadEmbedded() (map[string]Table, error) {
	entries, err := fs.ReadDir(embeddedLocales, "locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	tables := make(map[string]Table, len(entries))
	for _, entry := range entries {
		code, ok := codeFromFileName(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}
		data, err := embeddedLocales.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded locale %s: %w", entry.Name(), err)
		}
		table, err := parseTable(data)
		if err != nil {
			return nil, fmt.Errorf("parse embedded locale %s: %w", entry.Name(), err)
		}
		tables[code] = table
	}
	return tables, nil
}

// mergeOverrides layers <dir>/<lang>.yaml over tables. A broken file is
// skipped with a warning so one bad override cannot hide the rest.
func mergeOverrides(tables map[string]Table, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		code, ok := codeFromFileName(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := readLimited(path)
		if err != nil {
			slog.Warn("[WARN-i18n] failed to read locale override", "path", path, "error", err)
			continue
		}
		table, err := parseTable(data)
		if err != nil {
			slog.Warn("[WARN-i18n] failed to parse locale override", "path", path, "error", err)
			continue
		}
		dst := tables[code]
		if dst == nil {
			dst = Table{}
			tables[code] = dst
		}
		for key, text := range table {
			dst[key] = text
		}
	}
	return nil
}

func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxLocaleFileBytes {
		return nil, fmt.Errorf("locale file too large: %d bytes", info.Size())
	}
	return os.ReadFile(path)
}

func codeFromFileName(name string) (string, bool) {
	if !strings.HasSuffix(name, localeFileSuffix) {
		return "", false
	}
	code := locale.Normalize(strings.TrimSuffix(name, localeFileSuffix))
	return code, code != ""
}

// parseTable reads nested YAML mappings into dotted keys.
func parseTable(data []byte) (Table, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	table := Table{}
	flatten("", root, table)
	return table, nil
}

func flatten(prefix string, node map[string]any, out Table) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
			continue
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
