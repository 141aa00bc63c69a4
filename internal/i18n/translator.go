package i18n

import (
	"log/slog"
	"strings"

	"chatbar/internal/locale"
)

// Translator resolves keys against the catalog for the active language.
type Translator struct {
	catalog  *Catalog
	resolver *locale.Resolver
}

// NewTranslator ties catalog to resolver and syncs the resolver's known set.
func NewTranslator(catalog *Catalog, resolver *locale.Resolver) *Translator {
	resolver.SetKnown(catalog.Languages())
	return &Translator{catalog: catalog, resolver: resolver}
}

// Catalog returns the underlying catalog.
func (t *Translator) Catalog() *Catalog { return t.catalog }

// Resolver returns the underlying resolver.
func (t *Translator) Resolver() *locale.Resolver { return t.resolver }

// Language returns the active language code.
func (t *Translator) Language() string { return t.resolver.Active() }

// T translates key into the active language.
func (t *Translator) T(key string) string {
	return t.Translate(t.resolver.Active(), key)
}

// Translate looks key up in lang, then English, then returns key itself.
// The result is never empty.
func (t *Translator) Translate(lang, key string) string {
	if text, ok := t.catalog.Lookup(lang, key); ok {
		return text
	}
	if lang != locale.Fallback {
		if text, ok := t.catalog.Lookup(locale.Fallback, key); ok {
			return text
		}
	}
	slog.Debug("[DEBUG-i18n] missing translation", "language", lang, "key", key)
	return key
}

// Format translates key and substitutes {name} placeholders from args.
func (t *Translator) Format(key string, args map[string]string) string {
	return Interpolate(t.T(key), args)
}

// Reload re-reads the catalog, then the environment override and OS locale.
func (t *Translator) Reload() error {
	if err := t.catalog.Load(); err != nil {
		return err
	}
	t.resolver.SetKnown(t.catalog.Languages())
	t.resolver.Reload()
	return nil
}

// Interpolate replaces {name} placeholders. Unknown placeholders are kept.
func Interpolate(text string, args map[string]string) string {
	if len(args) == 0 || !strings.Contains(text, "{") {
		return text
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
