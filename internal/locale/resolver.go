// Package locale decides which catalog language is active.
//
// Precedence, highest first: an explicit in-process override set through
// SetLanguage, the CHATBAR_LANG environment variable, the first entry of the
// OS preferred-language list, and finally English.
package locale

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Fallback is the language used when nothing else resolves.
const Fallback = "en"

// Resolver computes the active language. The zero value is not usable; use
// NewResolver.
type Resolver struct {
	mu       sync.RWMutex
	known    map[string]struct{}
	override string
	envValue string
	system   string // raw first OS preference, captured on Reload
	active   string

	provider Provider
	envLang  func() string
	getenv   func(string) string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithEnvLanguage sets the source of the environment override. It is read on
// every Reload.
func WithEnvLanguage(fn func() string) Option {
	return func(r *Resolver) { r.envLang = fn }
}

// WithGetenv replaces os.Getenv for the POSIX locale fallback.
func WithGetenv(fn func(string) string) Option {
	return func(r *Resolver) { r.getenv = fn }
}

// NewResolver creates a resolver over the given known languages. A nil
// provider behaves as an unavailable OS API.
func NewResolver(provider Provider, known []string, opts ...Option) *Resolver {
	r := &Resolver{
		provider: provider,
		envLang:  func() string { return "" },
		getenv:   getenvFn,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.known = toSet(known)
	r.Reload()
	return r
}

// SetKnown replaces the set of valid language codes and recomputes the active
// language. An override that is no longer known is dropped.
func (r *Resolver) SetKnown(codes []string) {
	r.mu.Lock()
	r.known = toSet(codes)
	if r.override != "" && !r.isKnownLocked(r.override) {
		slog.Warn("[locale] override language no longer available, clearing", "language", r.override)
		r.override = ""
	}
	r.recomputeLocked()
	r.mu.Unlock()
}

// Reload re-reads the environment override and the OS preference.
func (r *Resolver) Reload() {
	env := strings.TrimSpace(r.envLang())
	system := r.querySystem()
	r.mu.Lock()
	r.envValue = env
	r.system = system
	r.recomputeLocked()
	r.mu.Unlock()
}

// SetLanguage sets the explicit override. Unknown codes are ignored and the
// active language is left unchanged; the return value reports acceptance.
func (r *Resolver) SetLanguage(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	normalized := strings.ToLower(strings.TrimSpace(code))
	if !r.isKnownLocked(normalized) {
		slog.Debug("[DEBUG-locale] ignoring unknown language", "code", code)
		return false
	}
	r.override = normalized
	r.recomputeLocked()
	return true
}

// ClearOverride removes the explicit override.
func (r *Resolver) ClearOverride() {
	r.mu.Lock()
	r.override = ""
	r.recomputeLocked()
	r.mu.Unlock()
}

// Override returns the explicit override, or "" when none is set.
func (r *Resolver) Override() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.override
}

// Active returns the language currently in effect.
func (r *Resolver) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Known returns the sorted list of valid codes.
func (r *Resolver) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.known))
	for code := range r.known {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// DetectSystemLanguage resolves only from the OS preference, ignoring the
// override and the environment variable.
func (r *Resolver) DetectSystemLanguage() string {
	raw := r.querySystem()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveSystemLocked(raw)
}

func (r *Resolver) recomputeLocked() {
	previous := r.active
	switch {
	case r.override != "":
		r.active = r.override
	case r.envValue != "" && r.matchLocked(r.envValue) != "":
		r.active = r.matchLocked(r.envValue)
	default:
		r.active = r.resolveSystemLocked(r.system)
	}
	if previous != r.active {
		slog.Debug("[DEBUG-locale] active language changed", "from", previous, "to", r.active)
	}
}

// querySystem returns the first OS preference, falling back to the POSIX
// locale variables when the OS API is unavailable or returns nothing.
func (r *Resolver) querySystem() string {
	if r.provider != nil {
		langs, err := r.provider.PreferredLanguages()
		if err != nil {
			slog.Debug("[DEBUG-locale] OS language API unavailable, using POSIX locale", "error", err)
		} else if len(langs) > 0 {
			return langs[0]
		}
	}
	return posixLocale(r.getenv)
}

func (r *Resolver) resolveSystemLocked(raw string) string {
	if code := r.matchLocked(raw); code != "" {
		return code
	}
	return Fallback
}

func (r *Resolver) matchLocked(raw string) string {
	return Match(raw, r.isKnownLocked)
}

func (r *Resolver) isKnownLocked(code string) bool {
	_, ok := r.known[code]
	return ok
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}
