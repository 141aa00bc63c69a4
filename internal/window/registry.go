package window

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns every window the launcher creates.
//
// The count check and the insertion happen under one lock, so a rejected
// Create never leaves partial state behind. Creation at capacity fails; the
// registry never evicts an existing window to make room.
type Registry struct {
	mu      sync.RWMutex
	windows map[ID]*Window
	limits  Limits

	newID func() ID
	now   func() time.Time
}

// NewRegistry creates an empty registry enforcing limits.
func NewRegistry(limits Limits) *Registry {
	return &Registry{
		windows: map[ID]*Window{},
		limits:  cloneLimits(limits),
		newID:   func() ID { return ID(uuid.NewString()) },
		now:     time.Now,
	}
}

// SetLimits replaces the caps. Existing windows are kept even when they now
// exceed the new caps; only later creations are affected.
func (r *Registry) SetLimits(limits Limits) {
	r.mu.Lock()
	r.limits = cloneLimits(limits)
	r.mu.Unlock()
}

// Limits returns a copy of the active caps.
func (r *Registry) Limits() Limits {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneLimits(r.limits)
}

// Create registers a new window for platformID.
func (r *Registry) Create(platformID string, typ Type, geometry Geometry) (Window, error) {
	platformID = strings.TrimSpace(platformID)
	if platformID == "" {
		return Window{}, errors.New("platform id is required")
	}
	if !typ.Valid() {
		return Window{}, fmt.Errorf("unknown window type %q", typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCapacityLocked(platformID); err != nil {
		slog.Debug("[DEBUG-window] creation rejected", "platform", platformID, "error", err)
		return Window{}, err
	}

	id := r.newID()
	for {
		if _, exists := r.windows[id]; !exists {
			break
		}
		id = r.newID()
	}
	w := &Window{
		ID:         id,
		PlatformID: platformID,
		Type:       typ,
		Geometry:   geometry,
		CreatedAt:  r.now(),
	}
	r.windows[id] = w
	slog.Debug("[DEBUG-window] created", "id", id, "platform", platformID, "type", typ)
	return *w, nil
}

func (r *Registry) checkCapacityLocked(platformID string) error {
	total := len(r.windows)
	if r.limits.MaxTotal != nil && total >= *r.limits.MaxTotal {
		return &LimitError{Scope: ScopeTotal, Count: total, Max: *r.limits.MaxTotal}
	}
	if r.limits.MaxPerPlatform != nil {
		count := r.countLocked(platformID)
		if count >= *r.limits.MaxPerPlatform {
			return &LimitError{Scope: ScopePlatform, PlatformID: platformID, Count: count, Max: *r.limits.MaxPerPlatform}
		}
	}
	return nil
}

func (r *Registry) countLocked(platformID string) int {
	count := 0
	for _, w := range r.windows {
		if w.PlatformID == platformID {
			count++
		}
	}
	return count
}

// Close removes id. Closing an unknown or already closed id is a no-op and
// reports false.
func (r *Registry) Close(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.windows[id]; !ok {
		return false
	}
	delete(r.windows, id)
	slog.Debug("[DEBUG-window] closed", "id", id)
	return true
}

// Find returns the window registered under id.
func (r *Registry) Find(id ID) (Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.windows[id]
	if !ok {
		return Window{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *w, nil
}

// WindowsForPlatform lists the ids registered for platformID, oldest first.
func (r *Registry) WindowsForPlatform(platformID string) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*Window, 0, len(r.windows))
	for _, w := range r.windows {
		if w.PlatformID == platformID {
			matched = append(matched, w)
		}
	}
	sortByCreation(matched)
	ids := make([]ID, len(matched))
	for i, w := range matched {
		ids[i] = w.ID
	}
	return ids
}

// FindMain returns the oldest MAIN window for platformID.
func (r *Registry) FindMain(platformID string) (Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *Window
	for _, w := range r.windows {
		if w.PlatformID != platformID || w.Type != TypeMain {
			continue
		}
		if found == nil || earlier(w, found) {
			found = w
		}
	}
	if found == nil {
		return Window{}, false
	}
	return *found, true
}

// List returns copies of every registered window, oldest first.
func (r *Registry) List() []Window {
	r.mu.RLock()
	all := slices.Collect(maps.Values(r.windows))
	r.mu.RUnlock()
	sortByCreation(all)
	out := make([]Window, len(all))
	for i, w := range all {
		out[i] = *w
	}
	return out
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// SetVisible records the presentation state of id.
func (r *Registry) SetVisible(id ID, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	w.Visible = visible
	return nil
}

// Relocate replaces the geometry of id.
func (r *Registry) Relocate(id ID, geometry Geometry) (Window, error) {
	if geometry.Empty() {
		return Window{}, fmt.Errorf("invalid geometry %dx%d", geometry.Width, geometry.Height)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return Window{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	w.Geometry = geometry
	return *w, nil
}

func sortByCreation(windows []*Window) {
	slices.SortFunc(windows, func(a, b *Window) int {
		if earlier(a, b) {
			return -1
		}
		if earlier(b, a) {
			return 1
		}
		return 0
	})
}

// earlier orders by creation time, falling back to id for equal timestamps.
func earlier(a, b *Window) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func cloneLimits(src Limits) Limits {
	var out Limits
	if src.MaxTotal != nil {
		v := *src.MaxTotal
		out.MaxTotal = &v
	}
	if src.MaxPerPlatform != nil {
		v := *src.MaxPerPlatform
		out.MaxPerPlatform = &v
	}
	return out
}
