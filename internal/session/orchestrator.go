// Package session drives window presentation for hotkey toggles and the
// bound window API.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chatbar/internal/window"
)

// Host presents registered windows on screen.
type Host interface {
	// Present shows w, brings it to front and focuses it.
	Present(w window.Window) error
	// Dismiss hides w without destroying it.
	Dismiss(w window.Window) error
}

// GeometryStore remembers the last placement per platform.
// *statestore.Store satisfies it. The orchestrator only calls it from
// Restore, Flush and RunStore, never from the UI loop methods.
type GeometryStore interface {
	SaveGeometry(ctx context.Context, platformID string, g window.Geometry) error
	LoadAllGeometry(ctx context.Context) (map[string]window.Geometry, error)
}

const storeTimeout = 2 * time.Second

// Options configures an Orchestrator.
type Options struct {
	DefaultPlatform string
	DefaultGeometry window.Geometry
	// Store is optional; without it new windows use DefaultGeometry.
	Store GeometryStore
}

// Orchestrator creates, shows and hides windows through the registry. Its
// methods are intended to run on the UI loop; the internal lock only guards
// the settings that the bound API may read from elsewhere.
type Orchestrator struct {
	registry *window.Registry
	host     Host
	store    GeometryStore

	mu              sync.Mutex
	defaultPlatform string
	defaultGeometry window.Geometry
	shown           window.ID
	placements      map[string]window.Geometry
	pending         map[string]window.Geometry
	wake            chan struct{}
}

// NewOrchestrator creates an orchestrator over registry and host.
func NewOrchestrator(registry *window.Registry, host Host, opts Options) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New("window registry is required")
	}
	if host == nil {
		return nil, errors.New("window host is required")
	}
	return &Orchestrator{
		registry:        registry,
		host:            host,
		store:           opts.Store,
		defaultPlatform: strings.TrimSpace(opts.DefaultPlatform),
		defaultGeometry: opts.DefaultGeometry,
		placements:      make(map[string]window.Geometry),
		pending:         make(map[string]window.Geometry),
		wake:            make(chan struct{}, 1),
	}, nil
}

// Registry returns the window registry.
func (o *Orchestrator) Registry() *window.Registry { return o.registry }

// DefaultPlatform returns the platform the hotkey toggles.
func (o *Orchestrator) DefaultPlatform() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.defaultPlatform
}

// SetDefaultPlatform changes the hotkey target for later toggles.
func (o *Orchestrator) SetDefaultPlatform(platformID string) {
	o.mu.Lock()
	o.defaultPlatform = strings.TrimSpace(platformID)
	o.mu.Unlock()
}

// SetDefaultGeometry changes the size used when no placement is stored.
func (o *Orchestrator) SetDefaultGeometry(g window.Geometry) {
	o.mu.Lock()
	o.defaultGeometry = g
	o.mu.Unlock()
}

// ShowMain shows the MAIN window of the default platform, creating it when
// none exists. A creation rejected by the window limits is returned as is.
func (o *Orchestrator) ShowMain() error {
	platform := o.DefaultPlatform()
	if platform == "" {
		return errors.New("no default platform configured")
	}
	w, ok := o.registry.FindMain(platform)
	if !ok {
		created, err := o.registry.Create(platform, window.TypeMain, o.initialGeometry(platform))
		if err != nil {
			return fmt.Errorf("create main window: %w", err)
		}
		w = created
	}
	if err := o.present(w); err != nil {
		return err
	}
	o.mu.Lock()
	o.shown = w.ID
	o.mu.Unlock()
	return nil
}

// HideMain hides the MAIN window last shown. Hiding when nothing is shown
// is a no-op.
func (o *Orchestrator) HideMain() error {
	o.mu.Lock()
	id := o.shown
	o.mu.Unlock()
	if id == "" {
		return nil
	}
	w, err := o.registry.Find(id)
	if errors.Is(err, window.ErrNotFound) {
		o.clearShown(id)
		return nil
	}
	if err != nil {
		return err
	}
	if err := o.host.Dismiss(w); err != nil {
		return fmt.Errorf("hide window %s: %w", w.ID, err)
	}
	if err := o.registry.SetVisible(w.ID, false); err != nil {
		slog.Debug("[DEBUG-session] window vanished while hiding", "id", w.ID, "error", err)
	}
	o.clearShown(id)
	return nil
}

// HideAll hides every visible window, as the window close button does.
func (o *Orchestrator) HideAll() error {
	var errs []error
	for _, w := range o.registry.List() {
		if !w.Visible {
			continue
		}
		if err := o.host.Dismiss(w); err != nil {
			errs = append(errs, fmt.Errorf("hide window %s: %w", w.ID, err))
			continue
		}
		if err := o.registry.SetVisible(w.ID, false); err != nil {
			slog.Debug("[DEBUG-session] window vanished while hiding", "id", w.ID, "error", err)
		}
		o.clearShown(w.ID)
	}
	return errors.Join(errs...)
}

// MainVisible reports whether a MAIN window is currently shown.
func (o *Orchestrator) MainVisible() bool {
	o.mu.Lock()
	id := o.shown
	o.mu.Unlock()
	if id == "" {
		return false
	}
	w, err := o.registry.Find(id)
	return err == nil && w.Visible
}

// OpenWindow creates and presents a window for platformID.
func (o *Orchestrator) OpenWindow(platformID string, typ window.Type) (window.Window, error) {
	platformID = strings.TrimSpace(platformID)
	w, err := o.registry.Create(platformID, typ, o.initialGeometry(platformID))
	if err != nil {
		return window.Window{}, err
	}
	if err := o.present(w); err != nil {
		return w, err
	}
	if typ == window.TypeMain {
		o.mu.Lock()
		o.shown = w.ID
		o.mu.Unlock()
	}
	found, err := o.registry.Find(w.ID)
	if err != nil {
		return w, nil
	}
	return found, nil
}

// CloseWindow hides and unregisters id, saving its placement. Closing an
// unknown id reports false.
func (o *Orchestrator) CloseWindow(id window.ID) bool {
	w, err := o.registry.Find(id)
	if err != nil {
		return false
	}
	if w.Visible {
		if err := o.host.Dismiss(w); err != nil {
			slog.Warn("[session] failed to hide window before close", "id", id, "error", err)
		}
	}
	o.saveGeometry(w)
	closed := o.registry.Close(id)
	o.clearShown(id)
	return closed
}

// Relocate moves id and stores the placement for its platform.
func (o *Orchestrator) Relocate(id window.ID, g window.Geometry) (window.Window, error) {
	w, err := o.registry.Relocate(id, g)
	if err != nil {
		return window.Window{}, err
	}
	o.saveGeometry(w)
	return w, nil
}

// HostHidden records that the host hid w by other means, such as the user
// closing the window chrome.
func (o *Orchestrator) HostHidden(id window.ID) {
	if err := o.registry.SetVisible(id, false); err != nil {
		return
	}
	o.clearShown(id)
}

func (o *Orchestrator) present(w window.Window) error {
	if err := o.host.Present(w); err != nil {
		return fmt.Errorf("present window %s: %w", w.ID, err)
	}
	if err := o.registry.SetVisible(w.ID, true); err != nil {
		return err
	}
	return nil
}

func (o *Orchestrator) clearShown(id window.ID) {
	o.mu.Lock()
	if o.shown == id {
		o.shown = ""
	}
	o.mu.Unlock()
}

func (o *Orchestrator) initialGeometry(platformID string) window.Geometry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if g, ok := o.placements[platformID]; ok {
		return g
	}
	return o.defaultGeometry
}

// saveGeometry remembers a MAIN window's placement and queues it for
// RunStore.
func (o *Orchestrator) saveGeometry(w window.Window) {
	if w.Type != window.TypeMain || w.Geometry.Empty() {
		return
	}
	o.mu.Lock()
	o.placements[w.PlatformID] = w.Geometry
	if o.store != nil {
		o.pending[w.PlatformID] = w.Geometry
	}
	o.mu.Unlock()
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Restore loads stored placements. Placements recorded since startup win
// over stored ones.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	stored, err := o.store.LoadAllGeometry(ctx)
	if err != nil {
		return fmt.Errorf("load stored geometry: %w", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for platformID, g := range stored {
		if _, seen := o.placements[platformID]; seen || g.Empty() {
			continue
		}
		o.placements[platformID] = g
	}
	return nil
}

// Flush writes queued placements to the store.
func (o *Orchestrator) Flush(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	o.mu.Lock()
	batch := o.pending
	o.pending = make(map[string]window.Geometry)
	o.mu.Unlock()

	var errs []error
	for platformID, g := range batch {
		saveCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		err := o.store.SaveGeometry(saveCtx, platformID, g)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("save geometry for %s: %w", platformID, err))
		}
	}
	return errors.Join(errs...)
}

// RunStore restores stored placements, then writes new ones as they are
// recorded until ctx is done. Queued writes are flushed before it returns.
func (o *Orchestrator) RunStore(ctx context.Context) {
	if o.store == nil {
		return
	}
	if err := o.Restore(ctx); err != nil {
		slog.Warn("[session] failed to restore geometry", "error", err)
	}
	for {
		select {
		case <-o.wake:
			if err := o.Flush(ctx); err != nil {
				slog.Warn("[session] failed to save geometry", "error", err)
			}
		case <-ctx.Done():
			if err := o.Flush(context.Background()); err != nil {
				slog.Warn("[session] failed to save geometry", "error", err)
			}
			return
		}
	}
}
