package chrome

import (
	"log/slog"
	"sync"

	"chatbar/internal/hotkeys"
)

// StatusIconSink receives rendered chrome. Implementations must tolerate
// being called with unchanged values.
type StatusIconSink interface {
	SetIcon(data []byte)
	SetTooltip(text string)
	SetHint(text string)
	SetMenuLabels(labels MenuLabels)
}

// Controller keeps the current snapshot and pushes a fresh render to the sink
// after every change.
type Controller struct {
	mu        sync.Mutex
	snapshot  Snapshot
	translate TranslateFunc
	sink      StatusIconSink
	last      Rendered
}

// NewController creates a controller. Nothing is pushed until the first
// setter or Refresh call.
func NewController(sink StatusIconSink, translate TranslateFunc, initial Snapshot) *Controller {
	return &Controller{sink: sink, translate: translate, snapshot: initial}
}

// Snapshot returns the current inputs.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Last returns the most recently pushed render.
func (c *Controller) Last() Rendered {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Controller) SetAppearance(a Appearance) {
	c.update(func(s *Snapshot) { s.Appearance = a })
}

func (c *Controller) SetLanguage(lang string) {
	c.update(func(s *Snapshot) { s.Language = lang })
}

func (c *Controller) SetBinding(b hotkeys.Binding) {
	c.update(func(s *Snapshot) { s.Binding = b })
}

func (c *Controller) SetHotkeyUnavailable(unavailable bool) {
	c.update(func(s *Snapshot) { s.HotkeyUnavailable = unavailable })
}

func (c *Controller) SetAssets(assets Assets) {
	c.update(func(s *Snapshot) { s.Assets = assets })
}

// Refresh re-renders without changing inputs, e.g. after a catalog reload.
func (c *Controller) Refresh() {
	c.update(func(*Snapshot) {})
}

func (c *Controller) update(mutate func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(&c.snapshot)
	rendered := Render(c.snapshot, c.translate)
	c.last = rendered
	if c.sink == nil {
		return
	}
	if rendered.IconOK {
		c.sink.SetIcon(rendered.Icon)
	} else {
		slog.Warn("[WARN-chrome] no status icon asset available, keeping current image")
	}
	c.sink.SetTooltip(rendered.Tooltip)
	c.sink.SetHint(rendered.Hint)
	c.sink.SetMenuLabels(rendered.Menu)
}
