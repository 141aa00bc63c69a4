package window

import (
	"errors"
	"fmt"
	"time"
)

// ID identifies a registered window. IDs are never reused within a process.
type ID string

// Type distinguishes the hotkey-toggle target from auxiliary windows.
type Type string

const (
	TypeMain      Type = "main"
	TypeSecondary Type = "secondary"
)

// Valid reports whether t is a known window type.
func (t Type) Valid() bool {
	return t == TypeMain || t == TypeSecondary
}

// Geometry is a window frame in screen coordinates.
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether g has no usable size.
func (g Geometry) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// Window is a read-only snapshot of one registered browsing window.
type Window struct {
	ID         ID        `json:"id"`
	PlatformID string    `json:"platform_id"`
	Type       Type      `json:"type"`
	Geometry   Geometry  `json:"geometry"`
	Visible    bool      `json:"visible"`
	CreatedAt  time.Time `json:"created_at"`
}

// Limits caps the number of live windows. A nil field means unlimited.
type Limits struct {
	MaxTotal       *int `json:"max_total,omitempty"`
	MaxPerPlatform *int `json:"max_per_platform,omitempty"`
}

var (
	// ErrLimitExceeded is matched by every *LimitError.
	ErrLimitExceeded = errors.New("window limit exceeded")
	// ErrNotFound is returned for ids that are not registered.
	ErrNotFound = errors.New("window not found")
)

// LimitScope names which cap rejected a creation.
type LimitScope string

const (
	ScopeTotal    LimitScope = "total"
	ScopePlatform LimitScope = "platform"
)

// LimitError reports a rejected creation along with the counts that caused it.
type LimitError struct {
	Scope      LimitScope
	PlatformID string
	Count      int
	Max        int
}

func (e *LimitError) Error() string {
	if e.Scope == ScopePlatform {
		return fmt.Sprintf("platform %q at window limit (%d/%d)", e.PlatformID, e.Count, e.Max)
	}
	return fmt.Sprintf("global window limit reached (%d/%d)", e.Count, e.Max)
}

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }
