//go:build !windows && !unix

package singleinstance

// Lock is a no-op where no locking primitive is wired.
type Lock struct{}

// TryLock always succeeds.
func TryLock(_ string) (*Lock, error) { return &Lock{}, nil }

// Release is a no-op.
func (l *Lock) Release() error { return nil }

// DefaultName returns an empty string.
func DefaultName() string { return "" }
