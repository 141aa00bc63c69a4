//go:build unix

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"chatbar/internal/userutil"
)

// Lock holds an exclusive flock on a per-user lock file. The kernel drops
// the lock when the owning process exits.
type Lock struct {
	file *os.File
}

// TryLock takes a non-blocking exclusive lock on the file at name.
// Returns ErrAlreadyRunning if another process holds it.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("lock path is required")
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %q: %w", name, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("flock %q: %w", name, err)
	}
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	}
	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call on nil receiver and
// idempotent. The file is left in place so a racing instance cannot lock
// an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(unlockErr, closeErr)
}

// DefaultName returns the lock file path in the user runtime directory.
func DefaultName() string {
	return filepath.Join(userutil.RuntimeDir(), "chatbar-"+userutil.CurrentUsername()+".lock")
}
