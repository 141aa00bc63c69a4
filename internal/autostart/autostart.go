// Package autostart registers the application to launch at login.
//
// One descriptor file in the platform's autostart directory is the only
// record kept: its presence means enabled.
package autostart

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultLabel identifies the login item across platforms.
const DefaultLabel = "com.chatbar.app"

// Descriptor is what the OS launches at login.
type Descriptor struct {
	Label   string   `json:"label"`
	Name    string   `json:"name"`
	Program string   `json:"program"`
	Args    []string `json:"args,omitempty"`
}

// Result reports the outcome of SetEnabled. It is returned to the frontend
// as-is.
type Result struct {
	Success bool   `json:"success"`
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Service performs the OS-side registration of a written descriptor file.
// Platforms that scan their autostart directory need no service.
type Service interface {
	Register(path string) error
	Unregister(path string) error
}

type noService struct{}

func (noService) Register(string) error   { return nil }
func (noService) Unregister(string) error { return nil }

// layout describes how a platform stores descriptors.
type layout struct {
	fileName func(Descriptor) string
	render   func(Descriptor) ([]byte, error)
	perm     os.FileMode
}

var executableFn = os.Executable

// CurrentDescriptor describes the running executable.
func CurrentDescriptor(args ...string) (Descriptor, error) {
	exe, err := executableFn()
	if err != nil {
		return Descriptor{}, fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}
	return Descriptor{Label: DefaultLabel, Name: "chatbar", Program: exe, Args: args}, nil
}

// Registrar enables and disables the login item.
type Registrar struct {
	mu      sync.Mutex
	desc    Descriptor
	dir     string
	layout  layout
	service Service
}

// Option customizes a Registrar.
type Option func(*Registrar)

// WithDir overrides the platform autostart directory.
func WithDir(dir string) Option {
	return func(r *Registrar) { r.dir = dir }
}

// WithService overrides the platform registration service.
func WithService(s Service) Option {
	return func(r *Registrar) { r.service = s }
}

// NewRegistrar creates a registrar for desc using the platform defaults.
func NewRegistrar(desc Descriptor, opts ...Option) (*Registrar, error) {
	if strings.TrimSpace(desc.Program) == "" {
		return nil, errors.New("descriptor program is required")
	}
	if strings.TrimSpace(desc.Label) == "" {
		desc.Label = DefaultLabel
	}
	if strings.TrimSpace(desc.Name) == "" {
		desc.Name = desc.Label
	}
	r := &Registrar{desc: desc, layout: platformLayout(), service: platformService()}
	for _, opt := range opts {
		opt(r)
	}
	if r.dir == "" {
		dir, err := ResolveAutostartDir()
		if err != nil {
			return nil, err
		}
		r.dir = dir
	}
	if r.service == nil {
		r.service = noService{}
	}
	return r, nil
}

// Path returns the descriptor file location.
func (r *Registrar) Path() string {
	return filepath.Join(r.dir, r.layout.fileName(r.desc))
}

// IsEnabled reports whether the descriptor file exists.
func (r *Registrar) IsEnabled() bool {
	_, err := os.Stat(r.Path())
	return err == nil
}

// SetEnabled installs or removes the login item. Both directions are
// idempotent. Failures are reported in the Result; nothing panics.
func (r *Registrar) SetEnabled(enabled bool) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if enabled {
		return r.enableLocked()
	}
	return r.disableLocked()
}

func (r *Registrar) enableLocked() Result {
	path := r.Path()
	if _, err := os.Stat(path); err == nil {
		slog.Debug("[DEBUG-autostart] already enabled", "path", path)
		return Result{Success: true, Enabled: true, Path: path, Message: "autostart already enabled"}
	} else if !os.IsNotExist(err) {
		return failure(true, path, fmt.Errorf("stat descriptor: %w", err))
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return failure(false, path, fmt.Errorf("create autostart directory: %w", err))
	}
	content, err := r.layout.render(r.desc)
	if err != nil {
		return failure(false, path, err)
	}
	if err := writeFileAtomically(path, content, r.layout.perm); err != nil {
		return failure(false, path, fmt.Errorf("write descriptor: %w", err))
	}
	if err := r.service.Register(path); err != nil {
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			slog.Warn("[WARN-autostart] failed to remove descriptor after registration error",
				"path", path, "error", removeErr)
		}
		return failure(false, path, fmt.Errorf("register login item: %w", err))
	}
	slog.Info("[autostart] enabled", "path", path)
	return Result{Success: true, Enabled: true, Path: path, Message: "autostart enabled"}
}

func (r *Registrar) disableLocked() Result {
	path := r.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Success: true, Enabled: false, Path: path, Message: "autostart already disabled"}
	}
	if err := r.service.Unregister(path); err != nil {
		slog.Warn("[WARN-autostart] unregister failed, removing descriptor anyway", "path", path, "error", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return failure(true, path, fmt.Errorf("remove descriptor: %w", err))
	}
	slog.Info("[autostart] disabled", "path", path)
	return Result{Success: true, Enabled: false, Path: path, Message: "autostart disabled"}
}

func failure(enabled bool, path string, err error) Result {
	slog.Warn("[WARN-autostart] operation failed", "path", path, "error", err)
	return Result{Success: false, Enabled: enabled, Path: path, Message: err.Error()}
}

func writeFileAtomically(target string, content []byte, perm os.FileMode) (retErr error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(target), ".autostart-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if retErr != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Debug("[DEBUG-autostart] failed to close temp file during rollback",
					"path", tmpPath, "error", closeErr)
			}
			if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
				slog.Debug("[DEBUG-autostart] failed to remove temp file during rollback",
					"path", tmpPath, "error", removeErr)
			}
		}
	}()
	if _, err := tmpFile.Write(content); err != nil {
		return err
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, target)
}
