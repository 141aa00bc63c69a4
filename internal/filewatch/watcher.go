// Package filewatch reloads on-disk resources when their files change.
package filewatch

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit per save.
const DefaultDebounce = 150 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Suffix filters events by file name suffix. Empty matches every file.
	Suffix string
	// Name filters events to one base name. Empty matches every file.
	Name     string
	Debounce time.Duration
	// OnChange runs once per debounced burst, on the watcher goroutine.
	OnChange func()
}

// Watcher observes one directory and invokes OnChange after matching writes,
// creations, removals and renames.
type Watcher struct {
	dir     string
	opts    Options
	watcher *fsnotify.Watcher

	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Watch starts observing dir. The caller must Close the returned Watcher.
func Watch(dir string, opts Options) (*Watcher, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("watch directory is required")
	}
	if opts.OnChange == nil {
		return nil, errors.New("OnChange callback is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{
		dir:     dir,
		opts:    opts,
		watcher: fw,
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Dir returns the observed directory.
func (w *Watcher) Dir() string { return w.dir }

// Close stops the watcher and waits for the loop to exit. Safe to call twice.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) matches(name string) bool {
	base := filepath.Base(name)
	if w.opts.Name != "" && base != w.opts.Name {
		return false
	}
	if w.opts.Suffix != "" && !strings.HasSuffix(base, w.opts.Suffix) {
		return false
	}
	return true
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.closed:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(ev.Name) {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("[DEBUG-watch] change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			w.fire()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("[WARN-watch] watcher error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) fire() {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] file watch callback panicked", "dir", w.dir, "panic", rec)
		}
	}()
	w.opts.OnChange()
}
