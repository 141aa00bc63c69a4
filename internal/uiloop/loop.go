// Package uiloop provides the single execution context that owns every
// mutation of window, binding, and chrome state.
package uiloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"chatbar/internal/workerutil"
)

// ErrStopped is returned by Call once the loop no longer accepts work.
var ErrStopped = errors.New("ui loop stopped")

// Loop runs posted tasks one at a time, in the order they were posted.
// Post never blocks, so it is safe from OS callbacks and timers.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
	started bool
}

// New creates an idle loop. Call Run to start processing.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		slog.Debug("[DEBUG-uiloop] post dropped after stop")
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts fn and waits for it to finish. It must not be called from a task
// running on the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// The loop drains its queue before closing done, so fn either ran or
		// was never reached because the loop was cancelled.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is cancelled or Stop is called. Tasks already
// queued when Stop is called still run; tasks queued at cancellation are
// dropped. A panicking task is logged and the loop continues.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		slog.Warn("[uiloop] Run called twice, ignoring")
		return
	}
	l.started = true
	l.mu.Unlock()
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.markStopped()
			return
		case <-l.wake:
		}

		for {
			task, stopped := l.next()
			if task == nil {
				if stopped {
					return
				}
				break
			}
			workerutil.RecoverTask("ui-loop", task)
			if ctx.Err() != nil {
				l.markStopped()
				return
			}
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, l.stopped
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, l.stopped
}

// Stop refuses new tasks and lets Run return after draining the queue.
func (l *Loop) Stop() {
	l.markStopped()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) markStopped() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
