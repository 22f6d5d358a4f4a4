// Package schedule runs work on a fixed interval until it is stopped.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Func is invoked on every tick with the tick time.
type Func func(ctx context.Context, now time.Time)

// Task is a cancellable fixed-interval job. The zero value is not usable;
// create one with New.
type Task struct {
	interval  time.Duration
	fn        Func
	immediate bool
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Task.
type Option func(*Task)

// Immediately runs fn once as soon as the task starts, before the first tick.
func Immediately() Option {
	return func(t *Task) { t.immediate = true }
}

// WithClock overrides the time source passed to fn.
func WithClock(now func() time.Time) Option {
	return func(t *Task) { t.now = now }
}

// New creates a stopped task.
func New(interval time.Duration, fn Func, opts ...Option) *Task {
	t := &Task{interval: interval, fn: fn, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start launches the task. It stops on its own when ctx is cancelled.
// Starting a running task does nothing.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.loop(ctx, done)
}

func (t *Task) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if t.immediate {
		t.fn(ctx, t.now())
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			t.fn(ctx, t.now())
		}
	}
}

// Stop cancels the task and waits for an in-flight run to return. It is safe
// to call more than once.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the task has been started and not stopped.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the task exits, either through Stop or its context.
func (t *Task) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}
