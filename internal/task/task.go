// Package task provides a single-resolution future used to sequence
// fire-and-forget work (tweens, narration, timed pauses).
package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Task resolves at most once. It carries no result and no error and cannot
// be cancelled from outside; waiters may stop waiting through a context.
type Task struct {
	done chan struct{}

	mu    sync.Mutex
	fired bool
	hooks []func()
}

// New returns an unresolved task and the function that resolves it.
// Calling resolve more than once is a no-op.
func New() (*Task, func()) {
	t := &Task{done: make(chan struct{})}
	return t, t.resolve
}

// Resolved returns a task that is already resolved.
func Resolved() *Task {
	t, resolve := New()
	resolve()
	return t
}

func (t *Task) resolve() {
	t.mu.Lock()
	if t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	close(t.done)
	hooks := t.hooks
	t.hooks = nil
	t.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// then runs fn when t resolves, or now if it already has. Hooks run on the
// resolving goroutine.
func (t *Task) then(fn func()) {
	t.mu.Lock()
	if !t.fired {
		t.hooks = append(t.hooks, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn()
}

// Done is closed when the task resolves.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// IsResolved reports whether the task has resolved.
func (t *Task) IsResolved() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task resolves or ctx ends. Ending ctx does not
// affect the task itself.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After resolves once d has elapsed on the wall clock.
func After(d time.Duration) *Task {
	t, resolve := New()
	if d <= 0 {
		resolve()
		return t
	}
	time.AfterFunc(d, resolve)
	return t
}

// Go runs fn on a new goroutine and resolves when it returns.
func Go(fn func()) *Task {
	t, resolve := New()
	go func() {
		defer resolve()
		fn()
	}()
	return t
}

// All resolves once every given task has resolved. Nil entries are skipped.
// No goroutine is held, so tasks that never resolve leak nothing.
func All(tasks ...*Task) *Task {
	pending := make([]*Task, 0, len(tasks))
	for _, x := range tasks {
		if x != nil && !x.IsResolved() {
			pending = append(pending, x)
		}
	}
	if len(pending) == 0 {
		return Resolved()
	}
	t, resolve := New()
	var left atomic.Int32
	left.Store(int32(len(pending)))
	for _, x := range pending {
		x.then(func() {
			if left.Add(-1) == 0 {
				resolve()
			}
		})
	}
	return t
}
