package tween

import (
	"sort"
	"time"
)

type timer struct {
	at  time.Duration
	seq uint64
	fn  func()
}

// Timers schedules delayed callbacks on a virtual clock advanced by Update.
// Like Manager it is not safe for concurrent use.
type Timers struct {
	now     time.Duration
	seq     uint64
	pending []timer
}

// Now returns the virtual time elapsed since the first Update.
func (t *Timers) Now() time.Duration {
	return t.now
}

// After schedules fn to be returned by the Update that passes now+d.
func (t *Timers) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	t.seq++
	t.pending = append(t.pending, timer{at: t.now + d, seq: t.seq, fn: fn})
}

// Update advances the clock by dt and returns the callbacks that fell due,
// earliest first, ties in scheduling order.
func (t *Timers) Update(dt time.Duration) []func() {
	t.now += dt
	var due []timer
	keep := t.pending[:0]
	for _, tm := range t.pending {
		if tm.at <= t.now {
			due = append(due, tm)
		} else {
			keep = append(keep, tm)
		}
	}
	for i := len(keep); i < len(t.pending); i++ {
		t.pending[i] = timer{}
	}
	t.pending = keep

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	fns := make([]func(), len(due))
	for i, tm := range due {
		fns[i] = tm.fn
	}
	return fns
}

// Len returns the number of pending callbacks.
func (t *Timers) Len() int {
	return len(t.pending)
}

// Clear drops every pending callback.
func (t *Timers) Clear() {
	t.pending = nil
}
