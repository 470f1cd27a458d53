// Package tween interpolates numeric properties of scene targets over time.
//
// Tweens are fire-and-forget: Add starts one and its OnComplete callback is
// returned from Update when it finishes. Await bridges that callback into a
// task.Task for sequencing code.
package tween

import "time"

// Target exposes tweenable numeric properties by name.
type Target interface {
	Prop(name string) (float64, bool)
	SetProp(name string, v float64)
}

// Config describes one tween. Props hold absolute end values.
type Config struct {
	Targets  []Target
	Props    map[string]float64
	Duration time.Duration
	Delay    time.Duration
	Ease     string
	// Repeat is the number of extra plays; -1 repeats forever.
	Repeat int
	// Yoyo plays every repetition forward then back to the start values.
	Yoyo       bool
	OnComplete func()
}

type targetState struct {
	target Target
	from   map[string]float64
}

// Tween is a running interpolation owned by a Manager.
type Tween struct {
	cfg       Config
	ease      Easing
	delayLeft time.Duration
	pos       time.Duration
	started   bool
	backward  bool
	plays     int
	done      bool
	killed    bool
	states    []targetState
}

// Done reports whether the tween finished or was killed.
func (tw *Tween) Done() bool {
	return tw.done || tw.killed
}

func (tw *Tween) begin() {
	tw.started = true
	tw.states = make([]targetState, 0, len(tw.cfg.Targets))
	for _, tg := range tw.cfg.Targets {
		from := make(map[string]float64, len(tw.cfg.Props))
		for name := range tw.cfg.Props {
			if v, ok := tg.Prop(name); ok {
				from[name] = v
			}
		}
		tw.states = append(tw.states, targetState{target: tg, from: from})
	}
}

// apply writes values for linear leg progress p in [0,1]. The ends of a
// leg land exactly on the start and end values, whatever the easing.
func (tw *Tween) apply(p float64) {
	if tw.backward {
		p = 1 - p
	}
	e := tw.ease(p)
	for _, st := range tw.states {
		for name, from := range st.from {
			v := lerp(from, tw.cfg.Props[name], e)
			switch {
			case p >= 1:
				v = tw.cfg.Props[name]
			case p <= 0:
				v = from
			}
			st.target.SetProp(name, v)
		}
	}
}

// advance moves the tween forward by dt and reports whether it completed
// during this call.
func (tw *Tween) advance(dt time.Duration) bool {
	if tw.Done() {
		return false
	}
	if !tw.started {
		if dt < tw.delayLeft {
			tw.delayLeft -= dt
			return false
		}
		dt -= tw.delayLeft
		tw.delayLeft = 0
		tw.begin()
	}

	d := tw.cfg.Duration
	if d <= 0 {
		// Zero-length legs collapse to their end state.
		tw.backward = tw.cfg.Yoyo
		tw.apply(1)
		if tw.cfg.Repeat < 0 {
			return false
		}
		tw.done = true
		return true
	}

	for {
		left := d - tw.pos
		if dt < left {
			tw.pos += dt
			tw.apply(float64(tw.pos) / float64(d))
			return false
		}
		dt -= left
		tw.pos = d
		tw.apply(1)

		if tw.cfg.Yoyo && !tw.backward {
			tw.backward = true
			tw.pos = 0
			continue
		}
		tw.backward = false
		tw.plays++
		if tw.cfg.Repeat >= 0 && tw.plays > tw.cfg.Repeat {
			tw.done = true
			return true
		}
		tw.pos = 0
	}
}

// Manager owns running tweens. It is not safe for concurrent use; the scene
// serialises access to it.
type Manager struct {
	tweens []*Tween
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add starts a tween. Start values are read when its delay elapses.
func (m *Manager) Add(cfg Config) *Tween {
	tw := &Tween{
		cfg:       cfg,
		ease:      Ease(cfg.Ease),
		delayLeft: cfg.Delay,
	}
	m.tweens = append(m.tweens, tw)
	return tw
}

// Update advances every tween by dt and returns the completion callbacks of
// tweens that finished, in the order the tweens were added. The caller runs
// them, typically after releasing its own locks.
func (m *Manager) Update(dt time.Duration) []func() {
	var callbacks []func()
	live := m.tweens[:0]
	for _, tw := range m.tweens {
		if tw.advance(dt) && tw.cfg.OnComplete != nil {
			callbacks = append(callbacks, tw.cfg.OnComplete)
		}
		if !tw.Done() {
			live = append(live, tw)
		}
	}
	for i := len(live); i < len(m.tweens); i++ {
		m.tweens[i] = nil
	}
	m.tweens = live
	return callbacks
}

// Kill stops tw without running its completion callback.
func (m *Manager) Kill(tw *Tween) {
	if tw != nil {
		tw.killed = true
	}
}

// KillTweensOf stops every tween that animates target.
func (m *Manager) KillTweensOf(target Target) {
	for _, tw := range m.tweens {
		for _, tg := range tw.cfg.Targets {
			if tg == target {
				tw.killed = true
				break
			}
		}
	}
}

// KillAll stops every tween.
func (m *Manager) KillAll() {
	for _, tw := range m.tweens {
		tw.killed = true
	}
}

// Len returns the number of live tweens.
func (m *Manager) Len() int {
	n := 0
	for _, tw := range m.tweens {
		if !tw.Done() {
			n++
		}
	}
	return n
}
