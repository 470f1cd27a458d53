package tween

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	x, y, alpha float64
}

func (p *point) Prop(name string) (float64, bool) {
	switch name {
	case "x":
		return p.x, true
	case "y":
		return p.y, true
	case "alpha":
		return p.alpha, true
	}
	return 0, false
}

func (p *point) SetProp(name string, v float64) {
	switch name {
	case "x":
		p.x = v
	case "y":
		p.y = v
	case "alpha":
		p.alpha = v
	}
}

func runAll(fns []func()) int {
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

func TestEasingEndpoints(t *testing.T) {
	for name, e := range easings {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, 0, e(0), 1e-9)
			assert.InDelta(t, 1, e(1), 1e-9)
		})
	}
	assert.InDelta(t, 0.5, Ease("does-not-exist")(0.5), 1e-9)
	assert.True(t, KnownEase("Back.easeOut"))
	assert.False(t, KnownEase("Elastic.wobble"))
}

func TestLinearProgress(t *testing.T) {
	m := NewManager()
	p := &point{x: 0}
	m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"x": 100}, Duration: time.Second})

	tests := []struct {
		step time.Duration
		want float64
	}{
		{250 * time.Millisecond, 25},
		{250 * time.Millisecond, 50},
		{500 * time.Millisecond, 100},
	}
	for _, tt := range tests {
		m.Update(tt.step)
		assert.InDelta(t, tt.want, p.x, 1e-6)
	}
	assert.Zero(t, m.Len())
}

func TestLegsLandOnExactValues(t *testing.T) {
	for name := range easings {
		t.Run(name, func(t *testing.T) {
			m := NewManager()
			p := &point{x: 0, alpha: 1}
			m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"x": 17, "alpha": 0}, Duration: 300 * time.Millisecond, Ease: name})
			m.Update(time.Second)
			assert.Equal(t, 17.0, p.x)
			assert.Equal(t, 0.0, p.alpha)

			back := &point{x: 3}
			m.Add(Config{Targets: []Target{back}, Props: map[string]float64{"x": 11}, Duration: 300 * time.Millisecond, Ease: name, Yoyo: true})
			m.Update(time.Second)
			assert.Equal(t, 3.0, back.x)
		})
	}
}

func TestUnknownPropsAreIgnored(t *testing.T) {
	m := NewManager()
	p := &point{}
	m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"rotation": 3, "y": 10}, Duration: time.Second})
	m.Update(time.Second)
	assert.InDelta(t, 10, p.y, 1e-9)
}

func TestDelayCapturesStartValuesLate(t *testing.T) {
	m := NewManager()
	p := &point{x: 0}
	m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"x": 10}, Duration: 100 * time.Millisecond, Delay: 100 * time.Millisecond})

	m.Update(50 * time.Millisecond)
	p.x = 5
	m.Update(50 * time.Millisecond)
	assert.InDelta(t, 5, p.x, 1e-9)

	m.Update(50 * time.Millisecond)
	assert.InDelta(t, 7.5, p.x, 1e-9)
}

func TestYoyoRepeatCompletes(t *testing.T) {
	m := NewManager()
	p := &point{y: 100}
	completed := 0
	m.Add(Config{
		Targets:    []Target{p},
		Props:      map[string]float64{"y": 85},
		Duration:   200 * time.Millisecond,
		Yoyo:       true,
		Repeat:     1,
		OnComplete: func() { completed++ },
	})

	// One play is forward plus back: 400ms. Two plays: 800ms.
	assert.Zero(t, runAll(m.Update(200*time.Millisecond)))
	assert.InDelta(t, 85, p.y, 1e-9)
	assert.Zero(t, runAll(m.Update(599*time.Millisecond)))
	assert.Equal(t, 1, runAll(m.Update(time.Millisecond)))
	assert.Equal(t, 1, completed)
	assert.InDelta(t, 100, p.y, 1e-9)
}

func TestInfiniteRepeatNeverCompletes(t *testing.T) {
	m := NewManager()
	p := &point{}
	m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"x": 1}, Duration: 10 * time.Millisecond, Repeat: -1, Yoyo: true,
		OnComplete: func() { t.Fatal("infinite tween completed") }})
	for i := 0; i < 100; i++ {
		runAll(m.Update(7 * time.Millisecond))
	}
	assert.Equal(t, 1, m.Len())
}

func TestZeroDurationCompletesImmediately(t *testing.T) {
	m := NewManager()
	p := &point{}
	m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"alpha": 1}, OnComplete: func() {}})
	assert.Len(t, m.Update(0), 1)
	assert.InDelta(t, 1, p.alpha, 1e-9)
}

func TestKill(t *testing.T) {
	m := NewManager()
	p := &point{}
	tw := m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"x": 1}, Duration: time.Second,
		OnComplete: func() { t.Fatal("killed tween completed") }})
	m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"y": 1}, Duration: time.Second})

	m.Kill(tw)
	m.Update(2 * time.Second)
	assert.True(t, tw.Done())

	m.Add(Config{Targets: []Target{p}, Props: map[string]float64{"y": 2}, Duration: time.Second})
	m.KillTweensOf(p)
	assert.Zero(t, m.Len())
}

func TestTimersOrder(t *testing.T) {
	var tm Timers
	var got []int
	tm.After(30*time.Millisecond, func() { got = append(got, 3) })
	tm.After(10*time.Millisecond, func() { got = append(got, 1) })
	tm.After(10*time.Millisecond, func() { got = append(got, 2) })

	runAll(tm.Update(5 * time.Millisecond))
	assert.Empty(t, got)
	runAll(tm.Update(50 * time.Millisecond))
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 55*time.Millisecond, tm.Now())
	assert.Zero(t, tm.Len())
}

func TestAwaitRunsCallerCallbackBeforeResolving(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 50; i++ {
		m := NewManager()
		p := &point{}
		d := time.Duration(1+r.IntN(500)) * time.Millisecond

		callbackRan := false
		resolvedBeforeCallback := false
		plain := Await(StarterFunc(m.Add), Config{
			Targets:  []Target{p},
			Props:    map[string]float64{"x": 1},
			Duration: d,
			Ease:     "Sine.easeOut",
		})
		withCallback := Await(StarterFunc(m.Add), Config{
			Targets:    []Target{p},
			Props:      map[string]float64{"y": 1},
			Duration:   d,
			OnComplete: func() { callbackRan = true },
		})

		runAll(m.Update(d - time.Millisecond/2))
		require.False(t, plain.IsResolved(), "resolved before the tween finished (d=%v)", d)
		require.False(t, withCallback.IsResolved())

		for _, fn := range m.Update(time.Millisecond) {
			if withCallback.IsResolved() && !callbackRan {
				resolvedBeforeCallback = true
			}
			fn()
		}
		require.True(t, plain.IsResolved())
		require.True(t, withCallback.IsResolved())
		require.True(t, callbackRan)
		require.False(t, resolvedBeforeCallback)
		require.InDelta(t, 1, p.y, 1e-9)
		require.False(t, math.IsNaN(p.x))
	}
}
