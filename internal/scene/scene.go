// Package scene is a small retained-mode scene graph with a tween manager and
// a virtual clock. Time only moves when Step is called, which lets the same
// story play in real time or be exported frame by frame.
package scene

import (
	"image/color"
	"sort"
	"sync"
	"time"

	"github.com/ivlev/carrytales/internal/task"
	"github.com/ivlev/carrytales/internal/tween"
)

// Scene owns elements, tweens, and timers behind one lock.
type Scene struct {
	Width, Height int
	Background    color.RGBA

	mu     sync.Mutex
	roots  []*Element
	tweens *tween.Manager
	timers tween.Timers
}

// New returns an empty scene of the given size.
func New(width, height int) *Scene {
	return &Scene{
		Width:      width,
		Height:     height,
		Background: color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff},
		tweens:     tween.NewManager(),
	}
}

// Add attaches e to the scene root and returns it.
func (s *Scene) Add(e *Element) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.detach()
	s.removeRoot(e)
	s.roots = append(s.roots, e)
	return e
}

// AddTo attaches e to parent and returns e.
func (s *Scene) AddTo(parent, e *Element) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.detach()
	s.removeRoot(e)
	e.parent = parent
	parent.children = append(parent.children, e)
	return e
}

// Remove detaches e from the scene. Its tweens keep running.
func (s *Scene) Remove(e *Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.detach()
	s.removeRoot(e)
}

// Destroy removes e and its subtree and kills their tweens. Tasks awaiting
// those tweens never resolve.
func (s *Scene) Destroy(e *Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.detach()
	s.removeRoot(e)
	var subtree []*Element
	e.walk(func(n *Element) {
		s.tweens.KillTweensOf(n)
		subtree = append(subtree, n)
	})
	for _, n := range subtree {
		n.parent = nil
		n.children = nil
	}
}

func (s *Scene) removeRoot(e *Element) {
	for i, r := range s.roots {
		if r == e {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}

// Edit runs fn under the scene lock. Use it for direct field writes.
func (s *Scene) Edit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Tween starts a tween on the scene clock. It implements tween.Starter.
func (s *Scene) Tween(cfg tween.Config) *tween.Tween {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tweens.Add(cfg)
}

// Await starts a tween and returns a task resolved when it completes.
func (s *Scene) Await(cfg tween.Config) *task.Task {
	return tween.Await(s, cfg)
}

// DelayedCall runs fn once d of scene time has passed.
func (s *Scene) DelayedCall(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers.After(d, fn)
}

// Delay returns a task resolved after d of scene time.
func (s *Scene) Delay(d time.Duration) *task.Task {
	t, resolve := task.New()
	s.DelayedCall(d, resolve)
	return t
}

// Now returns the scene clock.
func (s *Scene) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers.Now()
}

// ActiveTweens returns the number of running tweens.
func (s *Scene) ActiveTweens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tweens.Len()
}

// Step advances the scene clock by dt. Timer and tween callbacks run after
// the lock is released, so they may call back into the scene.
func (s *Scene) Step(dt time.Duration) {
	s.mu.Lock()
	fns := s.timers.Update(dt)
	fns = append(fns, s.tweens.Update(dt)...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Reset drops every element, tween, and pending timer.
func (s *Scene) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweens.KillAll()
	s.timers.Clear()
	s.roots = nil
}

// Sprite is an element resolved to world space for drawing.
type Sprite struct {
	Kind           Kind
	Name           string
	X, Y           float64
	ScaleX, ScaleY float64
	Alpha          float64
	Rotation       float64
	W, H           float64
	OriginX        float64
	OriginY        float64
	Points         [3]Vec
	Color          color.RGBA
	Text           string
	Element        *Element
}

// Frame is a consistent copy of the scene at one instant.
type Frame struct {
	Time       time.Duration
	Width      int
	Height     int
	Background color.RGBA
	Sprites    []Sprite
}

// Snapshot resolves every visible element to world space in draw order:
// roots by depth, each container followed by its children by depth.
func (s *Scene) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := Frame{
		Time:       s.timers.Now(),
		Width:      s.Width,
		Height:     s.Height,
		Background: s.Background,
	}
	identity := Sprite{ScaleX: 1, ScaleY: 1, Alpha: 1}
	for _, e := range byDepth(s.roots) {
		collect(&f.Sprites, e, identity)
	}
	return f
}

func collect(out *[]Sprite, e *Element, parent Sprite) {
	if !e.Visible {
		return
	}
	sp := Sprite{
		Kind:     e.Kind,
		Name:     e.Name,
		X:        parent.X + e.X*parent.ScaleX,
		Y:        parent.Y + e.Y*parent.ScaleY,
		ScaleX:   parent.ScaleX * e.ScaleX,
		ScaleY:   parent.ScaleY * e.ScaleY,
		Alpha:    parent.Alpha * e.Alpha,
		Rotation: parent.Rotation + e.Rotation,
		W:        e.W,
		H:        e.H,
		OriginX:  e.OriginX,
		OriginY:  e.OriginY,
		Points:   e.Points,
		Color:    e.Color,
		Text:     e.Text,
		Element:  e,
	}
	if sp.Alpha <= 0 {
		return
	}
	if e.Kind != KindContainer {
		*out = append(*out, sp)
	}
	for _, c := range byDepth(e.children) {
		collect(out, c, sp)
	}
}

func byDepth(in []*Element) []*Element {
	out := append([]*Element(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}
