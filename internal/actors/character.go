package actors

import (
	"math"
	"time"

	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/task"
	"github.com/ivlev/carrytales/internal/tween"
)

// Emotion is a facial expression.
type Emotion string

const (
	Happy     Emotion = "happy"
	Sad       Emotion = "sad"
	Surprised Emotion = "surprised"
	Neutral   Emotion = "neutral"
)

var digitColors = map[byte]uint32{
	'0': 0x888888,
	'1': 0xff6b6b,
	'2': 0x4ecdc4,
	'3': 0xffe66d,
	'4': 0xa29bfe,
	'5': 0x55efc4,
	'6': 0xfd79a8,
	'7': 0x74b9ff,
	'8': 0xffa502,
	'9': 0xe056fd,
}

// Character is a number with a face.
type Character struct {
	Root   *scene.Element
	Digit  string
	Radius float64

	s      *scene.Scene
	mouths map[Emotion]*scene.Element
}

// NewCharacter places a character for digit at (x, y). A radius of zero
// means the default 36.
func NewCharacter(s *scene.Scene, x, y float64, digit string, radius float64) *Character {
	if radius <= 0 {
		radius = 36
	}
	c := &Character{Digit: digit, Radius: radius, s: s}
	r := radius

	root := scene.NewContainer("char:" + digit)
	root.X, root.Y = x, y
	c.Root = s.Add(root)

	col := uint32(0xcccccc)
	if len(digit) > 0 {
		if v, ok := digitColors[digit[0]]; ok {
			col = v
		}
	}
	double := len(digit) > 1
	if double {
		s.AddTo(root, scene.NewRect(r*3.2, r*2, RGB(col)))
	} else {
		s.AddTo(root, scene.NewCircle(r, RGB(col)))
	}

	label := scene.NewText(digit, math.Floor(r*1.1), RGB(0xffffff))
	label.Y = 2
	s.AddTo(root, label)

	eyeY := -r * 0.3
	spacing := r * 0.35
	if double {
		spacing = r * 0.5
	}
	for _, side := range []float64{-1, 1} {
		eye := scene.NewCircle(r*0.12, RGB(0xffffff))
		eye.X, eye.Y = side*spacing, eyeY
		s.AddTo(root, eye)
		pupil := scene.NewCircle(r*0.06, RGB(0x000000))
		pupil.X, pupil.Y = side*spacing, eyeY
		s.AddTo(root, pupil)
	}

	mouthY := r * 0.35
	w := r * 0.2
	c.mouths = map[Emotion]*scene.Element{
		Happy:     scene.NewTriangle(scene.Vec{X: -w, Y: mouthY - 4}, scene.Vec{X: w, Y: mouthY - 4}, scene.Vec{X: 0, Y: mouthY + 2}, RGB(0x000000)),
		Sad:       scene.NewTriangle(scene.Vec{X: -w, Y: mouthY + 4}, scene.Vec{X: w, Y: mouthY + 4}, scene.Vec{X: 0, Y: mouthY - 2}, RGB(0x000000)),
		Surprised: scene.NewCircle(r*0.12, RGB(0x000000)),
		Neutral:   scene.NewRect(r*0.3, 2, RGB(0x000000)),
	}
	for _, m := range c.mouths {
		if m.Kind != scene.KindTriangle {
			m.Y = mouthY
		}
		s.AddTo(root, m)
	}
	c.ShowEmotion(Happy)
	return c
}

// ShowEmotion switches the mouth.
func (c *Character) ShowEmotion(e Emotion) {
	c.s.Edit(func() {
		for k, m := range c.mouths {
			m.Visible = k == e
		}
	})
}

// Emotion returns the expression currently shown.
func (c *Character) Emotion() Emotion {
	var cur Emotion
	c.s.Edit(func() {
		for k, m := range c.mouths {
			if m.Visible {
				cur = k
			}
		}
	})
	return cur
}

// SetDepth changes the draw order of the character.
func (c *Character) SetDepth(d int) {
	c.s.Edit(func() { c.Root.Depth = d })
}

// Position returns the current position.
func (c *Character) Position() (x, y float64) {
	c.s.Edit(func() { x, y = c.Root.X, c.Root.Y })
	return x, y
}

// WalkTo moves to (x, y) with a squash-and-stretch gait.
func (c *Character) WalkTo(x, y float64, d time.Duration) *task.Task {
	c.s.Tween(tween.Config{
		Targets:  []tween.Target{c.Root},
		Props:    map[string]float64{"scaleY": 0.92},
		Duration: 150 * time.Millisecond,
		Yoyo:     true,
		Repeat:   int(d / (300 * time.Millisecond)),
		Ease:     "Sine.easeInOut",
	})
	return c.s.Await(tween.Config{
		Targets:  []tween.Target{c.Root},
		Props:    map[string]float64{"x": x, "y": y},
		Duration: d,
		Ease:     "Power1",
	})
}

// Shake wiggles the character left and right for about d.
func (c *Character) Shake(d time.Duration) *task.Task {
	x, _ := c.Position()
	return c.s.Await(tween.Config{
		Targets:  []tween.Target{c.Root},
		Props:    map[string]float64{"x": x - 8},
		Duration: 50 * time.Millisecond,
		Yoyo:     true,
		Repeat:   int(d / (100 * time.Millisecond)),
		Ease:     "Sine.easeInOut",
	})
}

// Shrink scales the character to nothing while fading out.
func (c *Character) Shrink(d time.Duration) *task.Task {
	return c.s.Await(tween.Config{
		Targets:  []tween.Target{c.Root},
		Props:    map[string]float64{"scaleX": 0, "scaleY": 0, "alpha": 0},
		Duration: d,
		Ease:     "Back.easeIn",
	})
}

// PopIn grows the character from zero scale.
func (c *Character) PopIn(d time.Duration) *task.Task {
	c.s.Edit(func() {
		c.Root.ScaleX, c.Root.ScaleY, c.Root.Alpha = 0, 0, 1
	})
	return c.s.Await(tween.Config{
		Targets:  []tween.Target{c.Root},
		Props:    map[string]float64{"scaleX": 1, "scaleY": 1},
		Duration: d,
		Ease:     "Back.easeOut",
	})
}

// Bounce hops in place times times.
func (c *Character) Bounce(times int) *task.Task {
	if times < 1 {
		times = 1
	}
	_, y := c.Position()
	return c.s.Await(tween.Config{
		Targets:  []tween.Target{c.Root},
		Props:    map[string]float64{"y": y - 30},
		Duration: 250 * time.Millisecond,
		Yoyo:     true,
		Repeat:   times - 1,
		Ease:     "Sine.easeOut",
	})
}

// FlyTo follows a quadratic arc 200px above the higher endpoint and leaves
// a fading trail. The trail is destroyed after the flight.
func (c *Character) FlyTo(x, y float64, d time.Duration) *task.Task {
	x0, y0 := c.Position()
	f := &flight{
		char: c.Root,
		p0:   scene.Vec{X: x0, Y: y0},
		p1:   scene.Vec{X: (x0 + x) / 2, Y: math.Min(y0, y) - 200},
		p2:   scene.Vec{X: x, Y: y},
	}

	trail := scene.NewContainer("trail")
	c.s.Edit(func() { trail.Depth = c.Root.Depth - 1 })
	c.s.Add(trail)
	for i := 0; i < trailDots; i++ {
		dot := scene.NewCircle(4, RGB(0xffff00))
		dot.Visible = false
		f.dots = append(f.dots, c.s.AddTo(trail, dot))
	}

	return c.s.Await(tween.Config{
		Targets:  []tween.Target{f},
		Props:    map[string]float64{"t": 1},
		Duration: d,
		Ease:     "Sine.easeInOut",
		OnComplete: func() {
			c.s.Tween(tween.Config{
				Targets:    []tween.Target{trail},
				Props:      map[string]float64{"alpha": 0},
				Duration:   500 * time.Millisecond,
				OnComplete: func() { c.s.Destroy(trail) },
			})
		},
	})
}

const trailDots = 40

// flight is a tween target whose single property t moves a character
// along a quadratic Bézier curve. SetProp runs under the scene lock.
type flight struct {
	char       *scene.Element
	p0, p1, p2 scene.Vec
	t          float64
	dots       []*scene.Element
	shown      int
}

func (f *flight) Prop(name string) (float64, bool) {
	if name != "t" {
		return 0, false
	}
	return f.t, true
}

func (f *flight) SetProp(name string, v float64) {
	if name != "t" {
		return
	}
	f.t = v
	u := 1 - v
	x := u*u*f.p0.X + 2*u*v*f.p1.X + v*v*f.p2.X
	y := u*u*f.p0.Y + 2*u*v*f.p1.Y + v*v*f.p2.Y
	f.char.X, f.char.Y = x, y

	for f.shown < len(f.dots) && float64(f.shown)/float64(len(f.dots)) <= v {
		dot := f.dots[f.shown]
		dot.X, dot.Y = x, y
		dot.Alpha = 0.6 - v*0.5
		dot.Visible = true
		f.shown++
	}
}
