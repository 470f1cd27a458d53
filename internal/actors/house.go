// Package actors builds the story's characters and props on a scene. Every
// animation method starts its tweens immediately and returns a task that
// resolves when they finish.
package actors

import (
	"image/color"
	"time"

	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/task"
	"github.com/ivlev/carrytales/internal/tween"
)

// Direction is the side of the screen an actor enters from.
type Direction int

const (
	FromLeft Direction = iota
	FromRight
)

const (
	doorWidth  = 50
	doorHeight = 65
	roofHeight = 70
)

// HouseOptions configures a place-value house.
type HouseOptions struct {
	Label     string
	BodyColor color.RGBA
	RoofColor color.RGBA
	Width     float64
	Height    float64
}

func (o HouseOptions) withDefaults() HouseOptions {
	if o.Label == "" {
		o.Label = "HOUSE"
	}
	if o.BodyColor == (color.RGBA{}) {
		o.BodyColor = RGB(0x8B4513)
	}
	if o.RoofColor == (color.RGBA{}) {
		o.RoofColor = RGB(0xCC3333)
	}
	if o.Width <= 0 {
		o.Width = 220
	}
	if o.Height <= 0 {
		o.Height = 220
	}
	return o
}

// House is a place-value house anchored at the centre of its base.
type House struct {
	Root   *scene.Element
	Label  string
	Width  float64
	Height float64

	s           *scene.Scene
	homeX       float64
	homeY       float64
	door        *scene.Element
	roofOpening *scene.Element
	doorSign    *scene.Element
	digits      []*scene.Element
}

// NewHouse builds a house whose base centre rests at (x, y).
func NewHouse(s *scene.Scene, x, y float64, opts HouseOptions) *House {
	opts = opts.withDefaults()
	h := &House{
		Label:  opts.Label,
		Width:  opts.Width,
		Height: opts.Height,
		s:      s,
		homeX:  x,
		homeY:  y,
	}
	w, ht := opts.Width, opts.Height
	hw := w / 2

	root := scene.NewContainer("house:" + opts.Label)
	root.X, root.Y = x, y
	h.Root = s.Add(root)

	body := scene.NewRect(w, ht, opts.BodyColor)
	body.OriginY = 1
	s.AddTo(root, body)
	for row := -ht + 20; row < 0; row += 20 {
		mortar := scene.NewRect(w, 1, color.RGBA{A: 0x26})
		mortar.Y = row
		s.AddTo(root, mortar)
	}

	s.AddTo(root, scene.NewTriangle(
		scene.Vec{X: -hw - 15, Y: -ht},
		scene.Vec{X: 0, Y: -ht - roofHeight},
		scene.Vec{X: hw + 15, Y: -ht},
		opts.RoofColor,
	))

	h.door = s.AddTo(root, scene.NewContainer("door"))
	panel := scene.NewRect(doorWidth, doorHeight, RGB(0x5c3317))
	panel.OriginY = 1
	s.AddTo(h.door, panel)
	knob := scene.NewCircle(4, RGB(0xffd700))
	knob.X, knob.Y = doorWidth/2-10, -doorHeight/2
	s.AddTo(h.door, knob)

	opening := scene.NewRect(40, 25, color.RGBA{A: 0xb3})
	opening.Y = -ht - roofHeight + 15 + 12.5
	opening.Alpha = 0
	h.roofOpening = s.AddTo(root, opening)

	label := scene.NewText(opts.Label, 22, RGB(0xffffff))
	label.Y = -ht - roofHeight - 20
	s.AddTo(root, label)

	sign := scene.NewText("One digit\nonly!", 11, RGB(0xffddaa))
	sign.Y = -doorHeight - 10
	sign.Alpha = 0
	h.doorSign = s.AddTo(root, sign)

	return h
}

// DoorFrontPos is where a character stands in front of the door.
func (h *House) DoorFrontPos() (x, y float64) {
	return h.homeX, h.homeY + 10
}

// RoofOpeningPos is the target of the carry flight.
func (h *House) RoofOpeningPos() (x, y float64) {
	return h.homeX, h.homeY - h.Height - roofHeight + 20
}

// TopY is the y of the roof ridge.
func (h *House) TopY() float64 {
	return h.homeY - h.Height - roofHeight
}

// HomeX is the resting x of the house.
func (h *House) HomeX() float64 {
	return h.homeX
}

// FlashDoor blinks the door three times.
func (h *House) FlashDoor() *task.Task {
	return h.s.Await(tween.Config{
		Targets:  []tween.Target{h.door},
		Props:    map[string]float64{"alpha": 0.3},
		Duration: 200 * time.Millisecond,
		Yoyo:     true,
		Repeat:   2,
	})
}

// ShowDoorSign fades in the "one digit only" sign without waiting.
func (h *House) ShowDoorSign() {
	h.s.Tween(tween.Config{
		Targets:  []tween.Target{h.doorSign},
		Props:    map[string]float64{"alpha": 1},
		Duration: 300 * time.Millisecond,
	})
}

// OpenDoor swings the door open.
func (h *House) OpenDoor() *task.Task {
	return h.s.Await(tween.Config{
		Targets:  []tween.Target{h.door},
		Props:    map[string]float64{"scaleX": 0.15},
		Duration: 400 * time.Millisecond,
		Ease:     "Power2",
	})
}

// CloseDoor swings the door shut.
func (h *House) CloseDoor() *task.Task {
	return h.s.Await(tween.Config{
		Targets:  []tween.Target{h.door},
		Props:    map[string]float64{"scaleX": 1},
		Duration: 300 * time.Millisecond,
		Ease:     "Power2",
	})
}

// ShowRoofOpening reveals the hole in the roof used for carrying.
func (h *House) ShowRoofOpening() *task.Task {
	return h.s.Await(tween.Config{
		Targets:  []tween.Target{h.roofOpening},
		Props:    map[string]float64{"alpha": 1},
		Duration: 500 * time.Millisecond,
	})
}

// HideRoofOpening closes the hole again.
func (h *House) HideRoofOpening() *task.Task {
	return h.s.Await(tween.Config{
		Targets:  []tween.Target{h.roofOpening},
		Props:    map[string]float64{"alpha": 0},
		Duration: 300 * time.Millisecond,
	})
}

// AddDigitInside writes a digit on the house wall, offsetX from the centre.
func (h *House) AddDigitInside(digit string, offsetX float64) *scene.Element {
	d := scene.NewText(digit, 32, RGB(0xffffff))
	d.X, d.Y = offsetX, -h.Height/2
	h.s.AddTo(h.Root, d)
	h.digits = append(h.digits, d)
	return d
}

// Digits returns the digits added with AddDigitInside.
func (h *House) Digits() []*scene.Element {
	return h.digits
}

// SlideIn moves the house from off-screen to its home position.
func (h *House) SlideIn(from Direction, d time.Duration) *task.Task {
	h.s.Edit(func() {
		if from == FromLeft {
			h.Root.X = -300
		} else {
			h.Root.X = float64(h.s.Width) + 300
		}
		h.Root.Visible = true
	})
	return h.s.Await(tween.Config{
		Targets:  []tween.Target{h.Root},
		Props:    map[string]float64{"x": h.homeX},
		Duration: d,
		Ease:     "Back.easeOut",
	})
}

// RGB converts a 0xRRGGBB literal to an opaque colour.
func RGB(hex uint32) color.RGBA {
	return color.RGBA{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex), A: 0xff}
}
