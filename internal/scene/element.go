package scene

import (
	"image"
	"image/color"
)

// Kind selects how an element is drawn.
type Kind int

const (
	KindContainer Kind = iota
	KindRect
	KindCircle
	KindTriangle
	KindText
	KindImage
)

// Vec is a point in element-local coordinates.
type Vec struct {
	X, Y float64
}

// Element is a node of the scene graph. Position is relative to the parent
// container. Fields are guarded by the owning scene's lock: mutate them from
// outside a tween only inside Scene.Edit.
type Element struct {
	Kind Kind
	Name string

	X, Y           float64
	ScaleX, ScaleY float64
	Alpha          float64
	Rotation       float64
	Depth          int
	Visible        bool

	// W and H size rects and images. Circles use W as the radius. Text uses
	// H as the glyph height in pixels.
	W, H float64
	// OriginX and OriginY place the anchor within the W×H box (0.5 = centre).
	OriginX, OriginY float64
	// Points outline a triangle around the anchor.
	Points [3]Vec

	Color color.RGBA
	Text  string
	Img   image.Image

	parent   *Element
	children []*Element
}

func newElement(kind Kind) *Element {
	return &Element{
		Kind:    kind,
		ScaleX:  1,
		ScaleY:  1,
		Alpha:   1,
		Visible: true,
		OriginX: 0.5,
		OriginY: 0.5,
	}
}

// NewContainer returns an empty group. Children inherit its transform.
func NewContainer(name string) *Element {
	e := newElement(KindContainer)
	e.Name = name
	return e
}

// NewRect returns a filled w×h rectangle centred on its anchor.
func NewRect(w, h float64, c color.RGBA) *Element {
	e := newElement(KindRect)
	e.W, e.H, e.Color = w, h, c
	return e
}

// NewCircle returns a filled circle of radius r.
func NewCircle(r float64, c color.RGBA) *Element {
	e := newElement(KindCircle)
	e.W, e.Color = r, c
	return e
}

// NewTriangle returns a filled triangle through the given local points.
func NewTriangle(a, b, c Vec, col color.RGBA) *Element {
	e := newElement(KindTriangle)
	e.Points = [3]Vec{a, b, c}
	e.Color = col
	return e
}

// NewText returns a text element with glyphs size pixels high.
func NewText(text string, size float64, c color.RGBA) *Element {
	e := newElement(KindText)
	e.Text, e.H, e.Color = text, size, c
	return e
}

// NewImage returns an element that draws img scaled to w×h.
func NewImage(img image.Image, w, h float64) *Element {
	e := newElement(KindImage)
	e.Img, e.W, e.H = img, w, h
	return e
}

// Children returns the element's children. The slice must not be modified.
func (e *Element) Children() []*Element {
	return e.children
}

// Parent returns the containing element, nil for roots.
func (e *Element) Parent() *Element {
	return e.parent
}

// Prop implements tween.Target.
func (e *Element) Prop(name string) (float64, bool) {
	switch name {
	case "x":
		return e.X, true
	case "y":
		return e.Y, true
	case "scaleX":
		return e.ScaleX, true
	case "scaleY":
		return e.ScaleY, true
	case "alpha":
		return e.Alpha, true
	case "rotation":
		return e.Rotation, true
	case "w":
		return e.W, true
	case "h":
		return e.H, true
	}
	return 0, false
}

// SetProp implements tween.Target.
func (e *Element) SetProp(name string, v float64) {
	switch name {
	case "x":
		e.X = v
	case "y":
		e.Y = v
	case "scaleX":
		e.ScaleX = v
	case "scaleY":
		e.ScaleY = v
	case "alpha":
		e.Alpha = v
	case "rotation":
		e.Rotation = v
	case "w":
		e.W = v
	case "h":
		e.H = v
	}
}

func (e *Element) detach() {
	if e.parent == nil {
		return
	}
	siblings := e.parent.children
	for i, c := range siblings {
		if c == e {
			e.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	e.parent = nil
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}
