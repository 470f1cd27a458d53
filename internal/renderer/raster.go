// Package renderer rasterises scene snapshots into RGBA frames.
package renderer

import (
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"github.com/ivlev/carrytales/internal/scene"
)

// Options configures a Renderer.
type Options struct {
	Width, Height int
	// Backdrop is scaled to cover the frame behind every sprite.
	Backdrop image.Image
	Caption  *Caption
	Camera   *Camera
}

// Renderer draws frames into a reused buffer. It is not safe for
// concurrent use.
type Renderer struct {
	width, height int
	backdrop      *image.RGBA
	caption       *Caption
	camera        *Camera
	glyphs        *glyphCache
	buf           *image.RGBA
}

// New returns a renderer. A backdrop is scaled once here.
func New(opts Options) *Renderer {
	r := &Renderer{
		width:   opts.Width,
		height:  opts.Height,
		caption: opts.Caption,
		camera:  opts.Camera,
		glyphs:  newGlyphCache(),
		buf:     image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
	}
	if opts.Backdrop != nil {
		r.backdrop = image.NewRGBA(r.buf.Bounds())
		draw.CatmullRom.Scale(r.backdrop, r.backdrop.Bounds(), opts.Backdrop, opts.Backdrop.Bounds(), draw.Src, nil)
	}
	return r
}

// Render draws f and returns the internal buffer, valid until the next call.
func (r *Renderer) Render(f scene.Frame) *image.RGBA {
	r.RenderTo(r.buf, f)
	return r.buf
}

// RenderTo draws f into dst.
func (r *Renderer) RenderTo(dst *image.RGBA, f scene.Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(f.Background), image.Point{}, draw.Src)
	if r.backdrop != nil {
		draw.Draw(dst, dst.Bounds(), r.backdrop, image.Point{}, draw.Over)
	}

	v := r.view(f)
	for _, sp := range f.Sprites {
		r.drawSprite(dst, v, sp)
	}
	if r.caption != nil {
		r.drawCaption(dst, r.caption.Text())
	}
}

// view maps scene coordinates to pixels.
type view struct {
	cx, cy float64 // scene point at the frame centre
	zoom   float64
	sx, sy float64 // scene to output scale
	fw, fh float64
}

func (r *Renderer) view(f scene.Frame) view {
	fw, fh := float64(f.Width), float64(f.Height)
	if fw <= 0 || fh <= 0 {
		fw, fh = float64(r.width), float64(r.height)
	}
	v := view{cx: fw / 2, cy: fh / 2, zoom: 1, fw: fw, fh: fh,
		sx: float64(r.width) / fw, sy: float64(r.height) / fh}
	if r.camera != nil {
		st := r.camera.StateAt(f.Time)
		v.cx, v.cy, v.zoom = st.X, st.Y, st.Zoom
	}
	return v
}

func (v view) point(x, y float64) (float64, float64) {
	return ((x-v.cx)*v.zoom + v.fw/2) * v.sx, ((y-v.cy)*v.zoom + v.fh/2) * v.sy
}

func (r *Renderer) drawSprite(dst *image.RGBA, v view, sp scene.Sprite) {
	if sp.ScaleX == 0 || sp.ScaleY == 0 {
		return
	}
	switch sp.Kind {
	case scene.KindRect:
		x0, y0 := -sp.W*sp.OriginX, -sp.H*sp.OriginY
		x1, y1 := x0+sp.W, y0+sp.H
		fillPolygon(dst, spritePoints(v, sp, [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}), sp.Color, sp.Alpha)
	case scene.KindTriangle:
		pts := make([][2]float64, 3)
		for i, p := range sp.Points {
			pts[i] = [2]float64{p.X, p.Y}
		}
		fillPolygon(dst, spritePoints(v, sp, pts), sp.Color, sp.Alpha)
	case scene.KindCircle:
		cx, cy := v.point(sp.X, sp.Y)
		fillEllipse(dst, cx, cy, sp.W*math.Abs(sp.ScaleX)*v.zoom*v.sx, sp.W*math.Abs(sp.ScaleY)*v.zoom*v.sy, sp.Color, sp.Alpha)
	case scene.KindText:
		r.drawText(dst, v, sp)
	case scene.KindImage:
		if sp.Element == nil || sp.Element.Img == nil {
			return
		}
		x0, y0 := v.point(sp.X-sp.W*sp.OriginX*sp.ScaleX, sp.Y-sp.H*sp.OriginY*sp.ScaleY)
		x1, y1 := v.point(sp.X+sp.W*(1-sp.OriginX)*sp.ScaleX, sp.Y+sp.H*(1-sp.OriginY)*sp.ScaleY)
		scaleInto(dst, rectOf(x0, y0, x1, y1), sp.Element.Img, sp.Alpha, draw.ApproxBiLinear)
	}
}

// spritePoints scales, rotates, and places local points on screen.
func spritePoints(v view, sp scene.Sprite, local [][2]float64) [][2]float64 {
	sin, cos := math.Sincos(sp.Rotation)
	out := make([][2]float64, len(local))
	for i, p := range local {
		x, y := p[0]*sp.ScaleX, p[1]*sp.ScaleY
		x, y = x*cos-y*sin, x*sin+y*cos
		out[i][0], out[i][1] = v.point(sp.X+x, sp.Y+y)
	}
	return out
}

func rectOf(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
}

// scaleInto draws src stretched over r with the given opacity. Glyphs use
// draw.NearestNeighbor so their pixels stay solid; pictures use bilinear.
func scaleInto(dst *image.RGBA, r image.Rectangle, src image.Image, alpha float64, scaler draw.Scaler) {
	if r.Empty() || alpha <= 0 {
		return
	}
	var opts *draw.Options
	if alpha < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(alpha * 255)})}
	}
	scaler.Scale(dst, r, src, src.Bounds(), draw.Over, opts)
}

// fillPolygon fills pts with even-odd scanlines sampled at pixel centres.
func fillPolygon(dst *image.RGBA, pts [][2]float64, c color.RGBA, alpha float64) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0][1], pts[0][1]
	for _, p := range pts[1:] {
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	b := dst.Bounds()
	y0 := max(b.Min.Y, int(math.Floor(minY)))
	y1 := min(b.Max.Y-1, int(math.Ceil(maxY)))

	xs := make([]float64, 0, len(pts))
	for y := y0; y <= y1; y++ {
		fy := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			a, bb := pts[i], pts[(i+1)%len(pts)]
			if (a[1] <= fy && bb[1] > fy) || (bb[1] <= fy && a[1] > fy) {
				xs = append(xs, a[0]+(fy-a[1])/(bb[1]-a[1])*(bb[0]-a[0]))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			fillSpan(dst, y, int(math.Round(xs[i])), int(math.Round(xs[i+1])), c, alpha)
		}
	}
}

func fillEllipse(dst *image.RGBA, cx, cy, rx, ry float64, c color.RGBA, alpha float64) {
	if rx <= 0 || ry <= 0 {
		return
	}
	b := dst.Bounds()
	y0 := max(b.Min.Y, int(math.Floor(cy-ry)))
	y1 := min(b.Max.Y-1, int(math.Ceil(cy+ry)))
	for y := y0; y <= y1; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		if dy*dy > 1 {
			continue
		}
		hw := rx * math.Sqrt(1-dy*dy)
		fillSpan(dst, y, int(math.Round(cx-hw)), int(math.Round(cx+hw)), c, alpha)
	}
}

// fillSpan blends c over the pixels [x0, x1) of row y.
func fillSpan(dst *image.RGBA, y, x0, x1 int, c color.RGBA, alpha float64) {
	b := dst.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X)
	a := float64(c.A) / 255 * alpha
	if x0 >= x1 || a <= 0 {
		return
	}
	if a > 1 {
		a = 1
	}
	sr, sg, sb := float64(c.R)*a, float64(c.G)*a, float64(c.B)*a
	sa := 255 * a
	inv := 1 - a
	row := dst.PixOffset(x0, y)
	for i := row; i < row+4*(x1-x0); i += 4 {
		p := dst.Pix[i : i+4 : i+4]
		p[0] = uint8(sr + float64(p[0])*inv + 0.5)
		p[1] = uint8(sg + float64(p[1])*inv + 0.5)
		p[2] = uint8(sb + float64(p[2])*inv + 0.5)
		p[3] = uint8(sa + float64(p[3])*inv + 0.5)
	}
}
