package renderer

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/carrytales/internal/scene"
)

var face = basicfont.Face7x13

const (
	glyphW = 7
	glyphH = 13
)

type glyphKey struct {
	text string
	col  color.RGBA
}

// glyphCache keeps text rendered at the font's native size. Scaling up
// from there gives the blocky look of the built-in face.
type glyphCache struct {
	m map[glyphKey]*image.RGBA
}

func newGlyphCache() *glyphCache {
	return &glyphCache{m: make(map[glyphKey]*image.RGBA)}
}

func (g *glyphCache) get(text string, col color.RGBA) *image.RGBA {
	k := glyphKey{text, col}
	if img, ok := g.m[k]; ok {
		return img
	}
	if len(g.m) > 512 {
		clear(g.m)
	}
	img := rasterText(text, col)
	g.m[k] = img
	return img
}

// rasterText draws centred lines of text with a one-pixel dark outline.
func rasterText(text string, col color.RGBA) *image.RGBA {
	lines := strings.Split(text, "\n")
	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	img := image.NewRGBA(image.Rect(0, 0, width*glyphW+2, len(lines)*glyphH+2))
	outline := image.NewUniform(color.RGBA{A: 0xcc})
	fill := image.NewUniform(col)

	for i, l := range lines {
		x := 1 + (width-len([]rune(l)))*glyphW/2
		y := 1 + i*glyphH + face.Ascent
		for _, off := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			d := font.Drawer{Dst: img, Src: outline, Face: face, Dot: fixed.P(x+off[0], y+off[1])}
			d.DrawString(l)
		}
		d := font.Drawer{Dst: img, Src: fill, Face: face, Dot: fixed.P(x, y)}
		d.DrawString(l)
	}
	return img
}

func (r *Renderer) drawText(dst *image.RGBA, v view, sp scene.Sprite) {
	if sp.Text == "" {
		return
	}
	img := r.glyphs.get(sp.Text, sp.Color)
	// H is the height of one line of glyphs.
	k := sp.H / glyphH
	w := float64(img.Bounds().Dx()) * k * sp.ScaleX
	h := float64(img.Bounds().Dy()) * k * sp.ScaleY
	x0, y0 := v.point(sp.X-w*sp.OriginX, sp.Y-h*sp.OriginY)
	x1, y1 := v.point(sp.X+w*(1-sp.OriginX), sp.Y+h*(1-sp.OriginY))
	scaleInto(dst, rectOf(x0, y0, x1, y1), img, sp.Alpha, draw.NearestNeighbor)
}

// drawCaption draws text word-wrapped on a dark band at the bottom.
func (r *Renderer) drawCaption(dst *image.RGBA, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	b := dst.Bounds()
	scale := max(1, b.Dy()/360)
	maxChars := max(10, (b.Dx()-80)/(glyphW*scale))
	lines := wrap(text, maxChars)

	lineH := glyphH * scale
	bandH := (len(lines) + 1) * lineH
	top := b.Max.Y - bandH - lineH
	for y := top; y < top+bandH; y++ {
		fillSpan(dst, y, b.Min.X+20, b.Max.X-20, color.RGBA{A: 0xff}, 0.6)
	}

	img := r.glyphs.get(strings.Join(lines, "\n"), color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	w, h := img.Bounds().Dx()*scale, img.Bounds().Dy()*scale
	x := b.Min.X + (b.Dx()-w)/2
	y := top + (bandH-h)/2
	scaleInto(dst, image.Rect(x, y, x+w, y+h), img, 1, draw.NearestNeighbor)
}

// wrap breaks text into lines of at most width runes, splitting on spaces.
// Words longer than width get a line of their own.
func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(word)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
