package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"unicode/utf8"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ivlev/explainer/internal/scene"
)

// FrameUnits is the frame height in scene units.
const FrameUnits = 8.0

// affine maps (x, y) to (a*x + b*y + c, d*x + e*y + f).
type affine struct {
	a, b, c float64
	d, e, f float64
}

func (m affine) mul(n affine) affine {
	return affine{
		a: m.a*n.a + m.b*n.d, b: m.a*n.b + m.b*n.e, c: m.a*n.c + m.b*n.f + m.c,
		d: m.d*n.a + m.e*n.d, e: m.d*n.b + m.e*n.e, f: m.d*n.c + m.e*n.f + m.f,
	}
}

func (m affine) apply(p scene.Point) (float32, float32) {
	return float32(m.a*p.X + m.b*p.Y + m.c), float32(m.d*p.X + m.e*p.Y + m.f)
}

// scale is the length factor of m, assuming uniform scaling.
func (m affine) scale() float64 {
	return math.Sqrt(math.Abs(m.a*m.e - m.b*m.d))
}

// local is the transform of an object in its parent's space.
func local(s scene.State) affine {
	sin, cos := math.Sincos(s.Angle * math.Pi / 180)
	k := s.Scale
	return affine{
		a: cos * k, b: -sin * k, c: s.Position.X,
		d: sin * k, e: cos * k, f: s.Position.Y,
	}
}

// canvas paints scene objects onto one frame.
type canvas struct {
	dst  *image.RGBA
	view affine
	ras  *vector.Rasterizer
	mask *image.Alpha
	qr   map[string][][]bool
}

func newCanvas(width, height int) *canvas {
	unit := float64(height) / FrameUnits
	ras := vector.NewRasterizer(1, 1)
	ras.DrawOp = draw.Src
	return &canvas{
		view: affine{a: unit, c: float64(width) / 2, e: -unit, f: float64(height) / 2},
		ras:  ras,
		mask: image.NewAlpha(image.Rect(0, 0, 1, 1)),
		qr:   make(map[string][][]bool),
	}
}

func rgba(c scene.Color, opacity float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A*opacity)*255 + 0.5),
	}
}

// path collects pixel-space outlines before they are filled.
type path struct {
	ops        []pathOp
	minX, minY float32
	maxX, maxY float32
}

type pathOp struct {
	kind uint8 // 'M', 'L', 'C' or 'Z'
	pts  [3][2]float32
}

func (p *path) grow(x, y float32) {
	if len(p.ops) == 0 {
		p.minX, p.minY, p.maxX, p.maxY = x, y, x, y
		return
	}
	p.minX = min(p.minX, x)
	p.minY = min(p.minY, y)
	p.maxX = max(p.maxX, x)
	p.maxY = max(p.maxY, y)
}

func (p *path) moveTo(x, y float32) {
	p.grow(x, y)
	p.ops = append(p.ops, pathOp{kind: 'M', pts: [3][2]float32{{x, y}}})
}

func (p *path) lineTo(x, y float32) {
	p.grow(x, y)
	p.ops = append(p.ops, pathOp{kind: 'L', pts: [3][2]float32{{x, y}}})
}

func (p *path) cubeTo(x1, y1, x2, y2, x, y float32) {
	p.grow(x1, y1)
	p.grow(x2, y2)
	p.grow(x, y)
	p.ops = append(p.ops, pathOp{kind: 'C', pts: [3][2]float32{{x1, y1}, {x2, y2}, {x, y}}})
}

func (p *path) close() {
	p.ops = append(p.ops, pathOp{kind: 'Z'})
}

// polygon adds a closed polygon through the transformed points.
func (p *path) polygon(m affine, pts ...scene.Point) {
	for i, pt := range pts {
		x, y := m.apply(pt)
		if i == 0 {
			p.moveTo(x, y)
		} else {
			p.lineTo(x, y)
		}
	}
	p.close()
}

// circle adds a circle of radius r pixels made of four cubic arcs.
func (p *path) circle(cx, cy, r float32, clockwise bool) {
	const k = float32(0.5522847498)
	kr := k * r
	p.moveTo(cx, cy-r)
	if clockwise {
		p.cubeTo(cx-kr, cy-r, cx-r, cy-kr, cx-r, cy)
		p.cubeTo(cx-r, cy+kr, cx-kr, cy+r, cx, cy+r)
		p.cubeTo(cx+kr, cy+r, cx+r, cy+kr, cx+r, cy)
		p.cubeTo(cx+r, cy-kr, cx+kr, cy-r, cx, cy-r)
	} else {
		p.cubeTo(cx+kr, cy-r, cx+r, cy-kr, cx+r, cy)
		p.cubeTo(cx+r, cy+kr, cx+kr, cy+r, cx, cy+r)
		p.cubeTo(cx-kr, cy+r, cx-r, cy+kr, cx-r, cy)
		p.cubeTo(cx-r, cy-kr, cx-kr, cy-r, cx, cy-r)
	}
	p.close()
}

// fill rasterizes p into a coverage mask sized to the visible part of its
// bounds and composites it over the frame.
func (c *canvas) fill(p *path, col color.NRGBA) {
	if len(p.ops) == 0 || col.A == 0 {
		return
	}
	r := pathBounds(p).Intersect(c.dst.Bounds())
	if r.Empty() {
		return
	}
	w, h := r.Dx(), r.Dy()
	if n := w * h; cap(c.mask.Pix) < n {
		c.mask.Pix = make([]uint8, n)
	} else {
		c.mask.Pix = c.mask.Pix[:n]
	}
	c.mask.Stride = w
	c.mask.Rect = image.Rect(0, 0, w, h)

	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	c.ras.Reset(w, h)
	for _, op := range p.ops {
		switch op.kind {
		case 'M':
			c.ras.MoveTo(op.pts[0][0]-ox, op.pts[0][1]-oy)
		case 'L':
			c.ras.LineTo(op.pts[0][0]-ox, op.pts[0][1]-oy)
		case 'C':
			c.ras.CubeTo(op.pts[0][0]-ox, op.pts[0][1]-oy, op.pts[1][0]-ox, op.pts[1][1]-oy, op.pts[2][0]-ox, op.pts[2][1]-oy)
		case 'Z':
			c.ras.ClosePath()
		}
	}
	c.ras.Draw(c.mask, c.mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(c.dst, r, image.NewUniform(col), image.Point{}, c.mask, image.Point{}, draw.Over)
}

// pathBounds is the pixel box around p, saturated to the int range.
func pathBounds(p *path) image.Rectangle {
	clip := func(v float64) int {
		const limit = 1 << 30
		return int(math.Max(-limit, math.Min(limit, v)))
	}
	return image.Rect(
		clip(math.Floor(float64(p.minX))), clip(math.Floor(float64(p.minY))),
		clip(math.Ceil(float64(p.maxX)))+1, clip(math.Ceil(float64(p.maxY)))+1,
	)
}

// shape draws geometry g with the paint of s under m.
func (c *canvas) shape(g *scene.Shape, s scene.State, strokeWidth float64, m affine, opacity float64) error {
	fill, stroke := rgba(s.Fill, opacity), rgba(s.Stroke, opacity)
	switch g.Kind {
	case scene.ShapeRect:
		hw, hh := g.Width/2, g.Height/2
		var body path
		body.polygon(m, rectCorners(hw, hh)...)
		c.fill(&body, fill)
		if strokeWidth > 0 {
			sw := strokeWidth / 2
			var ring path
			ring.polygon(m, rectCorners(hw+sw, hh+sw)...)
			ring.polygon(m, reverse(rectCorners(max(hw-sw, 0), max(hh-sw, 0)))...)
			c.fill(&ring, stroke)
		}
	case scene.ShapeCircle, scene.ShapeDot:
		cx, cy := m.apply(scene.Point{})
		k := m.scale()
		r := g.Width / 2
		var body path
		body.circle(cx, cy, float32(r*k), false)
		c.fill(&body, fill)
		if strokeWidth > 0 && g.Kind == scene.ShapeCircle {
			sw := strokeWidth / 2
			var ring path
			ring.circle(cx, cy, float32((r+sw)*k), false)
			ring.circle(cx, cy, float32(max(r-sw, 0)*k), true)
			c.fill(&ring, stroke)
		}
	case scene.ShapeLine:
		var p path
		segment(&p, m, scene.Point{}, g.Vector, strokeWidth)
		c.fill(&p, stroke)
	case scene.ShapeArrow:
		c.arrow(g.Vector, strokeWidth, m, stroke)
	case scene.ShapeQRCode:
		return c.drawQR(g, s, m, opacity)
	}
	return nil
}

func rectCorners(hw, hh float64) []scene.Point {
	return []scene.Point{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
}

func reverse(pts []scene.Point) []scene.Point {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts
}

// segment adds a quad of the given width from a to b.
func segment(p *path, m affine, a, b scene.Point, width float64) {
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return
	}
	n := scene.Point{X: -d.Y, Y: d.X}.Mul(width / 2 / l)
	p.polygon(m, a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))
}

func (c *canvas) arrow(v scene.Point, width float64, m affine, col color.NRGBA) {
	l := v.Len()
	if l == 0 {
		return
	}
	head := min(0.25, l*0.4)
	dir := v.Mul(1 / l)
	base := v.Sub(dir.Mul(head))
	n := scene.Point{X: -dir.Y, Y: dir.X}.Mul(head * 0.6)

	var shaft path
	segment(&shaft, m, scene.Point{}, base, width)
	c.fill(&shaft, col)

	var tip path
	tip.polygon(m, v, base.Add(n), base.Sub(n))
	c.fill(&tip, col)
}

// drawQR draws the light background then every dark module in one pass.
// Fill paints the background and Stroke the modules.
func (c *canvas) drawQR(g *scene.Shape, s scene.State, m affine, opacity float64) error {
	bits, ok := c.qr[g.Payload]
	if !ok {
		var err error
		if bits, err = scene.QRModules(g.Payload); err != nil {
			return err
		}
		c.qr[g.Payload] = bits
	}
	n := len(bits)
	if n == 0 {
		return nil
	}

	// one module of quiet zone on each side
	module := g.Width / float64(n+2)
	half := g.Width / 2
	var bg path
	bg.polygon(m, rectCorners(half, half)...)
	c.fill(&bg, rgba(s.Fill, opacity))

	var dark path
	for row, line := range bits {
		for col, on := range line {
			if !on {
				continue
			}
			x0 := -half + module*float64(col+1)
			y0 := half - module*float64(row+1)
			dark.polygon(m,
				scene.Point{X: x0, Y: y0}, scene.Point{X: x0 + module, Y: y0},
				scene.Point{X: x0 + module, Y: y0 - module}, scene.Point{X: x0, Y: y0 - module})
		}
	}
	c.fill(&dark, rgba(s.Stroke, opacity))
	return nil
}

// text draws the first reveal share of t's runes. Glyphs come from the
// 7x13 bitmap face and are scaled onto the frame with bilinear filtering.
func (c *canvas) text(t *scene.Text, s scene.State, m affine, opacity, reveal float64) {
	content := t.Content
	n := utf8.RuneCountInString(content)
	if n == 0 || t.Size <= 0 {
		return
	}
	shown := int(math.Ceil(clamp01(reveal) * float64(n)))
	if shown == 0 {
		return
	}
	face := basicfont.Face7x13
	w := face.Advance * n
	h := face.Height
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(rgba(s.Fill, opacity)),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	if shown < n {
		content = string([]rune(content)[:shown])
	}
	d.DrawString(content)

	k := t.Size / float64(h)
	glyphs := affine{a: k, c: -float64(w) / 2 * k, e: -k, f: float64(h) / 2 * k}
	mm := m.mul(glyphs)
	xdraw.ApproxBiLinear.Transform(c.dst, f64.Aff3{mm.a, mm.b, mm.c, mm.d, mm.e, mm.f}, src, src.Bounds(), xdraw.Over, nil)
}
