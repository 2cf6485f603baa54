package scene

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Kind tags the variant held by an Object.
type Kind uint8

const (
	KindShape Kind = iota
	KindText
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindShape:
		return "shape"
	case KindText:
		return "text"
	case KindGroup:
		return "group"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// ShapeKind selects the primitive drawn for a KindShape object.
type ShapeKind uint8

const (
	ShapeRect ShapeKind = iota
	ShapeCircle
	ShapeArrow
	ShapeLine
	ShapeDot
	ShapeQRCode
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRect:
		return "rect"
	case ShapeCircle:
		return "circle"
	case ShapeArrow:
		return "arrow"
	case ShapeLine:
		return "line"
	case ShapeDot:
		return "dot"
	case ShapeQRCode:
		return "qr"
	default:
		return fmt.Sprintf("shape(%d)", k)
	}
}

// DotRadius is the radius of ShapeDot primitives in scene units.
const DotRadius = 0.08

// textAdvance is the horizontal advance of one glyph relative to the text size.
const textAdvance = 0.6

// Point is a position in scene units. The origin is the frame center and y
// grows upwards.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(f float64) Point { return Point{p.X * f, p.Y * f} }
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }
func (p Point) String() string { return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y) }
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Rect is an axis-aligned box in scene units.
type Rect struct {
	Min, Max Point
}

func (r Rect) Width() float64 { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }
func (r Rect) Center() Point { return r.Min.Lerp(r.Max, 0.5) }
func (r Rect) Empty() bool { return r.Min == r.Max }

// Offset translates r by p.
func (r Rect) Offset(p Point) Rect {
	return Rect{Min: r.Min.Add(p), Max: r.Max.Add(p)}
}

// Union returns the smallest Rect containing r and s. An empty r is ignored.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		Min: Point{math.Min(r.Min.X, s.Min.X), math.Min(r.Min.Y, s.Min.Y)},
		Max: Point{math.Max(r.Max.X, s.Max.X), math.Max(r.Max.Y, s.Max.Y)},
	}
}

// Style is the paint applied to an object. Opacity multiplies the alpha of
// both fill and stroke and is inherited by children.
type Style struct {
	Fill        Color
	Stroke      Color
	StrokeWidth float64
	Opacity     float64
}

// DefaultStyle is a white outline with no fill.
func DefaultStyle() Style {
	return Style{Stroke: White, StrokeWidth: 0.04, Opacity: 1}
}

// Filled returns a style with the given fill and a matching stroke.
func Filled(fill Color) Style {
	return Style{Fill: fill, Stroke: fill.WithAlpha(1), StrokeWidth: 0.04, Opacity: 1}
}

// Shape holds the geometry of a KindShape object.
type Shape struct {
	Kind ShapeKind

	// Width and Height size rects. Circles use Width as the diameter and
	// QR codes as the side length.
	Width, Height float64

	// Vector is the extent of arrows and lines, starting at the object
	// position.
	Vector Point

	// Payload is the content encoded by a QR code.
	Payload string
}

// Text holds the content of a KindText object. Size is the glyph height in
// scene units.
type Text struct {
	Content string
	Size    float64
}

// Object is a display object: a shape, a text node, or a group of objects.
// Exactly one of Shape, Text or children is meaningful, selected by Kind.
//
// Objects are owned by the scene that acquires them. Their committed state
// changes only when a step commits its target values; see Action.Commit.
type Object struct {
	// ID is assigned by the owning stage on acquisition. Zero means the
	// object has never been on stage.
	ID   uint32
	Name string
	Kind Kind

	Shape *Shape
	Text  *Text

	Parent   *Object
	children []*Object

	// Position is relative to the parent, or to the frame center for roots.
	Position Point
	// Angle is the rotation in degrees, counter-clockwise.
	Angle float64
	Scale float64
	Style Style
}

func newObject(name string, kind Kind, style Style) *Object {
	return &Object{Name: name, Kind: kind, Scale: 1, Style: style}
}

// NewRect creates a rectangle centered on its position.
func NewRect(name string, width, height float64, style Style) *Object {
	o := newObject(name, KindShape, style)
	o.Shape = &Shape{Kind: ShapeRect, Width: width, Height: height}
	return o
}

// NewSquare creates a square with the given side length.
func NewSquare(name string, side float64, style Style) *Object {
	return NewRect(name, side, side, style)
}

// NewCircle creates a circle with the given radius.
func NewCircle(name string, radius float64, style Style) *Object {
	o := newObject(name, KindShape, style)
	o.Shape = &Shape{Kind: ShapeCircle, Width: radius * 2, Height: radius * 2}
	return o
}

// NewArrow creates an arrow from its position along vector.
func NewArrow(name string, vector Point, color Color) *Object {
	o := newObject(name, KindShape, Style{Fill: color, Stroke: color, StrokeWidth: 0.05, Opacity: 1})
	o.Shape = &Shape{Kind: ShapeArrow, Vector: vector}
	return o
}

// NewLine creates a line segment from its position along vector.
func NewLine(name string, vector Point, color Color) *Object {
	o := newObject(name, KindShape, Style{Stroke: color, StrokeWidth: 0.04, Opacity: 1})
	o.Shape = &Shape{Kind: ShapeLine, Vector: vector}
	return o
}

// NewDot creates a small filled circle.
func NewDot(name string, color Color) *Object {
	o := newObject(name, KindShape, Filled(color))
	o.Shape = &Shape{Kind: ShapeDot, Width: DotRadius * 2, Height: DotRadius * 2}
	return o
}

// NewQRCode creates a square QR code encoding payload.
func NewQRCode(name, payload string, side float64) *Object {
	o := newObject(name, KindShape, Style{Fill: White, Stroke: Black, Opacity: 1})
	o.Shape = &Shape{Kind: ShapeQRCode, Width: side, Height: side, Payload: payload}
	return o
}

// NewText creates a single-line text node centered on its position.
func NewText(name, content string, size float64, color Color) *Object {
	o := newObject(name, KindText, Style{Fill: color, Opacity: 1})
	o.Text = &Text{Content: content, Size: size}
	return o
}

// NewGroup creates a group holding children.
func NewGroup(name string, children ...*Object) *Object {
	o := newObject(name, KindGroup, Style{Opacity: 1})
	for _, c := range children {
		o.Add(c)
	}
	return o
}

// Add appends child to a group. It panics if o is not a group, if child is
// nil, already parented, or an ancestor of o.
func (o *Object) Add(child *Object) {
	if o.Kind != KindGroup {
		panic("scene: Add on non-group object " + o.Name)
	}
	if child == nil {
		panic("scene: cannot add nil child")
	}
	if child.Parent != nil {
		panic("scene: child " + child.Name + " already belongs to " + child.Parent.Name)
	}
	for p := o; p != nil; p = p.Parent {
		if p == child {
			panic("scene: adding child would create a cycle")
		}
	}
	child.Parent = o
	o.children = append(o.children, child)
}

// Children returns the group's children. The slice must not be mutated.
func (o *Object) Children() []*Object {
	return o.children
}

// Child returns the i-th child.
func (o *Object) Child(i int) *Object {
	return o.children[i]
}

// Len returns the number of children.
func (o *Object) Len() int {
	return len(o.children)
}

// Label identifies the object in logs and timelines.
func (o *Object) Label() string {
	if o == nil {
		return "<nil>"
	}
	if o.ID == 0 {
		return o.Name
	}
	return fmt.Sprintf("%s#%d", o.Name, o.ID)
}

// Walk visits o and its descendants in pre-order until fn returns false.
func (o *Object) Walk(fn func(*Object) bool) bool {
	if !fn(o) {
		return false
	}
	for _, c := range o.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Root returns the top-most ancestor of o.
func (o *Object) Root() *Object {
	for o.Parent != nil {
		o = o.Parent
	}
	return o
}

// Bounds returns the local bounding box relative to the object's position,
// including its scale but ignoring rotation.
func (o *Object) Bounds() Rect {
	var r Rect
	switch o.Kind {
	case KindShape:
		r = o.Shape.bounds()
	case KindText:
		w := float64(utf8.RuneCountInString(o.Text.Content)) * o.Text.Size * textAdvance
		h := o.Text.Size
		r = Rect{Min: Point{-w / 2, -h / 2}, Max: Point{w / 2, h / 2}}
	case KindGroup:
		for _, c := range o.children {
			r = r.Union(c.Bounds().Offset(c.Position))
		}
	}
	return Rect{Min: r.Min.Mul(o.Scale), Max: r.Max.Mul(o.Scale)}
}

func (s *Shape) bounds() Rect {
	switch s.Kind {
	case ShapeArrow, ShapeLine:
		return Rect{
			Min: Point{math.Min(0, s.Vector.X), math.Min(0, s.Vector.Y)},
			Max: Point{math.Max(0, s.Vector.X), math.Max(0, s.Vector.Y)},
		}
	default:
		return Rect{Min: Point{-s.Width / 2, -s.Height / 2}, Max: Point{s.Width / 2, s.Height / 2}}
	}
}

// WorldPosition returns the object's origin in frame coordinates.
func (o *Object) WorldPosition() Point {
	p := o.Position
	for a := o.Parent; a != nil; a = a.Parent {
		p = a.Position.Add(p.Mul(a.Scale))
	}
	return p
}

// WorldBounds returns Bounds in frame coordinates.
func (o *Object) WorldBounds() Rect {
	b := o.Bounds()
	scale := 1.0
	for a := o.Parent; a != nil; a = a.Parent {
		scale *= a.Scale
	}
	b = Rect{Min: b.Min.Mul(scale), Max: b.Max.Mul(scale)}
	return b.Offset(o.WorldPosition())
}

// Clone returns a deep copy of o without identity or parent.
func (o *Object) Clone() *Object {
	c := *o
	c.ID = 0
	c.Parent = nil
	c.children = nil
	if o.Shape != nil {
		s := *o.Shape
		c.Shape = &s
	}
	if o.Text != nil {
		t := *o.Text
		c.Text = &t
	}
	for _, child := range o.children {
		c.Add(child.Clone())
	}
	return &c
}

// At sets the position and returns o, for use in constructors.
func (o *Object) At(p Point) *Object {
	o.Position = p
	return o
}
