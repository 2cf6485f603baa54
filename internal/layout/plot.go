package layout

import (
	"errors"
	"fmt"

	"github.com/ivlev/explainer/internal/scene"
)

var ErrBadRange = errors.New("layout: empty plot range")

// Axes maps data coordinates onto a box of the frame.
type Axes struct {
	// Origin is the frame position of (XMin, YMin).
	Origin        scene.Point
	Width, Height float64
	XMin, XMax    float64
	YMin, YMax    float64
}

// Validate reports an empty or inverted range.
func (a Axes) Validate() error {
	if a.XMax <= a.XMin || a.YMax <= a.YMin || a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("%w: x [%g, %g], y [%g, %g]", ErrBadRange, a.XMin, a.XMax, a.YMin, a.YMax)
	}
	return nil
}

// Point returns the frame position of data point (x, y).
func (a Axes) Point(x, y float64) scene.Point {
	return scene.Point{
		X: a.Origin.X + (x-a.XMin)/(a.XMax-a.XMin)*a.Width,
		Y: a.Origin.Y + (y-a.YMin)/(a.YMax-a.YMin)*a.Height,
	}
}

// Frame builds the x and y axis arrows as one group. Each axis crosses the
// other at zero when zero is in range, else at the range minimum.
func (a Axes) Frame(name string, color scene.Color) *scene.Object {
	x0 := clampRange(0, a.XMin, a.XMax)
	y0 := clampRange(0, a.YMin, a.YMax)
	xStart, yStart := a.Point(a.XMin, y0), a.Point(x0, a.YMin)
	x := scene.NewArrow(name+".x", scene.Point{X: a.Width + 0.2}, color).At(xStart)
	y := scene.NewArrow(name+".y", scene.Point{Y: a.Height + 0.2}, color).At(yStart)
	x.Style.StrokeWidth, y.Style.StrokeWidth = 0.03, 0.03
	return scene.NewGroup(name, x, y)
}

func clampRange(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// Polyline builds a group of line segments through pts, given in frame
// coordinates.
func Polyline(name string, pts []scene.Point, color scene.Color) (*scene.Object, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("polyline %s: %w", name, ErrEmptyInput)
	}
	g := scene.NewGroup(name)
	for i := 1; i < len(pts); i++ {
		g.Add(scene.NewLine(fmt.Sprintf("%s.%d", name, i), pts[i].Sub(pts[i-1]), color).At(pts[i-1]))
	}
	return g, nil
}

// Plot samples fn at n evenly spaced x values across the axes and returns
// the polyline through them. Values outside the y range are clamped.
func (a Axes) Plot(name string, fn func(float64) float64, n int, color scene.Color) (*scene.Object, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("plot %s: %w", name, ErrEmptyInput)
	}
	pts := make([]scene.Point, n)
	for i := range pts {
		x := a.XMin + (a.XMax-a.XMin)*float64(i)/float64(n-1)
		pts[i] = a.Point(x, clampRange(fn(x), a.YMin, a.YMax))
	}
	return Polyline(name, pts, color)
}
