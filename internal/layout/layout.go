// Package layout computes deterministic placements for scene objects. Every
// function is pure: it returns coordinates or freshly built objects and never
// touches objects that are already on stage.
package layout

import (
	"errors"
	"fmt"

	"github.com/ivlev/explainer/internal/scene"
)

var (
	ErrEmptyInput = errors.New("layout: empty input")
	ErrRagged     = errors.New("layout: rows have different lengths")
	ErrNotSquare  = errors.New("layout: matrix is not square")
)

// Direction is the axis and sense of a sequence.
type Direction uint8

const (
	Right Direction = iota
	Left
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", d)
	}
}

func (d Direction) unit() scene.Point {
	switch d {
	case Left:
		return scene.Point{X: -1}
	case Up:
		return scene.Point{Y: 1}
	case Down:
		return scene.Point{Y: -1}
	default:
		return scene.Point{X: 1}
	}
}

// ArrangeSequence places items edge to edge along direction with spacing
// between neighbouring bounds, and centers the whole run on center. It
// returns the position each item must take; items are not modified.
func ArrangeSequence(items []*scene.Object, dir Direction, spacing float64, center scene.Point) ([]scene.Point, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("arrange %s: %w", dir, ErrEmptyInput)
	}
	if dir > Down {
		return nil, fmt.Errorf("arrange: unknown direction %d", dir)
	}
	horizontal := dir == Right || dir == Left

	extent := func(b scene.Rect) float64 {
		if horizontal {
			return b.Width()
		}
		return b.Height()
	}

	total := spacing * float64(len(items)-1)
	for _, it := range items {
		if it == nil {
			return nil, fmt.Errorf("arrange %s: nil item", dir)
		}
		total += extent(it.Bounds())
	}

	u := dir.unit()
	cursor := -total / 2
	out := make([]scene.Point, len(items))
	for i, it := range items {
		b := it.Bounds()
		mid := cursor + extent(b)/2
		// Position is the object origin, which need not be the bounds center.
		out[i] = center.Add(u.Mul(mid)).Sub(b.Center())
		cursor += extent(b) + spacing
	}
	return out, nil
}

// Apply moves items to positions. It is meant for objects that are still
// being built, before they go on stage.
func Apply(items []*scene.Object, positions []scene.Point) {
	for i, p := range positions {
		items[i].Position = p
	}
}

// GridPositions maps matrix[i][j] to cell centers, with row 0 at the top and
// column 0 on the left, centered on center.
func GridPositions[T any](matrix [][]T, cell float64, center scene.Point) ([][]scene.Point, error) {
	rows, cols, err := dims(matrix)
	if err != nil {
		return nil, err
	}
	out := make([][]scene.Point, rows)
	for i := range out {
		out[i] = make([]scene.Point, cols)
		for j := range out[i] {
			out[i][j] = scene.Point{
				X: center.X + (float64(j)-float64(cols-1)/2)*cell,
				Y: center.Y + (float64(rows-1)/2-float64(i))*cell,
			}
		}
	}
	return out, nil
}

// RequireSquare rejects empty, ragged and non-square matrices.
func RequireSquare[T any](matrix [][]T) error {
	rows, cols, err := dims(matrix)
	if err != nil {
		return err
	}
	if rows != cols {
		return fmt.Errorf("%dx%d: %w", rows, cols, ErrNotSquare)
	}
	return nil
}

func dims[T any](matrix [][]T) (rows, cols int, err error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return 0, 0, fmt.Errorf("grid: %w", ErrEmptyInput)
	}
	cols = len(matrix[0])
	for i, row := range matrix {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("grid row %d has %d cells, want %d: %w", i, len(row), cols, ErrRagged)
		}
	}
	return len(matrix), cols, nil
}

// Bars returns one rectangle per height, bottoms on baseline and the whole
// chart centered on x = 0. Each unit of height is unit scene units tall.
func Bars(heights []int, width, gap, unit, baseline float64) ([]scene.Rect, error) {
	if len(heights) == 0 {
		return nil, fmt.Errorf("bars: %w", ErrEmptyInput)
	}
	n := float64(len(heights))
	left := -(n*(width+gap) - gap) / 2
	out := make([]scene.Rect, len(heights))
	for i, h := range heights {
		if h < 0 {
			return nil, fmt.Errorf("bars: negative height %d at index %d", h, i)
		}
		x := left + float64(i)*(width+gap)
		out[i] = scene.Rect{
			Min: scene.Point{X: x, Y: baseline},
			Max: scene.Point{X: x + width, Y: baseline + float64(h)*unit},
		}
	}
	return out, nil
}

// BulletList builds left-aligned text lines whose first line starts at
// topLeft, each size tall with spacing between lines.
func BulletList(name string, lines []string, size, spacing float64, color scene.Color, topLeft scene.Point) ([]*scene.Object, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("bullet list %s: %w", name, ErrEmptyInput)
	}
	out := make([]*scene.Object, len(lines))
	for i, line := range lines {
		t := scene.NewText(fmt.Sprintf("%s.%d", name, i), line, size, color)
		w := t.Bounds().Width()
		t.Position = scene.Point{
			X: topLeft.X + w/2,
			Y: topLeft.Y - size/2 - float64(i)*(size+spacing),
		}
		out[i] = t
	}
	return out, nil
}

// Below returns the point gap units under the bottom center of obj.
func Below(obj *scene.Object, gap float64) scene.Point {
	b := obj.WorldBounds()
	return scene.Point{X: b.Center().X, Y: b.Min.Y - gap}
}

// Above returns the point gap units over the top center of obj.
func Above(obj *scene.Object, gap float64) scene.Point {
	b := obj.WorldBounds()
	return scene.Point{X: b.Center().X, Y: b.Max.Y + gap}
}
