package narrate

import (
	"fmt"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// Candidate is one iteration of the container-with-most-water scan.
type Candidate struct {
	Iteration   int
	Left, Right int
	Height      int
	Width       int
	Area        int
	Best        int
	// MoveLeft is true when the left pointer advances after this candidate.
	MoveLeft bool
}

// MaxAreaResult is the outcome of the scan.
type MaxAreaResult struct {
	Best        int
	Left, Right int
	Candidates  int
}

// TraceMaxArea runs the two-pointer scan over heights and reports each
// candidate to visit.
func TraceMaxArea(heights []int, visit func(Candidate)) (MaxAreaResult, error) {
	var res MaxAreaResult
	if len(heights) < 2 {
		return res, fmt.Errorf("max area needs at least two heights, got %d: %w", len(heights), layout.ErrEmptyInput)
	}
	l, r := 0, len(heights)-1
	for it := 1; l < r; it++ {
		p := Candidate{Iteration: it, Left: l, Right: r, Height: min(heights[l], heights[r]), Width: r - l}
		p.Area = p.Height * p.Width
		if p.Area > res.Best {
			res.Best, res.Left, res.Right = p.Area, l, r
		}
		p.Best = res.Best
		p.MoveLeft = heights[l] < heights[r]
		res.Candidates++
		if visit != nil {
			visit(p)
		}
		if p.MoveLeft {
			l++
		} else {
			r--
		}
	}
	return res, nil
}

var waterColors = []scene.Color{scene.Blue, scene.Green, scene.Red, scene.Orange, scene.Purple, scene.Gold, scene.Teal}

// Bar chart geometry.
const (
	barWidth    = 0.5
	barGap      = 0.2
	barUnit     = 0.2
	barBaseline = -1.0
)

// MaxArea narrates the scan over heights as a bar chart with two pointers
// and a water rectangle per candidate.
func MaxArea(heights []int) (MaxAreaResult, []scene.Step, error) {
	rects, err := layout.Bars(heights, barWidth, barGap, barUnit, barBaseline)
	if err != nil {
		return MaxAreaResult{}, nil, fmt.Errorf("max area: %w", err)
	}

	var sc Script
	bars := make([]*scene.Object, len(rects))
	enter := make([]scene.Action, len(rects))
	for i, r := range rects {
		style := scene.Filled(scene.Blue.WithAlpha(0.8))
		bars[i] = scene.NewRect(fmt.Sprintf("bar%d", i), r.Width(), r.Height(), style).At(r.Center())
		enter[i] = scene.Create(bars[i])
	}
	sc.Play(scene.Play(enter...).For(1.5).Named("bars"), scene.Wait(1))

	pointer := func(name, label string, i int) (*scene.Object, *scene.Object) {
		tip := scene.Point{X: rects[i].Center().X, Y: barBaseline - 0.3}
		arrow := scene.NewArrow(name, scene.Point{Y: pointerLen}, scene.Yellow).At(tip.Sub(scene.Point{Y: pointerLen}))
		text := scene.NewText(name+".label", label, BodySize, scene.White).At(layout.Below(arrow, 0.25))
		return arrow, text
	}
	left, leftLabel := pointer("L", "L", 0)
	right, rightLabel := pointer("R", "R", len(rects)-1)
	sc.Play(scene.Play(scene.Create(left), scene.Create(right), scene.Write(leftLabel), scene.Write(rightLabel)).Named("pointers"),
		scene.Wait(1))

	res, err := TraceMaxArea(heights, func(p Candidate) {
		lb, rb := rects[p.Left], rects[p.Right]
		color := waterColors[(p.Iteration-1)%len(waterColors)]
		water := scene.NewRect(fmt.Sprintf("water%d", p.Iteration), rb.Max.X-lb.Min.X, float64(p.Height)*barUnit,
			scene.Style{Fill: color.WithAlpha(0.3), Opacity: 1}).
			At(scene.Point{X: (lb.Min.X + rb.Max.X) / 2, Y: barBaseline + float64(p.Height)*barUnit/2})
		label := scene.NewText(fmt.Sprintf("area%d", p.Iteration),
			fmt.Sprintf("Iteration %d: Area = %d", p.Iteration, p.Area), BodySize, scene.White).
			At(layout.Above(water, 0.25))

		sc.Play(
			scene.Play(scene.FadeIn(water)).Named(fmt.Sprintf("pair %d,%d", p.Left, p.Right)),
			scene.Play(scene.FadeIn(label)),
			scene.Wait(0.5),
			scene.Play(scene.FadeOut(water), scene.FadeOut(label)),
			scene.Wait(0.3),
		)

		step := scene.Point{X: barWidth + barGap}
		if p.MoveLeft {
			sc.Play(scene.Play(scene.Shift(left, step), scene.Shift(leftLabel, step)).Named("move L"))
		} else {
			back := step.Mul(-1)
			sc.Play(scene.Play(scene.Shift(right, back), scene.Shift(rightLabel, back)).Named("move R"))
		}
		sc.Play(scene.Wait(0.3))
	})
	if err != nil {
		return res, nil, err
	}

	found := scene.NewText("max", fmt.Sprintf("Max Area Found: %d", res.Best), 0.4, scene.Yellow).At(scene.Point{Y: -2.8})
	complexity := scene.NewText("complexity", "Time Complexity: O(n)", BodySize, scene.White).At(layout.Below(found, 0.35))
	sc.Play(
		scene.Play(scene.Write(found)).Named("result"),
		scene.Wait(1),
		scene.Play(scene.Write(complexity)),
		scene.Wait(2),
	)

	all := append([]*scene.Object{}, bars...)
	all = append(all, left, right, leftLabel, rightLabel, found, complexity)
	sc.Play(FadeOutAll(1, all...))
	return res, sc.Steps(), nil
}
