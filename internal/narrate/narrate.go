// Package narrate turns textbook algorithms and derivations into scene
// steps. Each narrator runs its computation exactly once through a trace
// function; the steps are emitted from inside the trace visitor, so what is
// shown is always the transition that actually happened.
package narrate

import "github.com/ivlev/explainer/internal/scene"

// Sizes in scene units shared by the narrators.
const (
	TitleSize = 0.5
	BodySize  = 0.32
	SmallSize = 0.24

	// TitleY is the baseline row for titles; the frame spans y in [-4, 4].
	TitleY = 3.3
)

// Script accumulates steps while a narrator runs.
type Script struct {
	steps []scene.Step
}

// Play appends steps in order.
func (s *Script) Play(steps ...scene.Step) {
	s.steps = append(s.steps, steps...)
}

// Steps returns the accumulated steps.
func (s *Script) Steps() []scene.Step {
	return s.steps
}

// FadeOutAll is one step that fades out every given object.
func FadeOutAll(d float64, objs ...*scene.Object) scene.Step {
	actions := make([]scene.Action, 0, len(objs))
	for _, o := range objs {
		actions = append(actions, scene.FadeOut(o))
	}
	return scene.Play(actions...).For(d).Named("clear")
}

// Title builds a centered heading at the top of the frame.
func Title(name, content string, color scene.Color) *scene.Object {
	return scene.NewText(name, content, TitleSize, color).At(scene.Point{Y: TitleY})
}

// Cell builds a filled square with a centered label, animated as one unit.
func Cell(name, label string, side float64, fill scene.Color) *scene.Object {
	box := scene.NewSquare(name+".box", side, scene.Filled(fill.WithAlpha(0.5)))
	text := scene.NewText(name+".label", label, BodySize, scene.White)
	return scene.NewGroup(name, box, text)
}

// Box returns the square of a Cell.
func Box(cell *scene.Object) *scene.Object {
	return cell.Child(0)
}

// Surround builds an outline rectangle around the world bounds of obj.
func Surround(name string, obj *scene.Object, pad float64, color scene.Color) *scene.Object {
	b := obj.WorldBounds()
	style := scene.Style{Stroke: color, StrokeWidth: 0.04, Opacity: 1}
	return scene.NewRect(name, b.Width()+2*pad, b.Height()+2*pad, style).At(b.Center())
}
