package scene

import "fmt"

// ActionKind is the transition applied to one object within a step.
type ActionKind uint8

const (
	ActCreate ActionKind = iota
	ActWrite
	ActFadeIn
	ActFadeOut
	ActRemove
	ActMove
	ActShift
	ActRecolor
	ActRotate
	ActScale
	ActTransform
)

var actionNames = [...]string{
	ActCreate:    "create",
	ActWrite:     "write",
	ActFadeIn:    "fade_in",
	ActFadeOut:   "fade_out",
	ActRemove:    "remove",
	ActMove:      "move",
	ActShift:     "shift",
	ActRecolor:   "recolor",
	ActRotate:    "rotate",
	ActScale:     "scale",
	ActTransform: "transform",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return fmt.Sprintf("action(%d)", k)
}

// Acquires reports whether the action puts its target on stage.
func (k ActionKind) Acquires() bool {
	return k == ActCreate || k == ActWrite || k == ActFadeIn
}

// Releases reports whether the action takes its target off stage.
func (k ActionKind) Releases() bool {
	return k == ActFadeOut || k == ActRemove
}

// Action is one transition of one target. The target fields used depend on
// Kind: To for Move (absolute) and Shift (delta), Fill for Recolor, Degrees
// for Rotate, Factor for Scale and Into for Transform.
type Action struct {
	Kind    ActionKind
	Target  *Object
	To      Point
	Fill    Color
	Degrees float64
	Factor  float64
	Into    *Object
}

func Create(o *Object) Action  { return Action{Kind: ActCreate, Target: o} }
func Write(o *Object) Action   { return Action{Kind: ActWrite, Target: o} }
func FadeIn(o *Object) Action  { return Action{Kind: ActFadeIn, Target: o} }
func FadeOut(o *Object) Action { return Action{Kind: ActFadeOut, Target: o} }
func Remove(o *Object) Action  { return Action{Kind: ActRemove, Target: o} }

// MoveTo moves the target to an absolute position in its parent's space.
func MoveTo(o *Object, p Point) Action { return Action{Kind: ActMove, Target: o, To: p} }

// Shift moves the target by delta.
func Shift(o *Object, delta Point) Action { return Action{Kind: ActShift, Target: o, To: delta} }

// Recolor changes the target's fill.
func Recolor(o *Object, fill Color) Action { return Action{Kind: ActRecolor, Target: o, Fill: fill} }

// Rotate turns the target by degrees, counter-clockwise.
func Rotate(o *Object, degrees float64) Action {
	return Action{Kind: ActRotate, Target: o, Degrees: degrees}
}

// ScaleBy multiplies the target's scale by factor.
func ScaleBy(o *Object, factor float64) Action {
	return Action{Kind: ActScale, Target: o, Factor: factor}
}

// Transform morphs the target into the look of into. The target keeps its
// identity; into is only a template and never goes on stage.
func Transform(o, into *Object) Action {
	return Action{Kind: ActTransform, Target: o, Into: into}
}

// State is the animatable part of an object.
type State struct {
	Position Point
	Angle    float64
	Scale    float64
	Fill     Color
	Stroke   Color
	Opacity  float64
}

// Lerp interpolates every field from s to to.
func (s State) Lerp(to State, t float64) State {
	return State{
		Position: s.Position.Lerp(to.Position, t),
		Angle:    s.Angle + (to.Angle-s.Angle)*t,
		Scale:    s.Scale + (to.Scale-s.Scale)*t,
		Fill:     s.Fill.Lerp(to.Fill, t),
		Stroke:   s.Stroke.Lerp(to.Stroke, t),
		Opacity:  s.Opacity + (to.Opacity-s.Opacity)*t,
	}
}

// State returns the committed state of o.
func (o *Object) State() State {
	return State{
		Position: o.Position,
		Angle:    o.Angle,
		Scale:    o.Scale,
		Fill:     o.Style.Fill,
		Stroke:   o.Style.Stroke,
		Opacity:  o.Style.Opacity,
	}
}

func (o *Object) setState(s State) {
	o.Position = s.Position
	o.Angle = s.Angle
	o.Scale = s.Scale
	o.Style.Fill = s.Fill
	o.Style.Stroke = s.Stroke
	o.Style.Opacity = s.Opacity
}

// Resolve returns the state the target reaches at the end of the action,
// starting from from.
func (a Action) Resolve(from State) State {
	to := from
	switch a.Kind {
	case ActMove:
		to.Position = a.To
	case ActShift:
		to.Position = from.Position.Add(a.To)
	case ActRecolor:
		to.Fill = a.Fill
	case ActRotate:
		to.Angle = from.Angle + a.Degrees
	case ActScale:
		to.Scale = from.Scale * a.Factor
	case ActTransform:
		if a.Into != nil {
			to = a.Into.State()
		}
	}
	return to
}

// Commit writes the action's end state into its target. This is the only
// place where a step mutates an object.
func (a Action) Commit() {
	if a.Target == nil {
		return
	}
	a.Target.setState(a.Resolve(a.Target.State()))
	if a.Kind != ActTransform || a.Into == nil {
		return
	}
	t, into := a.Target, a.Into
	t.Kind = into.Kind
	t.Style.StrokeWidth = into.Style.StrokeWidth
	t.Shape, t.Text = nil, nil
	if into.Shape != nil {
		s := *into.Shape
		t.Shape = &s
	}
	if into.Text != nil {
		txt := *into.Text
		t.Text = &txt
	}
	for _, c := range t.children {
		c.Parent = nil
	}
	t.children = nil
	for _, c := range into.children {
		t.Add(c.Clone())
	}
}

// Default step timing.
const (
	DefaultDuration = 1.0
	DefaultEasing   = "smooth"
)

// Step is one timed transition: its actions play simultaneously over
// Duration seconds. A step without actions is a pause.
type Step struct {
	Label    string
	Actions  []Action
	Duration float64
	Easing   string
}

// Play builds a step from actions with the default duration and easing.
func Play(actions ...Action) Step {
	return Step{Actions: actions, Duration: DefaultDuration}
}

// Wait builds a pause.
func Wait(seconds float64) Step {
	return Step{Label: "wait", Duration: seconds}
}

// For returns a copy of s with the given duration in seconds.
func (s Step) For(seconds float64) Step {
	s.Duration = seconds
	return s
}

// Eased returns a copy of s with the named easing.
func (s Step) Eased(name string) Step {
	s.Easing = name
	return s
}

// Named returns a copy of s with a label.
func (s Step) Named(label string) Step {
	s.Label = label
	return s
}

// IsWait reports whether the step has no actions.
func (s Step) IsWait() bool {
	return len(s.Actions) == 0
}
