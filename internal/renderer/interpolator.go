package renderer

import (
	"github.com/ivlev/explainer/internal/scene"
)

// Pose is how an object is drawn at one instant of a step.
type Pose struct {
	State scene.State
	// Reveal is the drawn share of a Create or Write, 1 when complete.
	Reveal float64
	// Morph is the Transform template blended in by Blend.
	Morph *scene.Object
	Blend float64
}

// InterpolateState returns the state at progress t between from and to.
// t is clamped to [0, 1].
func InterpolateState(from, to scene.State, t float64) scene.State {
	return from.Lerp(to, clamp01(t))
}

// Poses computes the pose of every target at eased progress t. Targets of
// several actions combine them in order. Objects without a pose draw their
// committed state.
func Poses(actions []scene.Action, t float64) map[*scene.Object]Pose {
	if len(actions) == 0 {
		return nil
	}
	t = clamp01(t)

	type acc struct {
		from, to scene.State
		alpha    float64
		pose     Pose
	}
	byTarget := make(map[*scene.Object]*acc, len(actions))
	order := make([]*scene.Object, 0, len(actions))
	for _, a := range actions {
		if a.Target == nil {
			continue
		}
		p, ok := byTarget[a.Target]
		if !ok {
			s := a.Target.State()
			p = &acc{from: s, to: s, alpha: 1, pose: Pose{Reveal: 1}}
			byTarget[a.Target] = p
			order = append(order, a.Target)
		}
		p.to = a.Resolve(p.to)

		switch a.Kind {
		case scene.ActFadeIn:
			p.alpha *= t
		case scene.ActFadeOut:
			p.alpha *= 1 - t
		case scene.ActRemove:
			p.alpha = 0
		case scene.ActCreate, scene.ActWrite:
			p.pose.Reveal = t
		case scene.ActTransform:
			p.pose.Morph = a.Into
			p.pose.Blend = t
		}
	}

	poses := make(map[*scene.Object]Pose, len(order))
	for _, o := range order {
		p := byTarget[o]
		p.pose.State = InterpolateState(p.from, p.to, t)
		p.pose.State.Opacity *= p.alpha
		poses[o] = p.pose
	}
	return poses
}

// lerpShape blends two shapes of the same kind. It reports false when the
// kinds differ and the shapes have to be cross-faded instead.
func lerpShape(a, b *scene.Shape, t float64) (scene.Shape, bool) {
	if a == nil || b == nil || a.Kind != b.Kind || a.Payload != b.Payload {
		return scene.Shape{}, false
	}
	return scene.Shape{
		Kind:    a.Kind,
		Width:   lerp(a.Width, b.Width, t),
		Height:  lerp(a.Height, b.Height, t),
		Vector:  a.Vector.Lerp(b.Vector, t),
		Payload: a.Payload,
	}, true
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}
