package director

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/explainer/internal/easing"
	"github.com/ivlev/explainer/internal/scene"
)

// StepError reports an invalid step found while planning a scene.
type StepError struct {
	Scene string
	Index int
	Label string
	Err   error
}

func (e *StepError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("scene %s: step %d (%s): %v", e.Scene, e.Index, e.Label, e.Err)
	}
	return fmt.Sprintf("scene %s: step %d: %v", e.Scene, e.Index, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// LeakError reports objects that are still on stage when a scene ends.
type LeakError struct {
	Scene   string
	Objects []*scene.Object
}

func (e *LeakError) Error() string {
	names := make([]string, len(e.Objects))
	for i, o := range e.Objects {
		names[i] = o.Label()
	}
	return fmt.Sprintf("scene %s leaks %d objects: %s", e.Scene, len(e.Objects), strings.Join(names, ", "))
}

// Plan simulates the ownership of every object across steps without
// rendering or touching the objects. It returns a *StepError for the first
// invalid step, or a *LeakError when objects would outlive the scene.
func Plan(name string, steps []scene.Step) error {
	p := planner{live: map[*scene.Object]bool{}, detached: map[*scene.Object]bool{}}
	for i, st := range steps {
		if err := p.step(st); err != nil {
			return &StepError{Scene: name, Index: i, Label: st.Label, Err: err}
		}
	}
	if len(p.order) > 0 {
		return &LeakError{Scene: name, Objects: p.order}
	}
	return nil
}

type planner struct {
	live  map[*scene.Object]bool
	order []*scene.Object

	// detached holds children dropped by a group Transform. Their Parent
	// link is still set while planning, but Commit clears it at run time.
	detached map[*scene.Object]bool
}

func (p *planner) parent(o *scene.Object) *scene.Object {
	if p.detached[o] {
		return nil
	}
	return o.Parent
}

func (p *planner) root(o *scene.Object) *scene.Object {
	for q := p.parent(o); q != nil; q = p.parent(o) {
		o = q
	}
	return o
}

func (p *planner) onStage(o *scene.Object) bool {
	return p.live[p.root(o)]
}

// detach cuts the current children of o loose. Transform replaces them
// with copies of the template's children; their own subtrees stay intact.
func (p *planner) detach(o *scene.Object) {
	for _, c := range o.Children() {
		p.detached[c] = true
	}
}

func (p *planner) step(st scene.Step) error {
	if st.Duration < 0 || math.IsNaN(st.Duration) || math.IsInf(st.Duration, 0) {
		return fmt.Errorf("%w: %v", ErrNegativeTime, st.Duration)
	}
	if _, err := easing.Lookup(st.Easing); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownEasing, st.Easing)
	}

	for _, a := range st.Actions {
		if a.Target == nil {
			return fmt.Errorf("%s: %w", a.Kind, ErrNilTarget)
		}
	}

	// Entering targets first, as the director does.
	for _, a := range st.Actions {
		if !a.Kind.Acquires() {
			continue
		}
		switch {
		case p.parent(a.Target) != nil:
			return fmt.Errorf("%s %s: %w %s", a.Kind, a.Target.Label(), ErrParented, a.Target.Parent.Label())
		case p.live[a.Target]:
			return fmt.Errorf("%s %s: %w", a.Kind, a.Target.Label(), ErrAlreadyLive)
		}
		p.live[a.Target] = true
		p.order = append(p.order, a.Target)
	}

	for _, a := range st.Actions {
		if a.Kind.Acquires() || a.Kind.Releases() {
			continue
		}
		if !p.onStage(a.Target) {
			return fmt.Errorf("%s %s: %w", a.Kind, a.Target.Label(), ErrNotLive)
		}
		if a.Kind == scene.ActTransform {
			if a.Into == nil {
				return fmt.Errorf("%s %s: %w", a.Kind, a.Target.Label(), ErrNoTemplate)
			}
			if p.onStage(a.Into) {
				return fmt.Errorf("%s %s into %s: %w", a.Kind, a.Target.Label(), a.Into.Label(), ErrTemplateLive)
			}
		}
	}

	for _, a := range st.Actions {
		if a.Kind == scene.ActTransform {
			p.detach(a.Target)
		}
	}

	for _, a := range st.Actions {
		if !a.Kind.Releases() {
			continue
		}
		if !p.live[a.Target] {
			return fmt.Errorf("%s %s: %w", a.Kind, a.Target.Label(), ErrNotLive)
		}
		delete(p.live, a.Target)
		for i, o := range p.order {
			if o == a.Target {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
	}
	return nil
}
