package director

import (
	"errors"
	"fmt"

	"github.com/ivlev/explainer/internal/scene"
)

var (
	ErrNilTarget     = errors.New("nil target")
	ErrAlreadyLive   = errors.New("object is already on stage")
	ErrNotLive       = errors.New("object is not on stage")
	ErrParented      = errors.New("object belongs to a group")
	ErrNoTemplate    = errors.New("transform has no template")
	ErrTemplateLive  = errors.New("transform template is on stage")
	ErrNegativeTime  = errors.New("negative duration")
	ErrUnknownEasing = errors.New("unknown easing")
)

// Stage is the ownership list of one scene run. Objects enter through Track
// and leave through Release; the order of Live is the draw order.
type Stage struct {
	name     string
	live     []*scene.Object
	nextID   uint32
	tracked  int
	released int
}

// NewStage returns an empty stage for the named scene.
func NewStage(name string) *Stage {
	return &Stage{name: name}
}

// Name returns the scene name.
func (s *Stage) Name() string {
	return s.name
}

// Track acquires o and assigns IDs to every object of its tree that has
// none yet.
func (s *Stage) Track(o *scene.Object) error {
	switch {
	case o == nil:
		return ErrNilTarget
	case o.Parent != nil:
		return fmt.Errorf("track %s: %w %s", o.Label(), ErrParented, o.Parent.Label())
	case s.IsLive(o):
		return fmt.Errorf("track %s: %w", o.Label(), ErrAlreadyLive)
	}
	o.Walk(func(n *scene.Object) bool {
		if n.ID == 0 {
			s.nextID++
			n.ID = s.nextID
		}
		return true
	})
	s.live = append(s.live, o)
	s.tracked++
	return nil
}

// Release takes o off stage.
func (s *Stage) Release(o *scene.Object) error {
	if o == nil {
		return ErrNilTarget
	}
	for i, l := range s.live {
		if l == o {
			s.live = append(s.live[:i], s.live[i+1:]...)
			s.released++
			return nil
		}
	}
	return fmt.Errorf("release %s: %w", o.Label(), ErrNotLive)
}

// ReleaseAll empties the stage and returns what was still live.
func (s *Stage) ReleaseAll() []*scene.Object {
	left := s.live
	s.released += len(left)
	s.live = nil
	return left
}

// IsLive reports whether o itself was tracked and not yet released.
func (s *Stage) IsLive(o *scene.Object) bool {
	for _, l := range s.live {
		if l == o {
			return true
		}
	}
	return false
}

// OnStage reports whether o or one of its ancestors is live.
func (s *Stage) OnStage(o *scene.Object) bool {
	return o != nil && s.IsLive(o.Root())
}

// Live returns a copy of the live objects in acquisition order.
func (s *Stage) Live() []*scene.Object {
	out := make([]*scene.Object, len(s.live))
	copy(out, s.live)
	return out
}

func (s *Stage) Tracked() int  { return s.tracked }
func (s *Stage) Released() int { return s.released }
