package director

import "github.com/ivlev/explainer/internal/scene"

// TimelineVersion is written into every timeline file.
const TimelineVersion = "1.0"

// Timeline records every executed step of a render.
type Timeline struct {
	Version string          `yaml:"version"`
	Scenes  []SceneTimeline `yaml:"scenes"`
}

// SceneTimeline is the record of one scene.
type SceneTimeline struct {
	Name     string  `yaml:"name"`
	Duration float64 `yaml:"duration"` // seconds of scene time
	Frames   int     `yaml:"frames"`
	Tracked  int     `yaml:"tracked"`
	Released int     `yaml:"released"`
	Steps    []Entry `yaml:"steps"`
}

// Entry is one executed step.
type Entry struct {
	Index    int           `yaml:"index"`
	Label    string        `yaml:"label,omitempty"`
	Start    float64       `yaml:"start"`
	Duration float64       `yaml:"duration"`
	Frames   int           `yaml:"frames"`
	Easing   string        `yaml:"easing"`
	Actions  []ActionEntry `yaml:"actions,omitempty"`
}

// ActionEntry names the kind and target of one action.
type ActionEntry struct {
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
	Into   string `yaml:"into,omitempty"`
}

func newEntry(i int, st scene.Step, start, duration float64, frames int) Entry {
	e := Entry{
		Index:    i,
		Label:    st.Label,
		Start:    start,
		Duration: duration,
		Frames:   frames,
		Easing:   st.Easing,
	}
	if e.Easing == "" {
		e.Easing = scene.DefaultEasing
	}
	for _, a := range st.Actions {
		ae := ActionEntry{Kind: a.Kind.String(), Target: a.Target.Label()}
		if a.Into != nil {
			ae.Into = a.Into.Name
		}
		e.Actions = append(e.Actions, ae)
	}
	return e
}

// NewTimeline collects the timelines of finished scenes.
func NewTimeline(reports []Report) *Timeline {
	t := &Timeline{Version: TimelineVersion}
	for _, r := range reports {
		t.Scenes = append(t.Scenes, r.Timeline)
	}
	return t
}
