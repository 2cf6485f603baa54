// Package director sequences the steps of a scene, tracks which objects are
// on stage and asks a Renderer to animate each step.
package director

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ivlev/explainer/internal/scene"
)

// ErrAborted wraps every failure that stops a scene after it has started.
var ErrAborted = errors.New("scene aborted")

// Animation is one request to the rendering engine.
type Animation struct {
	Scene string
	Index int
	Step  scene.Step
	// Live holds every object on stage during the step in draw order,
	// including the ones entering and leaving in it.
	Live []*scene.Object
	// Start is the scene time in seconds when the step begins.
	Start float64
}

// Renderer produces the frames of a scene. Animate blocks until every frame
// of the step has been produced and reports how many there were.
type Renderer interface {
	BeginScene(name string) error
	Animate(ctx context.Context, a Animation) (frames int, err error)
	EndScene() error
}

// LeakPolicy decides what happens to a scene that never releases some of
// its objects.
type LeakPolicy uint8

const (
	// LeakFail rejects the scene before rendering.
	LeakFail LeakPolicy = iota
	// LeakSweep appends a closing step that fades the leaked objects out.
	LeakSweep
)

// SweepDuration is the length of the closing step added by LeakSweep.
const SweepDuration = 0.5

// Report summarizes one scene run.
type Report struct {
	Name     string
	Steps    int
	Tracked  int
	Released int
	Frames   int
	Duration float64
	Elapsed  time.Duration
	Timeline SceneTimeline
}

// Director runs scenes one at a time.
type Director struct {
	Renderer Renderer
	FPS      int
	Policy   LeakPolicy
	Logger   *log.Logger
	Verbose  bool
}

// New returns a director that renders through r at fps frames per second.
func New(r Renderer, fps int) *Director {
	return &Director{Renderer: r, FPS: fps}
}

func (d *Director) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.Default()
}

// Prepare validates steps for the named scene and applies the leak policy.
// The returned steps are the ones RunScene will execute.
func (d *Director) Prepare(name string, steps []scene.Step) ([]scene.Step, error) {
	err := Plan(name, steps)
	var leak *LeakError
	if err == nil || d.Policy != LeakSweep || !errors.As(err, &leak) {
		return steps, err
	}

	d.logger().Printf("[!] %v; sweeping them out", leak)
	actions := make([]scene.Action, len(leak.Objects))
	for i, o := range leak.Objects {
		actions[i] = scene.FadeOut(o)
	}
	swept := make([]scene.Step, len(steps), len(steps)+1)
	copy(swept, steps)
	swept = append(swept, scene.Play(actions...).For(SweepDuration).Named("sweep"))
	return swept, Plan(name, swept)
}

// RunScene plans steps and then executes them in order. Every object
// tracked by the scene is released on every exit path, so nothing survives
// into the next scene.
func (d *Director) RunScene(ctx context.Context, name string, steps []scene.Step) (rep Report, err error) {
	rep.Name = name
	if d.Renderer == nil {
		return rep, fmt.Errorf("scene %s: no renderer", name)
	}
	steps, err = d.Prepare(name, steps)
	if err != nil {
		return rep, err
	}

	started := time.Now()
	stage := NewStage(name)
	tl := SceneTimeline{Name: name}
	clock := 0.0
	began := false
	defer func() {
		if err != nil && began {
			d.Renderer.EndScene()
		}
		if left := stage.ReleaseAll(); len(left) > 0 {
			d.logger().Printf("[!] scene %s: released %d objects after abort", name, len(left))
		}
		rep = d.finish(rep, stage, tl, clock, started)
		if err == nil {
			d.logger().Printf("[+++] Scene %s: %d frames, %.2fs, %d/%d objects released",
				name, rep.Frames, rep.Duration, rep.Released, rep.Tracked)
		}
	}()

	if err := d.Renderer.BeginScene(name); err != nil {
		return rep, fmt.Errorf("%w: %s: begin: %w", ErrAborted, name, err)
	}
	began = true

	d.logger().Printf("[*] Scene %s: %d steps", name, len(steps))
	for i, st := range steps {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("%w: %s: step %d: %w", ErrAborted, name, i, err)
		}

		for _, a := range st.Actions {
			if a.Kind.Acquires() {
				if err := stage.Track(a.Target); err != nil {
					return rep, &StepError{Scene: name, Index: i, Label: st.Label, Err: err}
				}
			}
		}

		frames, err := d.Renderer.Animate(ctx, Animation{
			Scene: name,
			Index: i,
			Step:  st,
			Live:  stage.Live(),
			Start: clock,
		})
		if err != nil {
			return rep, fmt.Errorf("%w: %s: step %d: %w", ErrAborted, name, i, err)
		}

		for _, a := range st.Actions {
			a.Commit()
		}
		for _, a := range st.Actions {
			if a.Kind.Releases() {
				if err := stage.Release(a.Target); err != nil {
					return rep, &StepError{Scene: name, Index: i, Label: st.Label, Err: err}
				}
			}
		}

		elapsed := d.seconds(frames, st.Duration)
		tl.Steps = append(tl.Steps, newEntry(i, st, clock, elapsed, frames))
		if d.Verbose {
			d.logger().Printf("[>] %s %d/%d %s: %.2fs, %d frames, %d live",
				name, i+1, len(steps), st.Label, elapsed, frames, len(stage.live))
		}
		clock += elapsed
		rep.Frames += frames
		rep.Steps++
	}

	began = false
	if err := d.Renderer.EndScene(); err != nil {
		return rep, fmt.Errorf("%w: %s: end: %w", ErrAborted, name, err)
	}
	if live := stage.Live(); len(live) > 0 {
		return rep, &LeakError{Scene: name, Objects: live}
	}
	return rep, nil
}

func (d *Director) finish(rep Report, stage *Stage, tl SceneTimeline, clock float64, started time.Time) Report {
	rep.Tracked = stage.Tracked()
	rep.Released = stage.Released()
	rep.Duration = clock
	rep.Elapsed = time.Since(started)
	tl.Duration = clock
	tl.Frames = rep.Frames
	tl.Tracked = rep.Tracked
	tl.Released = rep.Released
	rep.Timeline = tl
	return rep
}

// seconds converts a frame count to scene time. Without a frame rate the
// step takes its nominal duration.
func (d *Director) seconds(frames int, nominal float64) float64 {
	if d.FPS <= 0 {
		return nominal
	}
	return float64(frames) / float64(d.FPS)
}
