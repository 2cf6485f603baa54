// Package renderer turns director animations into raster frames.
package renderer

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/ivlev/explainer/internal/director"
	"github.com/ivlev/explainer/internal/easing"
	"github.com/ivlev/explainer/internal/scene"
	"github.com/ivlev/explainer/internal/system"
)

// FrameSink consumes rendered frames. WriteFrame takes ownership of the
// frame; once done with it the sink should hand it back with
// system.PutImage.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
}

// OpenFunc starts the sink that receives the frames of one scene.
type OpenFunc func(scene string) (FrameSink, error)

// Frames is the number of frames a step of the given duration occupies.
func Frames(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Round(duration * float64(fps)))
}

// Raster renders every frame of every step.
type Raster struct {
	Width, Height int
	FPS           int
	Background    scene.Color

	open   OpenFunc
	sink   FrameSink
	canvas *canvas
}

// NewRaster returns a renderer that writes each scene to the sink returned
// by open.
func NewRaster(width, height, fps int, open OpenFunc) *Raster {
	return &Raster{
		Width:      width,
		Height:     height,
		FPS:        fps,
		Background: scene.Black,
		open:       open,
		canvas:     newCanvas(width, height),
	}
}

func (r *Raster) BeginScene(name string) error {
	sink, err := r.open(name)
	if err != nil {
		return fmt.Errorf("open segment %s: %w", name, err)
	}
	r.sink = sink
	return nil
}

func (r *Raster) Animate(ctx context.Context, a director.Animation) (int, error) {
	if r.sink == nil {
		return 0, fmt.Errorf("animate %s step %d: no scene begun", a.Scene, a.Index)
	}
	n := Frames(a.Step.Duration, r.FPS)
	if n == 0 {
		return 0, nil
	}
	fn, err := easing.Lookup(a.Step.Easing)
	if err != nil {
		return 0, err
	}

	progress := easing.NewProgress(fn, n)
	done := 0
	for {
		t, ok := progress.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return done, err
		}
		frame := system.GetImage(image.Rect(0, 0, r.Width, r.Height))
		if err := r.Draw(frame, a.Live, Poses(a.Step.Actions, t)); err != nil {
			system.PutImage(frame)
			return done, fmt.Errorf("draw frame %d: %w", done, err)
		}
		if err := r.sink.WriteFrame(frame); err != nil {
			return done, fmt.Errorf("write frame %d: %w", done, err)
		}
		done++
	}
	return done, nil
}

func (r *Raster) EndScene() error {
	sink := r.sink
	r.sink = nil
	if c, ok := sink.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Draw paints live objects in order over the background. Objects with a
// pose are drawn in it, the rest in their committed state. It stops at the
// first object that cannot be drawn.
func (r *Raster) Draw(dst *image.RGBA, live []*scene.Object, poses map[*scene.Object]Pose) error {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(rgba(r.Background, 1)), image.Point{}, draw.Src)
	r.canvas.dst = dst
	defer func() { r.canvas.dst = nil }()
	for _, o := range live {
		if err := r.object(o, r.canvas.view, 1, poses); err != nil {
			return fmt.Errorf("draw %s: %w", o.Label(), err)
		}
	}
	return nil
}

func (r *Raster) object(o *scene.Object, parent affine, opacity float64, poses map[*scene.Object]Pose) error {
	pose, ok := poses[o]
	if !ok {
		pose = Pose{State: o.State(), Reveal: 1}
	}
	opacity *= pose.State.Opacity
	if opacity <= 0 {
		return nil
	}
	m := parent.mul(local(pose.State))

	into := pose.Morph
	if into == nil || pose.Blend <= 0 {
		return r.node(o, o.Shape, m, pose, opacity, poses)
	}
	if o.Kind == scene.KindShape && into.Kind == scene.KindShape {
		if g, ok := lerpShape(o.Shape, into.Shape, pose.Blend); ok {
			return r.node(o, &g, m, pose, opacity, poses)
		}
	}
	if err := r.node(o, o.Shape, m, pose, opacity*(1-pose.Blend), poses); err != nil {
		return err
	}
	return r.node(into, into.Shape, m, pose, opacity*pose.Blend, nil)
}

func (r *Raster) node(o *scene.Object, g *scene.Shape, m affine, pose Pose, opacity float64, poses map[*scene.Object]Pose) error {
	switch o.Kind {
	case scene.KindShape:
		if g != nil {
			return r.canvas.shape(g, pose.State, o.Style.StrokeWidth, m, opacity*pose.Reveal)
		}
	case scene.KindText:
		r.canvas.text(o.Text, pose.State, m, opacity, pose.Reveal)
	case scene.KindGroup:
		for _, c := range o.Children() {
			if err := r.object(c, m, opacity*pose.Reveal, poses); err != nil {
				return err
			}
		}
	}
	return nil
}

// Null renders nothing and only counts frames. It backs dry runs.
type Null struct {
	FPS    int
	Frames int
}

func (n *Null) BeginScene(string) error { return nil }

func (n *Null) Animate(ctx context.Context, a director.Animation) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, err := easing.Lookup(a.Step.Easing); err != nil {
		return 0, err
	}
	f := Frames(a.Step.Duration, n.FPS)
	n.Frames += f
	return f, nil
}

func (n *Null) EndScene() error { return nil }
