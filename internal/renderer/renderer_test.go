package renderer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/ivlev/explainer/internal/director"
	"github.com/ivlev/explainer/internal/scene"
)

type captureSink struct {
	frames []*image.RGBA
	failAt int
	closed bool
}

func (s *captureSink) WriteFrame(frame *image.RGBA) error {
	if s.failAt > 0 && len(s.frames)+1 == s.failAt {
		return errors.New("disk full")
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *captureSink) Close() error {
	s.closed = true
	return nil
}

func newTestRaster(sink *captureSink) *Raster {
	return NewRaster(160, 90, 10, func(string) (FrameSink, error) { return sink, nil })
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFrames(t *testing.T) {
	tests := []struct {
		duration float64
		fps      int
		want     int
	}{
		{1, 30, 30},
		{0.5, 30, 15},
		{0.8, 30, 24},
		{1.5, 30, 45},
		{0, 30, 0},
		{2, 0, 0},
	}
	for _, tt := range tests {
		if got := Frames(tt.duration, tt.fps); got != tt.want {
			t.Errorf("Frames(%v, %d) = %d, want %d", tt.duration, tt.fps, got, tt.want)
		}
	}
}

func TestInterpolateStateClamps(t *testing.T) {
	from := scene.State{Position: scene.Point{}, Scale: 1, Opacity: 1}
	to := scene.State{Position: scene.Point{X: 4}, Scale: 3, Opacity: 1}

	if got := InterpolateState(from, to, 0.25); !near(got.Position.X, 1) || !near(got.Scale, 1.5) {
		t.Errorf("quarter way = %+v", got)
	}
	if got := InterpolateState(from, to, 2); got.Position.X != 4 {
		t.Errorf("t > 1 should clamp, got %v", got.Position)
	}
}

func TestPoses(t *testing.T) {
	box := scene.NewSquare("box", 1, scene.Filled(scene.Blue))
	label := scene.NewText("label", "abc", 0.4, scene.White)
	gone := scene.NewDot("gone", scene.Red)
	ptr := scene.NewArrow("ptr", scene.Point{Y: 0.4}, scene.Yellow)
	next := scene.NewArrow("next", scene.Point{Y: 0.4}, scene.Yellow).At(scene.Point{X: 2})

	poses := Poses([]scene.Action{
		scene.FadeIn(box),
		scene.Shift(box, scene.Point{X: 2}),
		scene.Write(label),
		scene.Remove(gone),
		scene.Transform(ptr, next),
	}, 0.5)

	b := poses[box]
	if !near(b.State.Opacity, 0.5) || !near(b.State.Position.X, 1) {
		t.Errorf("box pose = %+v", b.State)
	}
	if l := poses[label]; !near(l.Reveal, 0.5) || l.State.Opacity != 1 {
		t.Errorf("label pose = %+v", l)
	}
	if g := poses[gone]; g.State.Opacity != 0 {
		t.Errorf("removed object should be hidden, opacity %v", g.State.Opacity)
	}
	if p := poses[ptr]; p.Morph != next || !near(p.Blend, 0.5) || !near(p.State.Position.X, 1) {
		t.Errorf("transform pose = %+v", p)
	}
	if box.Position.X != 0 {
		t.Error("computing poses must not commit")
	}
}

func TestDrawSquare(t *testing.T) {
	r := newTestRaster(&captureSink{})
	frame := image.NewRGBA(image.Rect(0, 0, 160, 90))
	sq := scene.NewSquare("sq", 2, scene.Filled(scene.Blue))

	if err := r.Draw(frame, []*scene.Object{sq}, nil); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	want := color.RGBA{0x58, 0xc4, 0xdd, 0xff}
	if got := frame.RGBAAt(80, 45); got != want {
		t.Errorf("center = %v, want %v", got, want)
	}
	if got := frame.RGBAAt(2, 2); got != (color.RGBA{0, 0, 0, 0xff}) {
		t.Errorf("corner = %v, want black", got)
	}
}

func TestDrawHugeObjectClipsMask(t *testing.T) {
	r := newTestRaster(&captureSink{})
	frame := image.NewRGBA(image.Rect(0, 0, 160, 90))
	sq := scene.NewSquare("sq", 2, scene.Filled(scene.Blue))
	sq.Scale = 1e4

	if err := r.Draw(frame, []*scene.Object{sq}, nil); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	want := color.RGBA{0x58, 0xc4, 0xdd, 0xff}
	for _, p := range []image.Point{{80, 45}, {0, 0}, {159, 89}} {
		if got := frame.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
	if n := cap(r.canvas.mask.Pix); n > 160*90 {
		t.Errorf("mask holds %d bytes, want at most one frame", n)
	}
}

func TestDrawGroupOffset(t *testing.T) {
	r := newTestRaster(&captureSink{})
	frame := image.NewRGBA(image.Rect(0, 0, 160, 90))
	dot := scene.NewCircle("c", 0.5, scene.Filled(scene.Red)).At(scene.Point{X: 2})
	g := scene.NewGroup("g", dot).At(scene.Point{Y: 2})

	if err := r.Draw(frame, []*scene.Object{g}, nil); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	// (2, 2) in scene units is 22.5 px right of and above the center.
	if got := frame.RGBAAt(102, 22); got.R != 0xfc {
		t.Errorf("circle pixel = %v", got)
	}
	if got := frame.RGBAAt(80, 45); got.R != 0 {
		t.Errorf("center should stay black, got %v", got)
	}
}

func TestDrawTextAndQR(t *testing.T) {
	r := newTestRaster(&captureSink{})
	frame := image.NewRGBA(image.Rect(0, 0, 160, 90))
	txt := scene.NewText("t", "HI", 1, scene.White).At(scene.Point{X: -4})
	qr := scene.NewQRCode("qr", "https://example.com", 3).At(scene.Point{X: 3})

	if err := r.Draw(frame, []*scene.Object{txt, qr}, nil); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	lit := 0
	for y := 35; y < 55; y++ {
		for x := 25; x < 45; x++ {
			if frame.RGBAAt(x, y).R > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("text drew nothing")
	}

	var light, dark int
	for y := 30; y < 60; y++ {
		for x := 98; x < 130; x++ {
			switch c := frame.RGBAAt(x, y); {
			case c.R == 0xff:
				light++
			case c.R == 0:
				dark++
			}
		}
	}
	if light == 0 || dark == 0 {
		t.Errorf("qr code should have light and dark modules, got %d/%d", light, dark)
	}
}

func TestAnimateFadeIn(t *testing.T) {
	sink := &captureSink{}
	r := newTestRaster(sink)
	sq := scene.NewSquare("sq", 2, scene.Filled(scene.White))

	if err := r.BeginScene("fade"); err != nil {
		t.Fatal(err)
	}
	n, err := r.Animate(context.Background(), director.Animation{
		Scene: "fade",
		Step:  scene.Play(scene.FadeIn(sq)),
		Live:  []*scene.Object{sq},
	})
	if err != nil {
		t.Fatalf("Animate failed: %v", err)
	}
	if n != 10 || len(sink.frames) != 10 {
		t.Fatalf("got %d frames (%d written), want 10", n, len(sink.frames))
	}
	first := sink.frames[0].RGBAAt(80, 45).R
	last := sink.frames[9].RGBAAt(80, 45).R
	if first >= last || last != 0xff {
		t.Errorf("fade in should brighten: first %d, last %d", first, last)
	}

	if err := r.EndScene(); err != nil || !sink.closed {
		t.Errorf("EndScene should close the sink: %v", err)
	}
}

func TestAnimateSinkFailure(t *testing.T) {
	sink := &captureSink{failAt: 3}
	r := newTestRaster(sink)
	r.BeginScene("fail")

	n, err := r.Animate(context.Background(), director.Animation{Step: scene.Wait(1)})
	if err == nil {
		t.Fatal("expected sink error")
	}
	if n != 2 {
		t.Errorf("frames before failure = %d, want 2", n)
	}
}

func TestAnimateAbortsOnUnencodableQR(t *testing.T) {
	sink := &captureSink{}
	r := newTestRaster(sink)
	r.BeginScene("qr")
	qr := scene.NewQRCode("qr", strings.Repeat("x", 5000), 3)

	n, err := r.Animate(context.Background(), director.Animation{
		Step: scene.Play(scene.FadeIn(qr)),
		Live: []*scene.Object{qr},
	})
	if !errors.Is(err, scene.ErrBadPayload) {
		t.Fatalf("got %v, want ErrBadPayload", err)
	}
	if n != 0 || len(sink.frames) != 0 {
		t.Errorf("wrote %d frames for a QR that cannot be drawn", len(sink.frames))
	}
}

func TestAnimateWithoutScene(t *testing.T) {
	r := newTestRaster(&captureSink{})
	if _, err := r.Animate(context.Background(), director.Animation{Step: scene.Wait(1)}); err == nil {
		t.Error("expected error when no scene has begun")
	}
}

func TestNull(t *testing.T) {
	n := &Null{FPS: 30}
	f, err := n.Animate(context.Background(), director.Animation{Step: scene.Wait(0.5)})
	if err != nil || f != 15 {
		t.Errorf("Animate = %d, %v", f, err)
	}
	if _, err := n.Animate(context.Background(), director.Animation{Step: scene.Wait(1).Eased("wobble")}); err == nil {
		t.Error("unknown easing should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := n.Animate(ctx, director.Animation{Step: scene.Wait(1)}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: %v", err)
	}
	if n.Frames != 15 {
		t.Errorf("Frames = %d, want 15", n.Frames)
	}
}
