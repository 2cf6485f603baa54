package narrate

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// Clarke maps three phase quantities onto the stationary alpha-beta frame
// (amplitude-invariant form).
func Clarke(a, b, c float64) (alpha, beta float64) {
	alpha = 2.0 / 3.0 * (a - b/2 - c/2)
	beta = 2.0 / 3.0 * (math.Sqrt(3) / 2) * (b - c)
	return alpha, beta
}

// Park rotates alpha-beta quantities into the frame turning at theta
// radians.
func Park(alpha, beta, theta float64) (d, q float64) {
	sin, cos := math.Sincos(theta)
	d = alpha*cos + beta*sin
	q = -alpha*sin + beta*cos
	return d, q
}

// ParkSample is one electrical angle of a balanced three phase set.
type ParkSample struct {
	Index       int
	Theta       float64
	A, B, C     float64
	Alpha, Beta float64
	D, Q        float64
}

// TracePark samples one electrical turn of a balanced three phase set of the
// given amplitude and reports each sample after both transforms.
func TracePark(amplitude float64, samples int, visit func(ParkSample)) ([]ParkSample, error) {
	if samples < 1 {
		return nil, errors.New("park: need at least one sample")
	}
	out := make([]ParkSample, 0, samples)
	for k := 0; k < samples; k++ {
		theta := 2 * math.Pi * float64(k) / float64(samples)
		s := ParkSample{
			Index: k,
			Theta: theta,
			A:     amplitude * math.Cos(theta),
			B:     amplitude * math.Cos(theta-2*math.Pi/3),
			C:     amplitude * math.Cos(theta+2*math.Pi/3),
		}
		s.Alpha, s.Beta = Clarke(s.A, s.B, s.C)
		s.D, s.Q = Park(s.Alpha, s.Beta, s.Theta)
		if visit != nil {
			visit(s)
		}
		out = append(out, s)
	}
	return out, nil
}

const planeRadius = 2.0

// clean drops rounding noise so readouts never show -0.000.
func clean(v float64) float64 {
	if math.Abs(v) < 5e-4 {
		return 0
	}
	return v
}

// ParkScene narrates Clarke and Park transforms: the alpha-beta vector and
// the d axis turn together, so the d-q readout stays constant.
func ParkScene(amplitude float64, samples int) ([]ParkSample, []scene.Step, error) {
	if amplitude <= 0 {
		return nil, nil, errors.New("park: amplitude must be positive")
	}
	var sc Script

	title := Title("title", "Clarke and Park Transforms", scene.Blue)
	outline, err := layout.BulletList("outline", []string{
		"* Clarke Transform (abc -> alpha beta)",
		"* Park Transform (alpha beta -> dq)",
	}, BodySize, 0.3, scene.White, scene.Point{X: -4, Y: 2})
	if err != nil {
		return nil, nil, err
	}
	sc.Play(scene.Play(scene.Write(title)), scene.Play(scene.FadeIn(outline[0]), scene.FadeIn(outline[1])), scene.Wait(2))
	sc.Play(FadeOutAll(0.8, outline...))

	center := scene.Point{X: -3, Y: -0.5}
	xAxis := scene.NewLine("axis.alpha", scene.Point{X: 2 * (planeRadius + 0.5)}, scene.Gray).At(center.Sub(scene.Point{X: planeRadius + 0.5}))
	yAxis := scene.NewLine("axis.beta", scene.Point{Y: 2 * (planeRadius + 0.5)}, scene.Gray).At(center.Sub(scene.Point{Y: planeRadius + 0.5}))
	circle := scene.NewCircle("circle", planeRadius, scene.Style{Stroke: scene.Gray.WithAlpha(0.6), StrokeWidth: 0.03, Opacity: 1}).At(center)
	dAxis := scene.NewLine("axis.d", scene.Point{X: planeRadius + 0.5}, scene.Red).At(center)
	vec := scene.NewArrow("vector", scene.Point{X: planeRadius}, scene.Yellow).At(center)
	clarke := scene.NewText("clarke", "alpha = 2/3 (a - b/2 - c/2), beta = (b - c)/sqrt(3)", SmallSize, scene.White).At(scene.Point{X: 3, Y: 1.8})
	park := scene.NewText("park", "d = alpha cos(t) + beta sin(t), q = -alpha sin(t) + beta cos(t)", SmallSize, scene.White).At(scene.Point{X: 3, Y: 1.3})
	sc.Play(
		scene.Play(scene.Create(xAxis), scene.Create(yAxis), scene.Create(circle)).Named("plane"),
		scene.Play(scene.Write(clarke), scene.Write(park)),
		scene.Play(scene.Create(dAxis), scene.Create(vec)),
		scene.Wait(1),
	)

	readoutAt := scene.Point{X: 2.5, Y: -0.5}
	readout := func(name string, s ParkSample) *scene.Object {
		return scene.NewText(name, fmt.Sprintf("t = %3.0f deg   d = %.3f   q = %.3f", s.Theta*180/math.Pi, clean(s.D), clean(s.Q)),
			BodySize, scene.Green).At(readoutAt)
	}

	var shown *scene.Object
	prev := 0.0
	out, err := TracePark(amplitude, samples, func(s ParkSample) {
		next := readout(fmt.Sprintf("readout%d", s.Index), s)
		if shown == nil {
			shown = next
			sc.Play(scene.Play(scene.Write(shown)).For(0.6).Named("readout"))
			return
		}
		delta := (s.Theta - prev) * 180 / math.Pi
		prev = s.Theta
		sc.Play(scene.Play(
			scene.Rotate(vec, delta),
			scene.Rotate(dAxis, delta),
			scene.Transform(shown, next),
		).For(0.4).Eased("linear").Named(fmt.Sprintf("theta %d", s.Index)))
	})
	if err != nil {
		return nil, nil, err
	}

	summary := scene.NewText("summary", "Balanced currents become constant d and q", BodySize, scene.Yellow).At(scene.Point{Y: -3.3})
	sc.Play(scene.Play(scene.Write(summary)), scene.Wait(2))
	sc.Play(FadeOutAll(1, title, xAxis, yAxis, circle, dAxis, vec, clarke, park, shown, summary))
	return out, sc.Steps(), nil
}
