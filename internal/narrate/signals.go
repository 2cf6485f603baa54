package narrate

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strconv"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// Polar returns the magnitude of z and its angle in degrees.
func Polar(z complex128) (r, degrees float64) {
	return cmplx.Abs(z), cmplx.Phase(z) * 180 / math.Pi
}

// FormatComplex writes z in the engineering form a + jb.
func FormatComplex(z complex128) string {
	re, im := real(z), imag(z)
	num := func(v float64) string { return strconv.FormatFloat(v, 'g', 4, 64) }
	if im < 0 {
		return num(re) + " - j" + num(-im)
	}
	return num(re) + " + j" + num(im)
}

// Decibels is the voltage gain 20 log10(out/in).
func Decibels(out, in float64) (float64, error) {
	if out <= 0 || in <= 0 {
		return 0, errors.New("decibels: voltages must be positive")
	}
	return 20 * math.Log10(out/in), nil
}

// GainStage is one voltage ratio of a cascade and its gain.
type GainStage struct {
	Index int
	Ratio float64
	DB    float64
	// Total is the running product of ratios and Sum the running dB sum.
	Total, Sum float64
}

// TraceGains converts every ratio to dB and accumulates the cascade: the
// product of ratios matches the sum of gains.
func TraceGains(ratios []float64, visit func(GainStage)) ([]GainStage, error) {
	if len(ratios) == 0 {
		return nil, fmt.Errorf("gains: %w", layout.ErrEmptyInput)
	}
	out := make([]GainStage, 0, len(ratios))
	total, sum := 1.0, 0.0
	for i, r := range ratios {
		db, err := Decibels(r, 1)
		if err != nil {
			return nil, fmt.Errorf("gain stage %d: %w", i, err)
		}
		total *= r
		sum += db
		g := GainStage{Index: i, Ratio: r, DB: db, Total: total, Sum: sum}
		if visit != nil {
			visit(g)
		}
		out = append(out, g)
	}
	return out, nil
}

// DecaySample is one point of an RC discharge V(t) = V0 e^(-t/RC).
type DecaySample struct {
	Index int
	T, V  float64
}

// TraceDischarge samples the discharge over [0, span] seconds.
func TraceDischarge(v0, rc, span float64, samples int, visit func(DecaySample)) ([]DecaySample, error) {
	if rc <= 0 || span <= 0 {
		return nil, errors.New("discharge: time constant and span must be positive")
	}
	if samples < 2 {
		return nil, errors.New("discharge: need at least two samples")
	}
	out := make([]DecaySample, 0, samples)
	for k := 0; k < samples; k++ {
		t := span * float64(k) / float64(samples-1)
		s := DecaySample{Index: k, T: t, V: v0 * math.Exp(-t/rc)}
		if visit != nil {
			visit(s)
		}
		out = append(out, s)
	}
	return out, nil
}

// PhasorSample is e^(j theta) at one angle of a turn.
type PhasorSample struct {
	Index    int
	Theta    float64
	Value    complex128
	Cos, Sin float64
}

// TraceEuler turns a unit phasor through one revolution, evaluating both
// sides of e^(j theta) = cos theta + j sin theta.
func TraceEuler(samples int, visit func(PhasorSample)) ([]PhasorSample, error) {
	if samples < 1 {
		return nil, errors.New("euler: need at least one sample")
	}
	out := make([]PhasorSample, 0, samples+1)
	for k := 0; k <= samples; k++ {
		theta := 2 * math.Pi * float64(k) / float64(samples)
		sin, cos := math.Sincos(theta)
		s := PhasorSample{Index: k, Theta: theta, Value: cmplx.Exp(complex(0, theta)), Cos: cos, Sin: sin}
		if visit != nil {
			visit(s)
		}
		out = append(out, s)
	}
	return out, nil
}

var complexPlane = layout.Axes{
	Origin: scene.Point{X: -6, Y: -3.5}, Width: 6, Height: 6,
	XMin: -5, XMax: 5, YMin: -5, YMax: 5,
}

// bullets fades in lines one by one under heading and returns everything
// it showed.
func bullets(sc *Script, name, heading string, lines []string, topLeft scene.Point) ([]*scene.Object, error) {
	heads, err := layout.BulletList(name+".title", []string{heading}, BodySize, 0, scene.Teal, topLeft)
	if err != nil {
		return nil, err
	}
	head := heads[0]
	items := make([]string, len(lines))
	for i, l := range lines {
		items[i] = "* " + l
	}
	list, err := layout.BulletList(name, items, SmallSize, 0.25, scene.White, topLeft.Sub(scene.Point{Y: 0.6}))
	if err != nil {
		return nil, err
	}
	sc.Play(scene.Play(scene.FadeIn(head)).Named(name), scene.Wait(0.5))
	for _, l := range list {
		sc.Play(scene.Play(scene.FadeIn(l)).For(0.8), scene.Wait(0.4))
	}
	return append([]*scene.Object{head}, list...), nil
}

// ComplexScene places z on the complex plane and derives its polar form.
func ComplexScene(z complex128) ([]scene.Step, error) {
	a := complexPlane
	if math.Abs(real(z)) > a.XMax || math.Abs(imag(z)) > a.YMax {
		return nil, fmt.Errorf("complex %s: outside the plane", FormatComplex(z))
	}
	var sc Script
	r, deg := Polar(z)

	title := Title("title", "Complex Numbers", scene.Yellow)
	intro := scene.NewText("intro", "Real + imaginary parts carry the magnitude and phase of AC signals", SmallSize, scene.White).
		At(scene.Point{Y: 2.4})
	sc.Play(scene.Play(scene.FadeIn(title)), scene.Play(scene.Write(intro)).For(2), scene.Wait(2), FadeOutAll(1, intro))

	frame := a.Frame("plane", scene.Gray)
	re := scene.NewText("plane.re", "Re", SmallSize, scene.Gray).At(a.Point(a.XMax, 0).Add(scene.Point{X: 0.5, Y: 0.25}))
	im := scene.NewText("plane.im", "Im", SmallSize, scene.Gray).At(a.Point(0, a.YMax).Add(scene.Point{X: -0.35, Y: 0.3}))
	sc.Play(scene.Play(scene.Create(frame)).For(2).Named("plane"), scene.Play(scene.FadeIn(re), scene.FadeIn(im)))

	tip := a.Point(real(z), imag(z))
	origin := a.Point(0, 0)
	point := scene.NewDot("z", scene.Yellow).At(tip)
	label := scene.NewText("z.label", FormatComplex(z), BodySize, scene.Yellow).At(tip.Add(scene.Point{X: 0.6, Y: 0.3}))
	vector := scene.NewLine("z.vector", tip.Sub(origin), scene.Yellow).At(origin)
	sc.Play(
		scene.Play(scene.Create(point)),
		scene.Play(scene.Write(label)),
		scene.Play(scene.Create(vector)),
		scene.Wait(1),
	)

	mag := scene.NewText("magnitude", fmt.Sprintf("|z| = sqrt(%g^2 + %g^2) = %.3f", real(z), imag(z), r), BodySize, scene.White).
		At(scene.Point{X: 3.2, Y: 1.5})
	angle := scene.NewText("angle", fmt.Sprintf("theta = atan(%g / %g) = %.2f deg", imag(z), real(z), deg), BodySize, scene.White).
		At(scene.Point{X: 3.2, Y: 0.8})
	euler := scene.NewText("euler", fmt.Sprintf("%s = %.3f e^(j %.2f deg)", FormatComplex(z), r, deg), BodySize, scene.Green).
		At(scene.Point{X: 3.2, Y: 0.1})
	sc.Play(
		scene.Play(scene.Write(mag)), scene.Wait(1),
		scene.Play(scene.Write(angle)), scene.Wait(1),
		scene.Play(scene.Write(euler)), scene.Wait(2),
		FadeOutAll(1, frame, re, im, point, label, vector, mag, angle, euler),
	)

	why, err := bullets(&sc, "why", "Why Complex Numbers?", []string{
		"Easier AC calculations (phasors)",
		"Magnitude and phase in one number",
		"Impedances: Z_R = R, Z_L = jwL, Z_C = 1/(jwC)",
	}, scene.Point{X: -5, Y: 2})
	if err != nil {
		return nil, err
	}
	sc.Play(scene.Wait(2), FadeOutAll(1, append(why, title)...))
	return sc.Steps(), nil
}

// ExponentScene plots e^x and an RC discharge from v0 with time constant rc.
func ExponentScene(v0, rc float64) ([]DecaySample, []scene.Step, error) {
	var sc Script
	title := Title("title", "Exponents", scene.Yellow)
	subtitle := scene.NewText("subtitle", "Modeling Rapid Growth and Decay in Circuits", BodySize, scene.White).At(scene.Point{Y: 2.4})
	sc.Play(scene.Play(scene.FadeIn(title)), scene.Play(scene.Write(subtitle)), scene.Wait(2), FadeOutAll(1, subtitle))

	growth := layout.Axes{Origin: scene.Point{X: -6, Y: -3}, Width: 5, Height: 5, XMin: -1, XMax: 3, YMin: 0, YMax: 20}
	frame := growth.Frame("growth", scene.Gray)
	curve, err := growth.Plot("exp", math.Exp, 41, scene.Teal)
	if err != nil {
		return nil, nil, err
	}
	label := scene.NewText("exp.label", "y = e^x", BodySize, scene.Teal).At(growth.Point(1, 18))
	sc.Play(
		scene.Play(scene.Create(frame)).Named("axes"),
		scene.Play(scene.Create(curve)).For(2).Named("e^x"),
		scene.Play(scene.Write(label)),
		scene.Wait(1),
	)

	span := 5 * rc
	decay := layout.Axes{Origin: scene.Point{X: 1, Y: -3}, Width: 5, Height: 5, XMin: 0, XMax: span, YMin: 0, YMax: v0 * 1.1}
	if err := decay.Validate(); err != nil {
		return nil, nil, err
	}
	dFrame := decay.Frame("decay", scene.Gray)
	law := scene.NewText("rc.law", "V(t) = V0 e^(-t/RC)", BodySize, scene.White).At(decay.Point(span/2, v0*1.05))
	sc.Play(scene.Play(scene.Create(dFrame), scene.Write(law)).Named("rc"))

	const samples = 21
	pts := make([]scene.Point, 0, samples)
	out, err := TraceDischarge(v0, rc, span, samples, func(s DecaySample) {
		pts = append(pts, decay.Point(s.T, s.V))
	})
	if err != nil {
		return nil, nil, err
	}
	line, err := layout.Polyline("rc.curve", pts, scene.Orange)
	if err != nil {
		return nil, nil, err
	}
	sc.Play(scene.Play(scene.Create(line)).For(2).Named("discharge"))

	// one time constant leaves 1/e of the start voltage
	at := out[(samples-1)/5]
	mark := scene.NewDot("rc.mark", scene.Yellow).At(decay.Point(at.T, at.V))
	note := scene.NewText("rc.note", fmt.Sprintf("t = RC: V = %.1f%% of V0", at.V/v0*100), SmallSize, scene.Yellow).
		At(decay.Point(at.T, at.V).Add(scene.Point{X: 1.6, Y: 0.3}))
	sc.Play(scene.Play(scene.Create(mark), scene.Write(note)), scene.Wait(2))
	sc.Play(FadeOutAll(1, frame, curve, label, dFrame, law, line, mark, note))

	where, err := bullets(&sc, "where", "Where Exponents Show Up:", []string{
		"Amplifier gains",
		"Capacitor charge and discharge",
		"Transistor I-V relationships",
		"Any process with rate proportional to its state",
	}, scene.Point{X: -5, Y: 2})
	if err != nil {
		return nil, nil, err
	}
	sc.Play(scene.Wait(2), FadeOutAll(1, append(where, title)...))
	return out, sc.Steps(), nil
}

// LogScene converts each voltage ratio of a cascade to dB and shows that
// the gains add up.
func LogScene(ratios []float64) ([]GainStage, []scene.Step, error) {
	var sc Script
	title := Title("title", "Logarithms", scene.Yellow)
	rule1 := scene.NewText("rule.product", "log(ab) = log(a) + log(b)", BodySize, scene.White).At(scene.Point{X: -3.5, Y: 2})
	rule2 := scene.NewText("rule.quotient", "log(a/b) = log(a) - log(b)", BodySize, scene.White).At(scene.Point{X: -3.5, Y: 1.3})
	gain := scene.NewText("gain", "Gain (dB) = 20 log10(Vout / Vin)", BodySize, scene.Teal).At(scene.Point{X: 3, Y: 2})
	sc.Play(
		scene.Play(scene.FadeIn(title)),
		scene.Play(scene.Write(rule1)), scene.Wait(1),
		scene.Play(scene.Write(rule2)), scene.Wait(1),
		scene.Play(scene.Write(gain)), scene.Wait(1),
	)

	rows := []*scene.Object{rule1, rule2, gain}
	y := 0.3
	out, err := TraceGains(ratios, func(g GainStage) {
		row := scene.NewText(fmt.Sprintf("stage%d", g.Index),
			fmt.Sprintf("x %g  ->  %+.2f dB", g.Ratio, g.DB), BodySize, scene.White).At(scene.Point{X: 3, Y: y})
		y -= 0.55
		rows = append(rows, row)
		sc.Play(scene.Play(scene.Write(row)).For(0.8).Named(fmt.Sprintf("stage %d", g.Index)), scene.Wait(0.5))
	})
	if err != nil {
		return nil, nil, err
	}
	last := out[len(out)-1]
	total := scene.NewText("total", fmt.Sprintf("x %g in total = %+.2f dB", last.Total, last.Sum), BodySize, scene.Green).
		At(scene.Point{X: 3, Y: y - 0.2})
	box := Surround("total.box", total, 0.15, scene.Green)
	rows = append(rows, total, box)
	sc.Play(scene.Play(scene.Write(total)), scene.Play(scene.Create(box)), scene.Wait(2), FadeOutAll(1, rows...))

	uses, err := bullets(&sc, "uses", "Logarithms in Engineering:", []string{
		"Combine gains by adding dB values",
		"Represent wide dynamic ranges",
		"Bode plots and frequency response",
	}, scene.Point{X: -5, Y: 2})
	if err != nil {
		return nil, nil, err
	}
	sc.Play(scene.Wait(2), FadeOutAll(1, append(uses, title)...))
	return out, sc.Steps(), nil
}

// EulerScene turns a phasor once around the unit circle with a live
// readout of both sides of Euler's formula.
func EulerScene(samples int) ([]PhasorSample, []scene.Step, error) {
	var sc Script
	title := Title("title", "Euler's Formula", scene.Yellow)
	formula := scene.NewText("formula", "e^(j theta) = cos(theta) + j sin(theta)", 0.45, scene.White).At(scene.Point{Y: 2.3})
	sc.Play(scene.Play(scene.FadeIn(title)), scene.Play(scene.Write(formula)).For(2), scene.Wait(2))

	const radius = 1.8
	center := scene.Point{X: -3, Y: -0.8}
	const reach = 1.28
	half := reach * radius
	a := layout.Axes{
		Origin: center.Sub(scene.Point{X: half, Y: half}), Width: 2 * half, Height: 2 * half,
		XMin: -reach, XMax: reach, YMin: -reach, YMax: reach,
	}
	frame := a.Frame("plane", scene.Gray)
	circle := scene.NewCircle("unit", radius, scene.Style{Stroke: scene.Teal, StrokeWidth: 0.04, Opacity: 1}).At(center)
	phasor := scene.NewArrow("phasor", scene.Point{X: radius}, scene.Yellow).At(center)
	sc.Play(
		scene.Play(scene.Create(frame), scene.Create(circle)).Named("plane"),
		scene.Play(scene.Create(phasor)),
	)

	readoutAt := scene.Point{X: 3, Y: 0}
	readout := func(s PhasorSample) *scene.Object {
		return scene.NewText(fmt.Sprintf("readout%d", s.Index),
			fmt.Sprintf("%3.0f deg: %s", s.Theta*180/math.Pi, FormatComplex(complex(clean(s.Cos), clean(s.Sin)))),
			BodySize, scene.Green).At(readoutAt)
	}
	var shown *scene.Object
	prev := 0.0
	out, err := TraceEuler(samples, func(s PhasorSample) {
		next := readout(s)
		if shown == nil {
			shown = next
			sc.Play(scene.Play(scene.Write(shown)).For(0.5).Named("readout"))
			return
		}
		delta := (s.Theta - prev) * 180 / math.Pi
		prev = s.Theta
		sc.Play(scene.Play(scene.Rotate(phasor, delta), scene.Transform(shown, next)).
			For(4 / float64(samples)).Eased("linear").Named(fmt.Sprintf("theta %d", s.Index)))
	})
	if err != nil {
		return nil, nil, err
	}

	note := scene.NewText("note", "A phasor turning at w rad/s: the signal is Re{e^(jwt)}", SmallSize, scene.White).At(scene.Point{Y: -3.5})
	sc.Play(scene.Play(scene.Write(note)), scene.Wait(2))
	sc.Play(FadeOutAll(1, title, formula, frame, circle, phasor, shown, note))
	return out, sc.Steps(), nil
}
