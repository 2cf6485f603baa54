package narrate

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// Motor is a traction motor whose torque falls off exponentially with speed.
// Speeds are in thousands of rpm.
type Motor struct {
	PeakTorque float64 // Nm at standstill
	Decay      float64 // per 1000 rpm
	MaxSpeed   float64
	BackEMF    float64 // V per rad/s
}

// DefaultMotor is the curve T = 8 e^(-0.2 n) over 0..10 krpm.
var DefaultMotor = Motor{PeakTorque: 8, Decay: 0.2, MaxSpeed: 10, BackEMF: 0.01}

func (m Motor) validate() error {
	if m.PeakTorque <= 0 || m.Decay <= 0 || m.MaxSpeed <= 0 {
		return errors.New("motor: torque, decay and speed must be positive")
	}
	return nil
}

// Torque is the shaft torque at speed krpm.
func (m Motor) Torque(krpm float64) float64 {
	return m.PeakTorque * math.Exp(-m.Decay*krpm)
}

// BaseSpeed is where T n peaks, the corner between the constant torque and
// constant power regions.
func (m Motor) BaseSpeed() float64 {
	return 1 / m.Decay
}

// AngularSpeed converts thousands of rpm to rad/s.
func AngularSpeed(krpm float64) float64 {
	return krpm * 1000 * 2 * math.Pi / 60
}

// MotorSample is one operating point on the torque-speed curve.
type MotorSample struct {
	Index  int
	Speed  float64 // krpm
	Omega  float64 // rad/s
	Torque float64 // Nm
	Power  float64 // kW
	EMF    float64 // V
}

// TraceMotor walks the curve from standstill to MaxSpeed in samples evenly
// spaced points, P = T w.
func TraceMotor(m Motor, samples int, visit func(MotorSample)) ([]MotorSample, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if samples < 2 {
		return nil, errors.New("motor: need at least two samples")
	}
	out := make([]MotorSample, 0, samples)
	for k := 0; k < samples; k++ {
		n := m.MaxSpeed * float64(k) / float64(samples-1)
		s := MotorSample{Index: k, Speed: n, Omega: AngularSpeed(n), Torque: m.Torque(n)}
		s.Power = s.Torque * s.Omega / 1000
		s.EMF = m.BackEMF * s.Omega
		if visit != nil {
			visit(s)
		}
		out = append(out, s)
	}
	return out, nil
}

// PeakPower returns the sample with the highest power.
func PeakPower(samples []MotorSample) MotorSample {
	var best MotorSample
	for _, s := range samples {
		if s.Power > best.Power {
			best = s
		}
	}
	return best
}

func motorIcon(at scene.Point) (*scene.Object, *scene.Object) {
	rotor := scene.NewLine("motor.rotor", scene.Point{X: 0.5}, scene.White)
	icon := scene.NewGroup("motor",
		scene.NewCircle("motor.stator", 0.5, scene.Style{Stroke: scene.Blue, StrokeWidth: 0.04, Opacity: 1}),
		rotor,
	).At(at)
	return icon, rotor
}

func region(name, label string, width, height float64, color scene.Color, at scene.Point) *scene.Object {
	return scene.NewGroup(name,
		scene.NewRect(name+".box", width, height, scene.Style{Fill: color.WithAlpha(0.15), Stroke: color, StrokeWidth: 0.04, Opacity: 1}),
		scene.NewText(name+".label", label, SmallSize, scene.White),
	).At(at)
}

// MotorScene narrates the torque-speed curve of m, the power drawn from it
// and the back EMF that rises with speed.
func MotorScene(m Motor, samples int) ([]MotorSample, []scene.Step, error) {
	if err := m.validate(); err != nil {
		return nil, nil, err
	}
	var sc Script

	title := Title("title", "Electric Vehicle Motor Characteristics", scene.White)
	icon, rotor := motorIcon(scene.Point{X: -5.8, Y: TitleY})
	sc.Play(
		scene.Play(scene.Write(title)),
		scene.Play(scene.Create(icon)),
		scene.Play(scene.Rotate(rotor, 720)).For(2).Named("spin"),
		scene.Wait(1),
	)

	base := m.BaseSpeed()
	share := min(base/m.MaxSpeed, 1)
	const span = 6.0
	torqueRegion := region("region.torque", "Constant Torque", span*share, 3, scene.Blue, scene.Point{X: -span/2 + span*share/2, Y: 0.5})
	powerRegion := region("region.power", "Constant Power", span*(1-share), 3, scene.Red, scene.Point{X: span/2 - span*(1-share)/2, Y: 0.5})
	corner := scene.NewText("corner", fmt.Sprintf("base speed %.1f krpm", base), SmallSize, scene.Yellow).At(scene.Point{Y: -1.4})
	sc.Play(
		scene.Play(scene.FadeOut(icon), scene.FadeIn(torqueRegion), scene.FadeIn(powerRegion)).Named("regions"),
		scene.Play(scene.Write(corner)),
		scene.Wait(2),
		FadeOutAll(0.8, torqueRegion, powerRegion, corner),
	)

	axes := layout.Axes{
		Origin: scene.Point{X: -5.5, Y: -2.8}, Width: 6, Height: 4.5,
		XMin: 0, XMax: m.MaxSpeed, YMin: 0, YMax: m.PeakTorque * 1.25,
	}
	frame := axes.Frame("axes", scene.Gray)
	xLabel := scene.NewText("axes.xlabel", "Speed (krpm)", SmallSize, scene.Gray).At(axes.Point(m.MaxSpeed/2, 0).Sub(scene.Point{Y: 0.4}))
	yLabel := scene.NewText("axes.ylabel", "Torque (Nm)", SmallSize, scene.Gray).At(axes.Point(0, axes.YMax).Add(scene.Point{X: 0.9, Y: 0.35}))
	curve, err := axes.Plot("torque", m.Torque, 41, scene.Blue)
	if err != nil {
		return nil, nil, err
	}
	dot := scene.NewDot("operating", scene.Yellow).At(axes.Point(0, m.Torque(0)))
	formula := scene.NewText("formula", "P = T x w", BodySize, scene.White).At(scene.Point{X: 3.8, Y: 1.8})
	sc.Play(
		scene.Play(scene.Create(frame), scene.Write(xLabel), scene.Write(yLabel)).Named("axes"),
		scene.Play(scene.Create(curve), scene.Create(dot)).Named("curve"),
		scene.Play(scene.Write(formula)),
	)

	readoutAt := scene.Point{X: 3.8, Y: 0.8}
	readout := func(s MotorSample) *scene.Object {
		return scene.NewText(fmt.Sprintf("readout%d", s.Index),
			fmt.Sprintf("n %4.1f krpm  T %4.2f Nm  P %5.2f kW", s.Speed, s.Torque, s.Power),
			SmallSize, scene.Green).At(readoutAt)
	}
	var shown *scene.Object
	out, err := TraceMotor(m, samples, func(s MotorSample) {
		next := readout(s)
		if shown == nil {
			shown = next
			sc.Play(scene.Play(scene.Write(shown)).For(0.6).Named("readout"))
			return
		}
		sc.Play(scene.Play(
			scene.MoveTo(dot, axes.Point(s.Speed, s.Torque)),
			scene.Transform(shown, next),
		).For(3 / float64(samples)).Eased("linear").Named(fmt.Sprintf("speed %d", s.Index)))
	})
	if err != nil {
		return nil, nil, err
	}

	peak := PeakPower(out)
	peakText := scene.NewText("peak", fmt.Sprintf("Peak power %.2f kW at %.1f krpm", peak.Power, peak.Speed), BodySize, scene.Yellow).
		At(scene.Point{X: 3.8, Y: 0.1})
	sc.Play(scene.Play(scene.Write(peakText)), scene.Wait(2))
	sc.Play(FadeOutAll(1, frame, xLabel, yLabel, curve, dot, formula, shown, peakText))

	last := out[len(out)-1]
	emfTitle := scene.NewText("emf.title", "Back EMF Generation", BodySize, scene.White).At(scene.Point{Y: 2.2})
	stator := scene.NewCircle("emf.stator", 1, scene.Style{Stroke: scene.White, StrokeWidth: 0.04, Opacity: 1}).At(scene.Point{X: -2})
	north := scene.NewText("emf.n", "N", BodySize, scene.Red).At(scene.Point{X: -0.7})
	south := scene.NewText("emf.s", "S", BodySize, scene.Blue).At(scene.Point{X: -3.3})
	conductor := scene.NewGroup("emf.conductor",
		scene.NewLine("emf.conductor.wire", scene.Point{Y: -2}, scene.Yellow).At(scene.Point{Y: 1}),
	).At(scene.Point{X: -2})
	meter := scene.NewRect("emf.meter", 2.4, 1, scene.DefaultStyle()).At(scene.Point{X: 2.5})
	volts := func(name string, v float64) *scene.Object {
		return scene.NewText(name, fmt.Sprintf("%.1f V", v), BodySize, scene.Green).At(scene.Point{X: 2.5})
	}
	zero := volts("emf.value", 0)
	law := scene.NewText("emf.law", fmt.Sprintf("E = k w = %.3f x %.0f rad/s", m.BackEMF, last.Omega), SmallSize, scene.White).
		At(scene.Point{X: 2.5, Y: -1})
	sc.Play(
		scene.Play(scene.Write(emfTitle)),
		scene.Play(scene.Create(stator), scene.FadeIn(north), scene.FadeIn(south), scene.Create(conductor), scene.Create(meter), scene.FadeIn(zero)),
		scene.Play(
			scene.Rotate(conductor, 720),
			scene.Transform(zero, volts("emf.value.max", last.EMF)),
		).For(3).Named("spin up"),
		scene.Play(scene.Write(law)),
		scene.Wait(2),
		FadeOutAll(1, title, emfTitle, stator, north, south, conductor, meter, zero, law),
	)
	return out, sc.Steps(), nil
}
