package narrate

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/explainer/internal/scene"
)

// Inverter is a two-level three phase inverter driven by sine-triangle PWM.
type Inverter struct {
	DC         float64 // bus voltage
	Modulation float64 // reference amplitude over carrier amplitude, 0..1
	// CarrierRatio is the number of carrier periods per fundamental period.
	CarrierRatio float64
}

// DefaultInverter is a 400 V pack at modulation index 0.9.
var DefaultInverter = Inverter{DC: 400, Modulation: 0.9, CarrierRatio: 9}

// InverterSample is the switching state at one electrical angle.
type InverterSample struct {
	Index     int
	Theta     float64
	Reference [3]float64
	Carrier   float64
	// Upper reports which upper switch of each leg conducts; the lower
	// switch of the leg is its complement.
	Upper [3]bool
	// Pole is the switched leg voltage against the DC midpoint, Average
	// its fundamental.
	Pole    [3]float64
	Average [3]float64
	LineAB  float64
}

// triangle is a unit carrier in [-1, 1] at phase p periods.
func triangle(p float64) float64 {
	_, frac := math.Modf(p)
	if frac < 0 {
		frac++
	}
	return 1 - 4*math.Abs(frac-0.5)
}

// TraceInverter samples one fundamental period. A leg's upper switch
// conducts while its reference is above the carrier.
func TraceInverter(inv Inverter, samples int, visit func(InverterSample)) ([]InverterSample, error) {
	if inv.DC <= 0 || inv.Modulation < 0 || inv.Modulation > 1 || inv.CarrierRatio <= 0 {
		return nil, errors.New("inverter: need positive bus voltage, modulation in [0, 1] and a positive carrier ratio")
	}
	if samples < 1 {
		return nil, errors.New("inverter: need at least one sample")
	}
	half := inv.DC / 2
	out := make([]InverterSample, 0, samples)
	for k := 0; k < samples; k++ {
		theta := 2 * math.Pi * float64(k) / float64(samples)
		s := InverterSample{Index: k, Theta: theta, Carrier: triangle(theta / (2 * math.Pi) * inv.CarrierRatio)}
		for leg := range 3 {
			ref := inv.Modulation * math.Sin(theta-float64(leg)*2*math.Pi/3)
			s.Reference[leg] = ref
			s.Upper[leg] = ref >= s.Carrier
			s.Pole[leg] = -half
			if s.Upper[leg] {
				s.Pole[leg] = half
			}
			s.Average[leg] = ref * half
		}
		s.LineAB = s.Pole[0] - s.Pole[1]
		if visit != nil {
			visit(s)
		}
		out = append(out, s)
	}
	return out, nil
}

// PeakPhase is the amplitude of the phase voltage fundamental.
func (inv Inverter) PeakPhase() float64 {
	return inv.Modulation * inv.DC / 2
}

var phaseColors = [3]scene.Color{scene.Red, scene.Green, scene.Blue}

// phaseBar is a bar of height v scaled by unit standing on baseline.
func phaseBar(name string, v, unit float64, x, baseline float64, color scene.Color) *scene.Object {
	h := v * unit
	return scene.NewRect(name, 0.4, math.Abs(h), scene.Filled(color.WithAlpha(0.7))).
		At(scene.Point{X: x, Y: baseline + h/2})
}

// InverterScene narrates DC to three phase AC conversion: the battery feeds
// three switching legs whose PWM averages to a balanced sine set that turns
// the motor field.
func InverterScene(inv Inverter, samples int) ([]InverterSample, []scene.Step, error) {
	var sc Script

	title := Title("title", "EV Inverter Operation", scene.Blue)
	subtitle := scene.NewText("subtitle", "DC to 3-Phase AC Conversion", BodySize, scene.Gray).At(scene.Point{Y: TitleY - 0.6})
	sc.Play(scene.Play(scene.Write(title), scene.Write(subtitle)), scene.Wait(1))

	battery := scene.NewGroup("battery",
		scene.NewRect("battery.case", 2.4, 1.6, scene.Style{Fill: scene.Blue.WithAlpha(0.2), Stroke: scene.Blue, StrokeWidth: 0.04, Opacity: 1}),
		scene.NewText("battery.label", fmt.Sprintf("%.0fV DC", inv.DC), SmallSize, scene.White),
	).At(scene.Point{X: -4.5, Y: 0.8})

	// Legs are columns, upper switches on top.
	inverter := scene.NewGroup("inverter",
		scene.NewRect("inverter.case", 2.4, 2.2, scene.Style{Fill: scene.Green.WithAlpha(0.1), Stroke: scene.Green, StrokeWidth: 0.04, Opacity: 1}),
		scene.NewText("inverter.label", "IGBT Inverter", SmallSize, scene.Green).At(scene.Point{Y: 1.35}),
	).At(scene.Point{Y: 0.8})
	var upper, lower [3]*scene.Object
	for leg := range 3 {
		x := float64(leg-1) * 0.7
		upper[leg] = scene.NewSquare(fmt.Sprintf("switch.%d.upper", leg), 0.4, scene.Filled(scene.Gray)).At(scene.Point{X: x, Y: 0.5})
		lower[leg] = scene.NewSquare(fmt.Sprintf("switch.%d.lower", leg), 0.4, scene.Filled(scene.Gray)).At(scene.Point{X: x, Y: -0.5})
		inverter.Add(upper[leg])
		inverter.Add(lower[leg])
	}

	stator := scene.NewCircle("motor", 0.9, scene.Style{Stroke: scene.Yellow, StrokeWidth: 0.04, Opacity: 1}).At(scene.Point{X: 4.5, Y: 0.8})
	field := scene.NewArrow("field", scene.Point{Y: 0.75}, scene.Yellow).At(stator.Position)
	motorLabel := scene.NewText("motor.label", "3-Phase Motor", SmallSize, scene.Yellow).At(scene.Point{X: 4.5, Y: -0.4})
	dcLine := scene.NewLine("dc.line", scene.Point{X: 1.8}, scene.Blue).At(scene.Point{X: -3.3, Y: 0.8})
	acLine := scene.NewLine("ac.line", scene.Point{X: 2.4}, scene.Yellow).At(scene.Point{X: 1.2, Y: 0.8})
	flow := scene.NewArrow("dc.flow", scene.Point{X: 0.5}, scene.Blue).At(scene.Point{X: -3.3, Y: 1.0})
	sc.Play(
		scene.Play(scene.FadeIn(battery), scene.FadeIn(inverter)).For(1.5).Named("components"),
		scene.Play(scene.Create(dcLine), scene.Create(flow)),
		scene.Play(scene.Shift(flow, scene.Point{X: 1.3})).For(1.5).Eased("linear").Named("dc flow"),
		scene.Play(scene.FadeOut(flow), scene.Create(stator), scene.Create(field), scene.Write(motorLabel), scene.Create(acLine)),
	)

	const baseline, barUnit = -2.2, 1.0 / 250
	labels := make([]*scene.Object, 3)
	bars := make([]*scene.Object, 3)
	var slots [3]float64
	for leg := range 3 {
		slots[leg] = -1.2 + float64(leg)*1.2
		labels[leg] = scene.NewText(fmt.Sprintf("phase.%d.label", leg), string(rune('a'+leg)), SmallSize, phaseColors[leg]).
			At(scene.Point{X: slots[leg], Y: baseline - 0.95})
		bars[leg] = phaseBar(fmt.Sprintf("phase.%d", leg), 0, barUnit, slots[leg], baseline, phaseColors[leg])
	}
	axis := scene.NewLine("phase.axis", scene.Point{X: 3.6}, scene.Gray).At(scene.Point{X: -1.8, Y: baseline})
	show := []scene.Action{scene.Create(axis)}
	for leg := range 3 {
		show = append(show, scene.FadeIn(labels[leg]), scene.FadeIn(bars[leg]))
	}
	sc.Play(scene.Play(show...).Named("phases"))

	readoutAt := scene.Point{X: 4.2, Y: -2.2}
	readout := func(s InverterSample) *scene.Object {
		return scene.NewText(fmt.Sprintf("readout%d", s.Index),
			fmt.Sprintf("Vab %+4.0f V", s.LineAB), SmallSize, scene.White).At(readoutAt)
	}
	var shown *scene.Object
	prev := 0.0
	out, err := TraceInverter(inv, samples, func(s InverterSample) {
		var acts []scene.Action
		for leg := range 3 {
			on, off := scene.Green, scene.Gray
			if !s.Upper[leg] {
				on, off = off, on
			}
			acts = append(acts,
				scene.Recolor(upper[leg], on),
				scene.Recolor(lower[leg], off),
				scene.Transform(bars[leg], phaseBar(fmt.Sprintf("phase.%d.%d", leg, s.Index), s.Average[leg], barUnit,
					slots[leg], baseline, phaseColors[leg])),
			)
		}
		next := readout(s)
		if shown == nil {
			shown = next
			acts = append(acts, scene.Write(shown))
		} else {
			acts = append(acts, scene.Transform(shown, next))
		}
		// the field turns with the electrical angle
		delta := (s.Theta - prev) * 180 / math.Pi
		prev = s.Theta
		if delta != 0 {
			acts = append(acts, scene.Rotate(field, delta))
		}
		sc.Play(scene.Play(acts...).For(4 / float64(samples)).Eased("linear").Named(fmt.Sprintf("theta %d", s.Index)))
	})
	if err != nil {
		return nil, nil, err
	}

	summary := scene.NewText("summary",
		fmt.Sprintf("%.0fV DC in, %.0f V peak per phase at m = %.2f", inv.DC, inv.PeakPhase(), inv.Modulation),
		BodySize, scene.White).At(scene.Point{Y: -3.7})
	sc.Play(
		scene.Play(scene.Write(summary)),
		scene.Wait(3),
		FadeOutAll(1, append([]*scene.Object{title, subtitle, battery, inverter, stator, field, motorLabel, dcLine, acLine, axis, shown, summary},
			append(labels, bars...)...)...),
	)
	return out, sc.Steps(), nil
}
