package narrate

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// Diffusion holds the inputs and results of an electron diffusion current
// calculation in CGS units: concentrations in cm^-3, distance in cm,
// diffusivity in cm^2/s.
type Diffusion struct {
	Q, D           float64
	N1, N2         float64
	Dx             float64
	Gradient       float64 // dn/dx in cm^-4
	CurrentDensity float64 // J_n in A/cm^2
}

// DiffusionCurrent computes J_n = -q D_n dn/dx for a concentration falling
// linearly from n1 to n2 over dx.
func DiffusionCurrent(q, diffusivity, n1, n2, dx float64) (Diffusion, error) {
	if dx <= 0 || math.IsNaN(dx) {
		return Diffusion{}, errors.New("diffusion: distance must be positive")
	}
	d := Diffusion{Q: q, D: diffusivity, N1: n1, N2: n2, Dx: dx}
	d.Gradient = (n2 - n1) / dx
	d.CurrentDensity = -q * diffusivity * d.Gradient
	return d, nil
}

// Sci formats v as "m x 10^e" with a short mantissa, or plainly when the
// exponent is small.
func Sci(v float64) string {
	if v == 0 {
		return "0"
	}
	exp := int(math.Floor(math.Log10(math.Abs(v))))
	if exp >= -2 && exp <= 4 {
		return strconv.FormatFloat(v, 'g', 6, 64)
	}
	mant := math.Round(v/math.Pow(10, float64(exp))*1000) / 1000
	if math.Abs(mant) >= 10 {
		mant /= 10
		exp++
	}
	return fmt.Sprintf("%s x 10^%d", strconv.FormatFloat(mant, 'f', -1, 64), exp)
}

// DiffusionScene narrates the calculation with the values it computes.
func DiffusionScene(q, diffusivity, n1, n2, dx float64) (Diffusion, []scene.Step, error) {
	d, err := DiffusionCurrent(q, diffusivity, n1, n2, dx)
	if err != nil {
		return d, nil, err
	}

	var sc Script
	question, err := layout.BulletList("question", []string{
		"Question:",
		"Calculate the electron diffusion current J_n = -q D_n dn/dx",
		fmt.Sprintf("given that n(x) decreases from %s cm^-3", Sci(n1)),
		fmt.Sprintf("to %s cm^-3 over %s um,", Sci(n2), strconv.FormatFloat(math.Round(dx*1e7)/1e3, 'f', -1, 64)),
		fmt.Sprintf("q = %s C, D_n = %s cm^2/s", Sci(q), Sci(diffusivity)),
	}, BodySize, 0.25, scene.White, scene.Point{X: -6, Y: 3.2})
	if err != nil {
		return d, nil, err
	}
	var show []scene.Action
	for _, l := range question {
		show = append(show, scene.Write(l))
	}
	sc.Play(scene.Play(show...).For(2).Named("question"), scene.Wait(3), FadeOutAll(1, question...))

	title := scene.NewText("title", "Electron Diffusion Current", TitleSize, scene.White)
	sc.Play(scene.Play(scene.Write(title)), scene.Play(scene.MoveTo(title, scene.Point{Y: TitleY})), scene.Wait(0.5))

	channel := scene.NewLine("channel", scene.Point{X: 6}, scene.Blue).At(scene.Point{X: -3, Y: 1})
	left := scene.NewText("n1", Sci(n1)+" cm^-3", SmallSize, scene.Green).At(scene.Point{X: -3, Y: 1.35})
	right := scene.NewText("n2", Sci(n2)+" cm^-3", SmallSize, scene.Red).At(scene.Point{X: 3, Y: 1.35})
	given := scene.NewText("given", "Given: n(x) decreases over the channel", SmallSize, scene.White).At(scene.Point{Y: -3})
	gradient := scene.NewArrow("gradient", scene.Point{X: 6}, scene.Yellow).At(scene.Point{X: -3, Y: 0.7})
	gradLabel := scene.NewText("gradient.label", "dn/dx", SmallSize, scene.White).At(scene.Point{Y: 0.35})
	formula := scene.NewText("formula", "J_n = -q D_n dn/dx", 0.4, scene.White).At(scene.Point{Y: 2.2})
	sc.Play(
		scene.Play(scene.Create(channel)),
		scene.Play(scene.FadeIn(left), scene.FadeIn(right)),
		scene.Play(scene.FadeIn(given)),
		scene.Wait(1),
		scene.Play(scene.Create(gradient), scene.Write(gradLabel)),
		scene.Wait(1),
		scene.Play(scene.Write(formula)),
		scene.Wait(1),
		FadeOutAll(1, channel, left, right, gradient, gradLabel, given),
		scene.Wait(0.5),
		scene.Play(scene.MoveTo(formula, scene.Point{Y: 2})),
	)

	calc1 := scene.NewText("calc1", fmt.Sprintf("dn/dx = (%s - %s) / %s", Sci(n2), Sci(n1), Sci(dx)), BodySize, scene.White).
		At(scene.Point{Y: 1.2})
	calc2 := scene.NewText("calc2", fmt.Sprintf("= %s cm^-4", Sci(d.Gradient)), BodySize, scene.White).At(scene.Point{Y: 0.6})
	final := scene.NewText("calc3", fmt.Sprintf("J_n = -(%s)(%s)(%s)", Sci(q), Sci(diffusivity), Sci(d.Gradient)), BodySize, scene.White).
		At(scene.Point{Y: -0.4})
	result := scene.NewText("result", fmt.Sprintf("= %s A/cm^2", Sci(d.CurrentDensity)), 0.4, scene.White).At(scene.Point{Y: -1.1})
	box := Surround("box", result, 0.15, scene.Green)
	sc.Play(
		scene.Play(scene.Write(calc1)), scene.Wait(1),
		scene.Play(scene.Write(calc2)), scene.Wait(1),
		scene.Play(scene.Write(final)), scene.Wait(1),
		scene.Play(scene.Write(result)), scene.Wait(0.5),
		scene.Play(scene.Create(box)), scene.Wait(1),
		FadeOutAll(1, formula, calc1, calc2, final, box),
		scene.Play(scene.MoveTo(result, scene.Point{Y: 2.5})),
		scene.Wait(0.5),
	)

	channel2 := scene.NewLine("channel2", scene.Point{X: 6}, scene.Blue).At(scene.Point{X: -3})
	electrons := scene.NewGroup("electrons")
	for i := 0; i < 8; i++ {
		electrons.Add(scene.NewDot(fmt.Sprintf("e%d", i), scene.Blue).At(scene.Point{X: 0.2 * float64(i), Y: 0.1}))
	}
	electrons.Position = scene.Point{X: -3}
	sc.Play(
		scene.Play(scene.Create(channel2)),
		scene.Play(scene.FadeIn(electrons)),
		scene.Play(scene.Shift(electrons, scene.Point{X: 5})).For(2).Eased("linear").Named("drift"),
		scene.Play(scene.Rotate(electrons, 36)),
		scene.Wait(1),
		FadeOutAll(1, title, result, channel2, electrons),
	)

	answer := scene.NewText("answer", fmt.Sprintf("Final Answer: J_n = %s A/cm^2", Sci(d.CurrentDensity)), 0.4, scene.White)
	sc.Play(
		scene.Play(scene.Write(answer)),
		scene.Play(scene.ScaleBy(answer, 1.2)),
		scene.Play(scene.ScaleBy(answer, 1/1.2)),
		scene.Wait(2),
		FadeOutAll(1, answer),
	)
	return d, sc.Steps(), nil
}
