package scenes

import (
	"fmt"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/narrate"
	"github.com/ivlev/explainer/internal/scene"
)

func init() {
	register(Definition{Name: "palindrome", Description: "Two-pointer palindrome check on two examples", Build: palindrome})
	register(Definition{Name: "container-water", Description: "Container with most water, two-pointer scan", Build: containerWater})
	register(Definition{Name: "matrix-rotation", Description: "90 degree rotation by transpose and row reversal", Build: matrixRotation})
	register(Definition{Name: "matrix-rotation-layers", Description: "90 degree rotation layer by layer", Build: matrixRotationLayers})
	register(Definition{Name: "diffusion-current", Description: "Electron diffusion current J = -q D dn/dx", Build: diffusionCurrent})
	register(Definition{Name: "park-transform", Description: "Clarke and Park transforms of a balanced three phase set", Build: parkTransform})
	register(Definition{Name: "motor-characteristics", Description: "EV motor torque-speed curve, power P = T w and back EMF", Build: motorCharacteristics})
	register(Definition{Name: "ev-inverter", Description: "DC to three phase AC through sine-triangle PWM", Build: evInverter})
	register(Definition{Name: "complex-numbers", Description: "Complex plane and the polar form of 2 + j3", Build: complexNumbers})
	register(Definition{Name: "exponents", Description: "Exponential growth and RC discharge", Build: exponents})
	register(Definition{Name: "logarithms", Description: "Decibels and adding gains of a cascade", Build: logarithms})
	register(Definition{Name: "euler-formula", Description: "A phasor turning through e^(j theta) = cos + j sin", Build: eulerFormula})
	register(Definition{Name: "outro", Description: "End card with a QR code link", Build: outro})
}

// intro writes a title and an explanation list, then clears the list. The
// title stays on stage and is returned so the caller can release it.
func intro(sc *narrate.Script, heading string, lines []string) (*scene.Object, error) {
	title := narrate.Title("title", heading, scene.White)
	sc.Play(scene.Play(scene.Write(title)).Named("title"), scene.Wait(0.8))

	list, err := layout.BulletList("explain", lines, narrate.BodySize, 0.3, scene.White, scene.Point{X: -6, Y: 2.2})
	if err != nil {
		return nil, err
	}
	show := make([]scene.Action, len(list))
	for i, l := range list {
		show[i] = scene.FadeIn(l)
	}
	sc.Play(scene.Play(show...).Named("explanation"), scene.Wait(3), narrate.FadeOutAll(0.8, list...), scene.Wait(0.5))
	return title, nil
}

// example shows a colored heading with the source and normalized strings.
func example(sc *narrate.Script, heading string, color scene.Color, lines ...string) []*scene.Object {
	objs := []*scene.Object{scene.NewText("example", heading, 0.42, color).At(scene.Point{Y: 2.6})}
	for i, l := range lines {
		objs = append(objs, scene.NewText(fmt.Sprintf("example.%d", i), l, 0.34, scene.White).At(scene.Point{Y: 1.9 - 0.5*float64(i)}))
	}
	actions := make([]scene.Action, len(objs))
	for i, o := range objs {
		actions[i] = scene.Write(o)
	}
	sc.Play(scene.Play(actions...), scene.Wait(0.5))
	return objs
}

func palindrome(Options) ([]scene.Step, error) {
	var sc narrate.Script
	title, err := intro(&sc, "Palindrome Checker Visualization", []string{
		"Algorithm Explanation:",
		"1. Normalize the string: remove non-alphanumerics & convert to lowercase.",
		"2. Initialize two pointers: one at the start, one at the end.",
		"3. Compare characters from both ends.",
		"4. If a mismatch is found, return False; else, return True.",
	})
	if err != nil {
		return nil, err
	}
	sc.Play(narrate.FadeOutAll(0.8, title))

	examples := []struct {
		heading string
		color   scene.Color
		input   string
	}{
		{"Example 1: Palindrome", scene.Green, "A man, a plan, a canal: Panama"},
		{"Example 2: Not a Palindrome", scene.Red, "race a car"},
	}
	for _, ex := range examples {
		header := example(&sc, ex.heading, ex.color,
			"Original: "+ex.input, "Normalized: "+narrate.Normalize(ex.input))
		_, steps, err := narrate.PalindromeWith(ex.input, narrate.PalindromeOptions{ContinueOnMismatch: true})
		if err != nil {
			return nil, err
		}
		sc.Play(steps...)
		sc.Play(narrate.FadeOutAll(0.8, header...), scene.Wait(0.5))
	}
	return sc.Steps(), nil
}

func containerWater(Options) ([]scene.Step, error) {
	var sc narrate.Script
	title, err := intro(&sc, "Container With Most Water", []string{
		"Proof Outline:",
		"1) Start with two pointers: L at the left, R at the right.",
		"2) Compute area using the smaller value's height as the limit.",
		"3) Move the pointer at the smaller value inward to find a bigger value.",
		"4) No global maximum is missed by this approach.",
	})
	if err != nil {
		return nil, err
	}
	formula := scene.NewText("formula", "Area(i, j) = (j - i) x min(h_i, h_j)", 0.36, scene.Yellow).At(scene.Point{Y: 2.5})
	sc.Play(scene.Play(scene.Write(formula)), scene.Wait(2))

	_, steps, err := narrate.MaxArea([]int{1, 8, 6, 2, 5, 4, 8, 3, 7})
	if err != nil {
		return nil, err
	}
	sc.Play(steps...)
	sc.Play(narrate.FadeOutAll(1, title, formula))
	return sc.Steps(), nil
}

var rotationLines = []string{
	"1. Iterate over the matrix and swap A[i][j] with A[j][i].",
	"2. Reverse every row of the transposed matrix.",
}

func matrixRotation(Options) ([]scene.Step, error) {
	var sc narrate.Script
	title, err := intro(&sc, "Algorithm for 90 deg Rotation", rotationLines)
	if err != nil {
		return nil, err
	}
	sc.Play(narrate.FadeOutAll(0.8, title))

	for _, m := range [][][]int{
		{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		{{5, 1, 9, 11}, {2, 4, 8, 10}, {13, 3, 6, 7}, {15, 14, 12, 16}},
	} {
		_, steps, err := narrate.Rotation(m)
		if err != nil {
			return nil, err
		}
		sc.Play(steps...)
		sc.Play(scene.Wait(1))
	}
	return sc.Steps(), nil
}

func matrixRotationLayers(Options) ([]scene.Step, error) {
	var sc narrate.Script
	title, err := intro(&sc, "Rotating a Matrix Layer by Layer", []string{
		"Each layer is a ring of the matrix.",
		"Every position of a ring moves a quarter turn in one four-way cycle:",
		"top -> right -> bottom -> left -> top.",
	})
	if err != nil {
		return nil, err
	}
	sc.Play(narrate.FadeOutAll(0.8, title))

	_, steps, err := narrate.LayerRotation([][]int{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}, {13, 14, 15, 16}})
	if err != nil {
		return nil, err
	}
	sc.Play(steps...)
	return sc.Steps(), nil
}

func diffusionCurrent(Options) ([]scene.Step, error) {
	_, steps, err := narrate.DiffusionScene(1.6e-19, 35, 1e17, 6e16, 2e-4)
	return steps, err
}

func parkTransform(Options) ([]scene.Step, error) {
	_, steps, err := narrate.ParkScene(1, 24)
	return steps, err
}

func motorCharacteristics(Options) ([]scene.Step, error) {
	_, steps, err := narrate.MotorScene(narrate.DefaultMotor, 21)
	return steps, err
}

func evInverter(Options) ([]scene.Step, error) {
	_, steps, err := narrate.InverterScene(narrate.DefaultInverter, 36)
	return steps, err
}

func complexNumbers(Options) ([]scene.Step, error) {
	return narrate.ComplexScene(complex(2, 3))
}

func exponents(Options) ([]scene.Step, error) {
	_, steps, err := narrate.ExponentScene(5, 1)
	return steps, err
}

func logarithms(Options) ([]scene.Step, error) {
	_, steps, err := narrate.LogScene([]float64{10, 2, 0.5, 100})
	return steps, err
}

func eulerFormula(Options) ([]scene.Step, error) {
	_, steps, err := narrate.EulerScene(24)
	return steps, err
}

func outro(opts Options) ([]scene.Step, error) {
	link := opts.Link
	if link == "" {
		link = DefaultLink
	}
	if _, err := scene.QRModules(link); err != nil {
		return nil, fmt.Errorf("outro link: %w", err)
	}
	thanks := narrate.Title("thanks", "Thanks for watching!", scene.Yellow)
	qr := scene.NewQRCode("qr", link, 3).At(scene.Point{Y: -0.2})
	caption := scene.NewText("link", link, narrate.SmallSize, scene.Gray).At(layout.Below(qr, 0.4))
	return []scene.Step{
		scene.Play(scene.Write(thanks)).Named("thanks"),
		scene.Play(scene.FadeIn(qr), scene.FadeIn(caption)).Named("qr"),
		scene.Wait(3),
		narrate.FadeOutAll(1, thanks, qr, caption),
	}, nil
}
