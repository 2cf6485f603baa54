package narrate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// Normalize keeps letters and digits, lowercased.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Comparison is one two-pointer comparison of a palindrome check.
type Comparison struct {
	Left, Right int
	A, B        rune
	Match       bool
}

// TracePalindrome runs the two-pointer check over the runes of s and
// reports every comparison to visit. It stops at the first mismatch.
func TracePalindrome(s string, visit func(Comparison)) bool {
	return tracePalindrome(s, false, visit)
}

// TracePalindromeAll is TracePalindrome without the early exit: every pair
// up to the middle is compared.
func TracePalindromeAll(s string, visit func(Comparison)) bool {
	return tracePalindrome(s, true, visit)
}

func tracePalindrome(s string, all bool, visit func(Comparison)) bool {
	runes := []rune(s)
	ok := true
	for l, r := 0, len(runes)-1; l < r; l, r = l+1, r-1 {
		c := Comparison{Left: l, Right: r, A: runes[l], B: runes[r], Match: runes[l] == runes[r]}
		if visit != nil {
			visit(c)
		}
		if !c.Match {
			ok = false
			if !all {
				break
			}
		}
	}
	return ok
}

// PalindromeOptions tunes the palindrome narration.
type PalindromeOptions struct {
	// ContinueOnMismatch keeps the pointers walking after a mismatch and
	// colors every remaining pair.
	ContinueOnMismatch bool
}

// PalindromeResult is what the palindrome narration established.
type PalindromeResult struct {
	Input       string
	Normalized  string
	Palindrome  bool
	Comparisons int
}

// Verdict is the sentence shown for the result.
func (r PalindromeResult) Verdict() string {
	if r.Palindrome {
		return "palindrome"
	}
	return "not a palindrome"
}

const (
	cellSide   = 0.5
	cellGap    = 0.1
	pointerLen = 0.4
)

// pointerAt builds an upward arrow ending just under cell.
func pointerAt(name string, cell *scene.Object) *scene.Object {
	tip := layout.Below(cell, 0.05)
	return scene.NewArrow(name, scene.Point{Y: pointerLen}, scene.Yellow).At(tip.Sub(scene.Point{Y: pointerLen}))
}

// Palindrome narrates the check of input: one cell per normalized rune, two
// pointers walking inwards and a result label. Every object it shows is
// faded out by its last step.
func Palindrome(input string) (PalindromeResult, []scene.Step, error) {
	return PalindromeWith(input, PalindromeOptions{})
}

// PalindromeWith is Palindrome with options.
func PalindromeWith(input string, opts PalindromeOptions) (PalindromeResult, []scene.Step, error) {
	res := PalindromeResult{Input: input, Normalized: Normalize(input)}
	runes := []rune(res.Normalized)
	if len(runes) == 0 {
		return res, nil, fmt.Errorf("palindrome %q: %w", input, layout.ErrEmptyInput)
	}

	cells := make([]*scene.Object, len(runes))
	for i, r := range runes {
		cells[i] = Cell(fmt.Sprintf("cell%d", i), string(r), cellSide, scene.Blue)
	}
	pos, err := layout.ArrangeSequence(cells, layout.Right, cellGap, scene.Point{})
	if err != nil {
		return res, nil, fmt.Errorf("palindrome %q: %w", input, err)
	}
	layout.Apply(cells, pos)

	var sc Script
	enter := make([]scene.Action, len(cells))
	for i, c := range cells {
		enter[i] = scene.FadeIn(c)
	}
	sc.Play(scene.Play(enter...).Named("cells"), scene.Wait(0.5))

	left := pointerAt("left", cells[0])
	right := pointerAt("right", cells[len(cells)-1])
	sc.Play(scene.Play(scene.Create(left), scene.Create(right)).For(0.5).Named("pointers"), scene.Wait(0.5))

	res.Palindrome = tracePalindrome(res.Normalized, opts.ContinueOnMismatch, func(c Comparison) {
		res.Comparisons++
		a, b := Box(cells[c.Left]), Box(cells[c.Right])
		sc.Play(
			scene.Play(scene.Recolor(a, scene.Red.WithAlpha(0.8)), scene.Recolor(b, scene.Red.WithAlpha(0.8))).
				For(0.5).Named(fmt.Sprintf("compare %d,%d", c.Left, c.Right)),
			scene.Wait(0.3),
		)
		verdict := scene.Green
		if !c.Match {
			verdict = scene.Orange
		}
		sc.Play(
			scene.Play(scene.Recolor(a, verdict.WithAlpha(0.8)), scene.Recolor(b, verdict.WithAlpha(0.8))).For(0.5),
			scene.Wait(0.3),
		)
		if (!c.Match && !opts.ContinueOnMismatch) || c.Left+1 >= c.Right-1 {
			return
		}
		sc.Play(
			scene.Play(
				scene.Transform(left, pointerAt("left.next", cells[c.Left+1])),
				scene.Transform(right, pointerAt("right.next", cells[c.Right-1])),
			).For(0.5).Named("advance"),
			scene.Wait(0.3),
		)
	})

	color := scene.Green
	text := "Result: It's a Palindrome!"
	if !res.Palindrome {
		color = scene.Red
		text = "Result: Not a Palindrome!"
	}
	result := scene.NewText("result", text, 0.38, color).At(scene.Point{Y: layout.Below(cells[0], 1.2).Y})
	sc.Play(scene.Play(scene.Write(result)).Named("result"), scene.Wait(2))

	all := append([]*scene.Object{}, cells...)
	all = append(all, left, right, result)
	sc.Play(FadeOutAll(0.8, all...))
	return res, sc.Steps(), nil
}
