package narrate

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/ivlev/explainer/internal/director"
	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// balance counts acquisitions and releases across steps.
func balance(steps []scene.Step) (acquired, released int) {
	for _, st := range steps {
		for _, a := range st.Actions {
			switch {
			case a.Kind.Acquires():
				acquired++
			case a.Kind.Releases():
				released++
			}
		}
	}
	return acquired, released
}

func requireClean(t *testing.T, name string, steps []scene.Step) {
	t.Helper()
	if err := director.Plan(name, steps); err != nil {
		t.Fatalf("plan %s: %v", name, err)
	}
	if a, r := balance(steps); a != r {
		t.Fatalf("%s: %d acquisitions but %d releases", name, a, r)
	}
}

func texts(steps []scene.Step) []string {
	var out []string
	for _, st := range steps {
		for _, a := range st.Actions {
			if a.Target != nil && a.Target.Kind == scene.KindText {
				out = append(out, a.Target.Text.Content)
			}
		}
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"A man, a plan, a canal: Panama", "amanaplanacanalpanama"},
		{"race a car", "raceacar"},
		{" .,", ""},
		{"No 'x' in Nixon 2024", "noxinnixon2024"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPalindromeNarration(t *testing.T) {
	tests := []struct {
		input      string
		normalized string
		palindrome bool
		verdict    string
	}{
		{"A man, a plan, a canal: Panama", "amanaplanacanalpanama", true, "palindrome"},
		{"race a car", "raceacar", false, "not a palindrome"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res, steps, err := Palindrome(tt.input)
			if err != nil {
				t.Fatalf("Palindrome failed: %v", err)
			}
			if res.Normalized != tt.normalized {
				t.Errorf("normalized %q, want %q", res.Normalized, tt.normalized)
			}
			if res.Palindrome != tt.palindrome || res.Verdict() != tt.verdict {
				t.Errorf("verdict %q, want %q", res.Verdict(), tt.verdict)
			}
			requireClean(t, "palindrome", steps)

			compares := 0
			for _, st := range steps {
				if strings.HasPrefix(st.Label, "compare ") {
					compares++
				}
			}
			if compares != res.Comparisons {
				t.Errorf("showed %d comparisons, trace made %d", compares, res.Comparisons)
			}
		})
	}
}

func TestPalindromeTracksElevenGroups(t *testing.T) {
	res, steps, err := Palindrome("race a car")
	if err != nil {
		t.Fatalf("Palindrome failed: %v", err)
	}
	// 8 cells, 2 pointers and the result label.
	if a, r := balance(steps); a != 11 || r != 11 {
		t.Errorf("acquired %d released %d, want 11 and 11", a, r)
	}
	if res.Comparisons != 4 {
		t.Errorf("stopped after %d comparisons, want 4 (e vs a)", res.Comparisons)
	}
}

func TestTracePalindromeStopsAtMismatch(t *testing.T) {
	var seen []Comparison
	ok := TracePalindrome("abca", func(c Comparison) { seen = append(seen, c) })
	if ok {
		t.Fatal("abca is not a palindrome")
	}
	if len(seen) != 2 || seen[1].Match || seen[1].A != 'b' || seen[1].B != 'c' {
		t.Errorf("unexpected comparisons %+v", seen)
	}
}

func TestTracePalindromeAllKeepsWalking(t *testing.T) {
	var seen []Comparison
	if TracePalindromeAll("xbcdba", func(c Comparison) { seen = append(seen, c) }) {
		t.Fatal("xbcdba is not a palindrome")
	}
	if len(seen) != 3 || seen[0].Match || !seen[1].Match || seen[2].Match {
		t.Errorf("unexpected comparisons %+v", seen)
	}
}

func TestPalindromeContinueOnMismatch(t *testing.T) {
	stop, short, err := Palindrome("xbcdba")
	if err != nil {
		t.Fatalf("Palindrome failed: %v", err)
	}
	all, long, err := PalindromeWith("xbcdba", PalindromeOptions{ContinueOnMismatch: true})
	if err != nil {
		t.Fatalf("PalindromeWith failed: %v", err)
	}
	if stop.Palindrome || all.Palindrome {
		t.Error("verdict must not depend on the walk")
	}
	if stop.Comparisons != 1 || all.Comparisons != 3 {
		t.Errorf("comparisons = %d and %d, want 1 and 3", stop.Comparisons, all.Comparisons)
	}
	if len(long) <= len(short) {
		t.Errorf("full walk has %d steps, early exit %d", len(long), len(short))
	}
	if err := director.Plan("xbcdba", long); err != nil {
		t.Errorf("Plan failed: %v", err)
	}
}

func TestPalindromeEmpty(t *testing.T) {
	if _, _, err := Palindrome("?!"); !errors.Is(err, layout.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestMaxArea(t *testing.T) {
	heights := []int{1, 8, 6, 2, 5, 4, 8, 3, 7}

	var candidates []Candidate
	res, err := TraceMaxArea(heights, func(p Candidate) { candidates = append(candidates, p) })
	if err != nil {
		t.Fatalf("TraceMaxArea failed: %v", err)
	}
	if res.Best != 49 || res.Left != 1 || res.Right != 8 {
		t.Errorf("best %d at %d,%d, want 49 at 1,8", res.Best, res.Left, res.Right)
	}
	if len(candidates) != len(heights)-1 {
		t.Errorf("%d candidates, want %d", len(candidates), len(heights)-1)
	}
	for _, p := range candidates {
		if p.Area != p.Width*p.Height || p.Best > res.Best {
			t.Errorf("inconsistent candidate %+v", p)
		}
	}

	narrated, steps, err := MaxArea(heights)
	if err != nil {
		t.Fatalf("MaxArea failed: %v", err)
	}
	if narrated != res {
		t.Errorf("narration reported %+v, trace %+v", narrated, res)
	}
	requireClean(t, "container", steps)

	found := false
	for _, s := range texts(steps) {
		if s == "Max Area Found: 49" {
			found = true
		}
	}
	if !found {
		t.Error("result label should show the traced maximum")
	}
}

func TestMaxAreaTooShort(t *testing.T) {
	if _, err := TraceMaxArea([]int{3}, nil); !errors.Is(err, layout.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRotation(t *testing.T) {
	m := [][]int{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}

	res, steps, err := Rotation(m)
	if err != nil {
		t.Fatalf("Rotation failed: %v", err)
	}
	if want := [][]int{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}; !reflect.DeepEqual(res.Transposed, want) {
		t.Errorf("transposed %v, want %v", res.Transposed, want)
	}
	if want := [][]int{{7, 4, 1}, {8, 5, 2}, {9, 6, 3}}; !reflect.DeepEqual(res.Rotated, want) {
		t.Errorf("rotated %v, want %v", res.Rotated, want)
	}
	if m[0][1] != 2 {
		t.Error("input matrix was modified")
	}
	if res.Swaps != 6 {
		t.Errorf("%d swaps, want 6", res.Swaps)
	}
	requireClean(t, "rotation", steps)
}

func TestRotationRejectsNonSquare(t *testing.T) {
	_, _, err := Rotation([][]int{{1, 2, 3}, {4, 5, 6}})
	if !errors.Is(err, layout.ErrNotSquare) {
		t.Errorf("expected ErrNotSquare, got %v", err)
	}
	if _, err := TraceLayerRotation([][]int{{1, 2}, {3}}, nil); !errors.Is(err, layout.ErrRagged) {
		t.Errorf("expected ErrRagged, got %v", err)
	}
}

func TestLayerRotationMatchesTranspose(t *testing.T) {
	for n := 1; n <= 6; n++ {
		m := make([][]int, n)
		for i := range m {
			m[i] = make([]int, n)
			for j := range m[i] {
				m[i][j] = i*n + j + 1
			}
		}

		res, err := TraceRotation(m, nil)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		cycles := 0
		layered, err := TraceLayerRotation(m, func(Cycle) { cycles++ })
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !reflect.DeepEqual(layered, res.Rotated) {
			t.Errorf("n=%d: layer rotation %v, transpose rotation %v", n, layered, res.Rotated)
		}
		if want := (n / 2) * ((n + 1) / 2); cycles != want {
			t.Errorf("n=%d: %d cycles, want %d", n, cycles, want)
		}
	}

	rotated, steps, err := LayerRotation([][]int{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}, {13, 14, 15, 16}})
	if err != nil {
		t.Fatalf("LayerRotation failed: %v", err)
	}
	if rotated[0][0] != 13 || rotated[3][3] != 4 {
		t.Errorf("unexpected rotation %v", rotated)
	}
	requireClean(t, "layers", steps)
}

func TestDiffusionCurrent(t *testing.T) {
	d, err := DiffusionCurrent(1.6e-19, 35, 1e17, 6e16, 2e-4)
	if err != nil {
		t.Fatalf("DiffusionCurrent failed: %v", err)
	}
	if math.Abs(d.Gradient/-2e20-1) > 1e-12 {
		t.Errorf("gradient %g, want -2e20", d.Gradient)
	}
	if math.Abs(d.CurrentDensity-1120) > 1e-6 {
		t.Errorf("current density %g, want 1120", d.CurrentDensity)
	}

	if _, err := DiffusionCurrent(1.6e-19, 35, 1e17, 6e16, 0); err == nil {
		t.Error("expected error for zero distance")
	}
}

func TestDiffusionNarrationUsesComputedValues(t *testing.T) {
	_, steps, err := DiffusionScene(1.6e-19, 35, 1e17, 6e16, 2e-4)
	if err != nil {
		t.Fatalf("DiffusionScene failed: %v", err)
	}
	requireClean(t, "diffusion", steps)

	all := strings.Join(texts(steps), "\n")
	for _, want := range []string{"= -2 x 10^20 cm^-4", "= 1120 A/cm^2", "over 2 um"} {
		if !strings.Contains(all, want) {
			t.Errorf("narration lacks %q", want)
		}
	}
}

func TestSci(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1120, "1120"},
		{35, "35"},
		{-2e20, "-2 x 10^20"},
		{6e16, "6 x 10^16"},
		{1.6e-19, "1.6 x 10^-19"},
	}
	for _, tt := range tests {
		if got := Sci(tt.in); got != tt.want {
			t.Errorf("Sci(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParkBalancedInput(t *testing.T) {
	samples, err := TracePark(1.5, 24, nil)
	if err != nil {
		t.Fatalf("TracePark failed: %v", err)
	}
	for _, s := range samples {
		if math.Abs(s.A+s.B+s.C) > 1e-9 {
			t.Errorf("sample %d is not balanced: %v", s.Index, s.A+s.B+s.C)
		}
		if math.Abs(s.D-1.5) > 1e-9 || math.Abs(s.Q) > 1e-9 {
			t.Errorf("sample %d: d=%.6f q=%.6f, want 1.5 and 0", s.Index, s.D, s.Q)
		}
		if math.Abs(math.Hypot(s.Alpha, s.Beta)-1.5) > 1e-9 {
			t.Errorf("sample %d: alpha-beta magnitude %.6f", s.Index, math.Hypot(s.Alpha, s.Beta))
		}
	}
}

func TestClarkePark(t *testing.T) {
	alpha, beta := Clarke(1, -0.5, -0.5)
	if math.Abs(alpha-1) > 1e-12 || math.Abs(beta) > 1e-12 {
		t.Errorf("Clarke(1, -0.5, -0.5) = %v, %v", alpha, beta)
	}
	d, q := Park(0, 1, math.Pi/2)
	if math.Abs(d-1) > 1e-12 || math.Abs(q) > 1e-12 {
		t.Errorf("Park(0, 1, pi/2) = %v, %v", d, q)
	}
}

func TestParkScene(t *testing.T) {
	samples, steps, err := ParkScene(1, 12)
	if err != nil {
		t.Fatalf("ParkScene failed: %v", err)
	}
	if len(samples) != 12 {
		t.Errorf("%d samples, want 12", len(samples))
	}
	requireClean(t, "park", steps)

	turned := 0.0
	for _, st := range steps {
		for _, a := range st.Actions {
			if a.Kind == scene.ActRotate && a.Target.Name == "vector" {
				turned += a.Degrees
			}
		}
	}
	if math.Abs(turned-330) > 1e-9 {
		t.Errorf("vector turned %.3f degrees, want 330", turned)
	}
}

func TestTraceMotorPeakPower(t *testing.T) {
	var visited int
	samples, err := TraceMotor(DefaultMotor, 21, func(MotorSample) { visited++ })
	if err != nil {
		t.Fatalf("TraceMotor failed: %v", err)
	}
	if visited != 21 || len(samples) != 21 {
		t.Fatalf("visited %d, returned %d, want 21", visited, len(samples))
	}
	if samples[0].Speed != 0 || samples[20].Speed != 10 {
		t.Errorf("speed range %.2f..%.2f, want 0..10", samples[0].Speed, samples[20].Speed)
	}
	peak := PeakPower(samples)
	if peak.Speed != 5 {
		t.Errorf("peak at %.2f krpm, want 5", peak.Speed)
	}
	want := 8 / math.E * AngularSpeed(5) / 1000
	if math.Abs(peak.Power-want) > 1e-9 {
		t.Errorf("peak power %.6f kW, want %.6f", peak.Power, want)
	}
	if math.Abs(samples[20].EMF-AngularSpeed(10)*0.01) > 1e-9 {
		t.Errorf("EMF at max speed %.4f V", samples[20].EMF)
	}
}

func TestTraceMotorRejectsBadInput(t *testing.T) {
	if _, err := TraceMotor(Motor{PeakTorque: 8, MaxSpeed: 10}, 21, nil); err == nil {
		t.Error("zero decay accepted")
	}
	if _, err := TraceMotor(DefaultMotor, 1, nil); err == nil {
		t.Error("single sample accepted")
	}
	if _, _, err := MotorScene(Motor{}, 21); err == nil {
		t.Error("MotorScene accepted an empty motor")
	}
}

func TestMotorScene(t *testing.T) {
	samples, steps, err := MotorScene(DefaultMotor, 21)
	if err != nil {
		t.Fatalf("MotorScene failed: %v", err)
	}
	if len(samples) != 21 {
		t.Errorf("%d samples, want 21", len(samples))
	}
	requireClean(t, "motor-characteristics", steps)
	found := false
	for _, s := range texts(steps) {
		if strings.HasPrefix(s, "Peak power 1.54 kW at 5.0 krpm") {
			found = true
		}
	}
	if !found {
		t.Error("peak power text not shown")
	}
}

func TestPolarAndFormat(t *testing.T) {
	r, deg := Polar(2 + 3i)
	if math.Abs(r-math.Sqrt(13)) > 1e-12 || math.Abs(deg-56.30993247402021) > 1e-9 {
		t.Errorf("Polar(2+3i) = %.6f, %.6f", r, deg)
	}
	tests := []struct {
		z    complex128
		want string
	}{
		{2 + 3i, "2 + j3"},
		{1.5 - 2i, "1.5 - j2"},
		{-4, "-4 + j0"},
	}
	for _, tt := range tests {
		if got := FormatComplex(tt.z); got != tt.want {
			t.Errorf("FormatComplex(%v) = %q, want %q", tt.z, got, tt.want)
		}
	}
}

func TestDecibels(t *testing.T) {
	db, err := Decibels(10, 1)
	if err != nil || math.Abs(db-20) > 1e-12 {
		t.Errorf("Decibels(10, 1) = %v, %v", db, err)
	}
	if _, err := Decibels(0, 1); err == nil {
		t.Error("zero output accepted")
	}
	if _, err := Decibels(1, -1); err == nil {
		t.Error("negative input accepted")
	}
}

func TestTraceGainsSumMatchesProduct(t *testing.T) {
	stages, err := TraceGains([]float64{10, 2, 0.5, 100}, nil)
	if err != nil {
		t.Fatalf("TraceGains failed: %v", err)
	}
	for _, g := range stages {
		if math.Abs(g.Sum-20*math.Log10(g.Total)) > 1e-9 {
			t.Errorf("stage %d: sum %.6f dB, product %.6f", g.Index, g.Sum, g.Total)
		}
	}
	if last := stages[len(stages)-1]; math.Abs(last.Sum-60) > 1e-9 {
		t.Errorf("cascade gain %.6f dB, want 60", last.Sum)
	}
	if _, err := TraceGains(nil, nil); !errors.Is(err, layout.ErrEmptyInput) {
		t.Errorf("empty cascade: %v", err)
	}
	if _, err := TraceGains([]float64{2, 0}, nil); err == nil {
		t.Error("zero ratio accepted")
	}
}

func TestTraceDischarge(t *testing.T) {
	samples, err := TraceDischarge(5, 1, 5, 21, nil)
	if err != nil {
		t.Fatalf("TraceDischarge failed: %v", err)
	}
	if s := samples[4]; math.Abs(s.T-1) > 1e-12 || math.Abs(s.V-5/math.E) > 1e-12 {
		t.Errorf("sample at one time constant: t=%.6f v=%.6f", s.T, s.V)
	}
	if _, err := TraceDischarge(5, 0, 5, 21, nil); err == nil {
		t.Error("zero time constant accepted")
	}
}

func TestTraceEulerBothSidesAgree(t *testing.T) {
	samples, err := TraceEuler(24, nil)
	if err != nil {
		t.Fatalf("TraceEuler failed: %v", err)
	}
	if len(samples) != 25 {
		t.Fatalf("%d samples, want 25", len(samples))
	}
	for _, s := range samples {
		if d := math.Hypot(real(s.Value)-s.Cos, imag(s.Value)-s.Sin); d > 1e-12 {
			t.Errorf("sample %d: sides differ by %g", s.Index, d)
		}
	}
	if _, err := TraceEuler(0, nil); err == nil {
		t.Error("zero samples accepted")
	}
}

func TestSignalScenes(t *testing.T) {
	steps, err := ComplexScene(2 + 3i)
	if err != nil {
		t.Fatalf("ComplexScene failed: %v", err)
	}
	requireClean(t, "complex-numbers", steps)
	if _, err := ComplexScene(9 + 1i); err == nil {
		t.Error("point outside the plane accepted")
	}

	decay, steps, err := ExponentScene(5, 1)
	if err != nil {
		t.Fatalf("ExponentScene failed: %v", err)
	}
	if len(decay) != 21 {
		t.Errorf("%d decay samples, want 21", len(decay))
	}
	requireClean(t, "exponents", steps)

	gains, steps, err := LogScene([]float64{10, 2, 0.5, 100})
	if err != nil {
		t.Fatalf("LogScene failed: %v", err)
	}
	if len(gains) != 4 {
		t.Errorf("%d gain stages, want 4", len(gains))
	}
	requireClean(t, "logarithms", steps)

	phasors, steps, err := EulerScene(24)
	if err != nil {
		t.Fatalf("EulerScene failed: %v", err)
	}
	if len(phasors) != 25 {
		t.Errorf("%d phasors, want 25", len(phasors))
	}
	requireClean(t, "euler-formula", steps)
}

func TestTraceInverter(t *testing.T) {
	inv := DefaultInverter
	samples, err := TraceInverter(inv, 36, nil)
	if err != nil {
		t.Fatalf("TraceInverter failed: %v", err)
	}
	half := inv.DC / 2
	for _, s := range samples {
		sum := s.Average[0] + s.Average[1] + s.Average[2]
		if math.Abs(sum) > 1e-9 {
			t.Errorf("sample %d: averages sum to %g", s.Index, sum)
		}
		if s.Carrier < -1 || s.Carrier > 1 {
			t.Errorf("sample %d: carrier %g out of range", s.Index, s.Carrier)
		}
		for leg := range 3 {
			want := -half
			if s.Upper[leg] {
				want = half
			}
			if s.Pole[leg] != want {
				t.Errorf("sample %d leg %d: pole %g with upper=%v", s.Index, leg, s.Pole[leg], s.Upper[leg])
			}
			if s.Upper[leg] != (s.Reference[leg] >= s.Carrier) {
				t.Errorf("sample %d leg %d: switch disagrees with comparator", s.Index, leg)
			}
			if math.Abs(s.Average[leg]) > inv.PeakPhase()+1e-9 {
				t.Errorf("sample %d leg %d: average %g above peak", s.Index, leg, s.Average[leg])
			}
		}
		if s.LineAB != s.Pole[0]-s.Pole[1] {
			t.Errorf("sample %d: Vab %g", s.Index, s.LineAB)
		}
	}

	bad := []Inverter{
		{DC: 0, Modulation: 0.9, CarrierRatio: 9},
		{DC: 400, Modulation: 1.2, CarrierRatio: 9},
		{DC: 400, Modulation: 0.9},
	}
	for _, b := range bad {
		if _, err := TraceInverter(b, 36, nil); err == nil {
			t.Errorf("%+v accepted", b)
		}
	}
	if _, err := TraceInverter(inv, 0, nil); err == nil {
		t.Error("zero samples accepted")
	}
}

func TestInverterScene(t *testing.T) {
	samples, steps, err := InverterScene(DefaultInverter, 36)
	if err != nil {
		t.Fatalf("InverterScene failed: %v", err)
	}
	if len(samples) != 36 {
		t.Errorf("%d samples, want 36", len(samples))
	}
	requireClean(t, "ev-inverter", steps)

	turned := 0.0
	for _, st := range steps {
		for _, a := range st.Actions {
			if a.Kind == scene.ActRotate && a.Target.Name == "field" {
				turned += a.Degrees
			}
		}
	}
	if math.Abs(turned-350) > 1e-9 {
		t.Errorf("field turned %.3f degrees, want 350", turned)
	}
}
