package easing

import (
	"math"
	"testing"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"", "linear", "Smooth", " in_out_sine "} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) failed: %v", name, err)
		}
	}

	if _, err := Lookup("wobble"); err == nil {
		t.Error("expected error for unknown easing")
	}
}

func TestProgressLinear(t *testing.T) {
	fn, _ := Lookup("linear")
	p := NewProgress(fn, 4)

	want := []float64{0.25, 0.5, 0.75, 1}
	for i, w := range want {
		got, ok := p.Next()
		if !ok {
			t.Fatalf("frame %d: progress ended early", i)
		}
		if math.Abs(got-w) > 1e-5 {
			t.Errorf("frame %d: got %.4f, want %.4f", i, got, w)
		}
	}

	if _, ok := p.Next(); ok {
		t.Error("progress should end after the last frame")
	}
}

func TestProgressMonotonicSmooth(t *testing.T) {
	fn, _ := Lookup(Default)
	p := NewProgress(fn, 30)

	prev := 0.0
	frames := 0
	for {
		v, ok := p.Next()
		if !ok {
			break
		}
		frames++
		if v < prev {
			t.Fatalf("frame %d: progress went backwards (%.4f < %.4f)", frames, v, prev)
		}
		prev = v
	}

	if frames != 30 || prev != 1 {
		t.Errorf("got %d frames ending at %.4f, want 30 ending at 1", frames, prev)
	}
}
