package scene

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"blue", Blue, false},
		{" Yellow ", Yellow, false},
		{"#ff0000", Color{1, 0, 0, 1}, false},
		{"#00ff0080", Color{0, 1, 0, 128.0 / 255}, false},
		{"#zzzzzz", Color{}, true},
		{"mauve", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got.R-tt.want.R) > 1e-9 || math.Abs(got.G-tt.want.G) > 1e-9 ||
				math.Abs(got.B-tt.want.B) > 1e-9 || math.Abs(got.A-tt.want.A) > 1e-9 {
				t.Errorf("ParseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGroupBoundsAndWorldPosition(t *testing.T) {
	a := NewSquare("a", 1, DefaultStyle()).At(Point{-1, 0})
	b := NewSquare("b", 1, DefaultStyle()).At(Point{1, 0})
	g := NewGroup("row", a, b).At(Point{0, 2})

	bounds := g.Bounds()
	if bounds.Width() != 3 || bounds.Height() != 1 {
		t.Errorf("group bounds = %vx%v, want 3x1", bounds.Width(), bounds.Height())
	}

	if got := b.WorldPosition(); got != (Point{1, 2}) {
		t.Errorf("b world position = %v, want (1, 2)", got)
	}

	wb := a.WorldBounds()
	if wb.Min != (Point{-1.5, 1.5}) || wb.Max != (Point{-0.5, 2.5}) {
		t.Errorf("a world bounds = %v..%v", wb.Min, wb.Max)
	}
}

func TestAddPanicsOnReparent(t *testing.T) {
	child := NewDot("d", Red)
	NewGroup("first", child)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when adding a parented child")
		}
	}()
	NewGroup("second", child)
}

func TestActionCommit(t *testing.T) {
	sq := NewSquare("sq", 0.5, Filled(Blue))

	MoveTo(sq, Point{2, 3}).Commit()
	Shift(sq, Point{-1, 0}).Commit()
	Recolor(sq, Green).Commit()
	Rotate(sq, 90).Commit()
	Rotate(sq, 90).Commit()
	ScaleBy(sq, 2).Commit()

	if sq.Position != (Point{1, 3}) {
		t.Errorf("position = %v, want (1, 3)", sq.Position)
	}
	if sq.Style.Fill != Green {
		t.Errorf("fill = %+v, want green", sq.Style.Fill)
	}
	if sq.Angle != 180 {
		t.Errorf("angle = %v, want 180", sq.Angle)
	}
	if sq.Scale != 2 {
		t.Errorf("scale = %v, want 2", sq.Scale)
	}
}

func TestTransformKeepsIdentity(t *testing.T) {
	arrow := NewArrow("ptr", Point{0, 0.4}, Yellow)
	arrow.ID = 7
	next := NewArrow("next", Point{0, 0.4}, Yellow).At(Point{3, -1})

	Transform(arrow, next).Commit()

	if arrow.ID != 7 || arrow.Name != "ptr" {
		t.Errorf("transform changed identity: %s", arrow.Label())
	}
	if arrow.Position != (Point{3, -1}) {
		t.Errorf("position = %v, want (3, -1)", arrow.Position)
	}
	if arrow.Shape == next.Shape {
		t.Error("transform must copy the template shape, not alias it")
	}
}

func TestStepBuilders(t *testing.T) {
	d := NewDot("d", White)
	s := Play(FadeIn(d)).For(0.5).Eased("linear").Named("show dot")

	if s.Duration != 0.5 || s.Easing != "linear" || s.Label != "show dot" {
		t.Errorf("unexpected step %+v", s)
	}
	if s.IsWait() {
		t.Error("step with actions is not a wait")
	}
	if !Wait(1).IsWait() {
		t.Error("Wait should build a pause")
	}
}

func TestClone(t *testing.T) {
	g := NewGroup("cell",
		NewSquare("box", 0.5, Filled(Blue)),
		NewText("letter", "a", 0.3, White),
	)
	g.ID = 3
	c := g.Clone()

	if c.ID != 0 || c.Parent != nil {
		t.Error("clone must not carry identity")
	}
	if c.Len() != 2 || c.Child(0).Parent != c {
		t.Fatal("clone children must be reparented to the clone")
	}
	c.Child(1).Text.Content = "b"
	if g.Child(1).Text.Content != "a" {
		t.Error("clone aliases the original text")
	}
}

func TestQRModules(t *testing.T) {
	bits, err := QRModules("https://example.com")
	if err != nil {
		t.Fatalf("QRModules failed: %v", err)
	}
	if len(bits) < 21 || len(bits[0]) != len(bits) {
		t.Errorf("got %dx%d modules, want a square of at least 21", len(bits), len(bits[0]))
	}

	for _, payload := range []string{"", strings.Repeat("x", 5000)} {
		if _, err := QRModules(payload); !errors.Is(err, ErrBadPayload) {
			t.Errorf("QRModules(%d bytes) = %v, want ErrBadPayload", len(payload), err)
		}
	}
}
