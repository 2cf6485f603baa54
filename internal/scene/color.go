package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Palette used by the explainer scenes.
var (
	Black  = Color{0, 0, 0, 1}
	White  = Color{1, 1, 1, 1}
	Gray   = Color{0.53, 0.53, 0.53, 1}
	Blue   = hex(0x58C4DD)
	Green  = hex(0x83C167)
	Red    = hex(0xFC6255)
	Yellow = hex(0xFFFF00)
	Orange = hex(0xFF862F)
	Purple = hex(0x9A72AC)
	Gold   = hex(0xF0AC5F)
	Teal   = hex(0x5CD0B3)

	// Transparent is the zero color.
	Transparent = Color{}
)

var namedColors = map[string]Color{
	"black":       Black,
	"white":       White,
	"gray":        Gray,
	"grey":        Gray,
	"blue":        Blue,
	"green":       Green,
	"red":         Red,
	"yellow":      Yellow,
	"orange":      Orange,
	"purple":      Purple,
	"gold":        Gold,
	"teal":        Teal,
	"transparent": Transparent,
}

func hex(v uint32) Color {
	return Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
		A: 1,
	}
}

// ParseColor accepts a palette name, #rrggbb or #rrggbbaa.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return Color{}, fmt.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	if len(s) == 7 {
		return hex(uint32(v)), nil
	}
	c := hex(uint32(v >> 8))
	c.A = float64(v&0xff) / 255
	return c, nil
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// Lerp interpolates component-wise from c to to.
func (c Color) Lerp(to Color, t float64) Color {
	return Color{
		R: c.R + (to.R-c.R)*t,
		G: c.G + (to.G-c.G)*t,
		B: c.B + (to.B-c.B)*t,
		A: c.A + (to.A-c.A)*t,
	}
}
