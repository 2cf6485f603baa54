// Package easing maps the easing names used by scene steps to gween
// tween functions and drives per-frame progress.
package easing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Default is used when a step names no easing.
const Default = "smooth"

var funcs = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"smooth":       ease.InOutCubic,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"in_cubic":     ease.InCubic,
	"out_cubic":    ease.OutCubic,
	"in_out_cubic": ease.InOutCubic,
	"in_sine":      ease.InSine,
	"out_sine":     ease.OutSine,
	"in_out_sine":  ease.InOutSine,
	"out_back":     ease.OutBack,
	"out_bounce":   ease.OutBounce,
	"out_elastic":  ease.OutElastic,
}

// Lookup returns the tween function for name. The empty name selects Default.
func Lookup(name string) (ease.TweenFunc, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}
	fn, ok := funcs[key]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}

// Names lists the known easing names in sorted order.
func Names() []string {
	names := make([]string, 0, len(funcs))
	for n := range funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Progress yields eased progress values for a fixed number of frames. Frame
// k of n reports the eased value at time k/n; the last frame is exactly 1.
type Progress struct {
	tween  *gween.Tween
	frames int
	step   float32
	done   int
}

// NewProgress prepares a tween from 0 to 1 across frames frames.
func NewProgress(fn ease.TweenFunc, frames int) *Progress {
	if frames < 1 {
		frames = 1
	}
	return &Progress{
		tween:  gween.New(0, 1, float32(frames), fn),
		frames: frames,
		step:   1,
	}
}

// Next advances one frame and returns the eased progress. ok is false once
// every frame has been reported.
func (p *Progress) Next() (t float64, ok bool) {
	if p.done >= p.frames {
		return 1, false
	}
	p.done++
	val, finished := p.tween.Update(p.step)
	if finished || p.done == p.frames {
		return 1, true
	}
	return float64(val), true
}

// Frames returns the total number of frames.
func (p *Progress) Frames() int {
	return p.frames
}
