package narrate

import (
	"fmt"
	"strconv"

	"github.com/ivlev/explainer/internal/layout"
	"github.com/ivlev/explainer/internal/scene"
)

// Phase names the half of the transpose-and-reverse rotation.
type Phase uint8

const (
	PhaseTranspose Phase = iota
	PhaseReverse
)

func (p Phase) String() string {
	if p == PhaseTranspose {
		return "transpose"
	}
	return "reverse"
}

// Swap exchanges matrix[R1][C1] and matrix[R2][C2].
type Swap struct {
	Phase  Phase
	R1, C1 int
	R2, C2 int
}

// RotationResult holds the intermediate and final matrices.
type RotationResult struct {
	Original   [][]int
	Transposed [][]int
	Rotated    [][]int
	Swaps      int
}

func cloneMatrix(m [][]int) [][]int {
	out := make([][]int, len(m))
	for i := range m {
		out[i] = append([]int(nil), m[i]...)
	}
	return out
}

// TraceRotation rotates a square matrix 90 degrees clockwise by transposing
// it and reversing every row. Each swap is reported to visit and applied to
// the working copy right after. The input is not modified.
func TraceRotation(matrix [][]int, visit func(Swap)) (RotationResult, error) {
	var res RotationResult
	if err := layout.RequireSquare(matrix); err != nil {
		return res, fmt.Errorf("rotate: %w", err)
	}
	m := cloneMatrix(matrix)
	res.Original = cloneMatrix(matrix)
	n := len(m)

	apply := func(s Swap) {
		if visit != nil {
			visit(s)
		}
		m[s.R1][s.C1], m[s.R2][s.C2] = m[s.R2][s.C2], m[s.R1][s.C1]
		res.Swaps++
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			apply(Swap{Phase: PhaseTranspose, R1: i, C1: j, R2: j, C2: i})
		}
	}
	res.Transposed = cloneMatrix(m)

	for i := 0; i < n; i++ {
		for l, r := 0, n-1; l < r; l, r = l+1, r-1 {
			apply(Swap{Phase: PhaseReverse, R1: i, C1: l, R2: i, C2: r})
		}
	}
	res.Rotated = m
	return res, nil
}

// Cycle moves four cells of one layer a quarter turn clockwise: the value at
// Cells[k] goes to Cells[(k+1)%4]. Cells are top, right, bottom, left.
type Cycle struct {
	Layer int
	Cells [4][2]int
}

// TraceLayerRotation rotates a square matrix 90 degrees clockwise in place,
// layer by layer, with one four-way cycle per position. The input is not
// modified.
func TraceLayerRotation(matrix [][]int, visit func(Cycle)) ([][]int, error) {
	if err := layout.RequireSquare(matrix); err != nil {
		return nil, fmt.Errorf("rotate layers: %w", err)
	}
	m := cloneMatrix(matrix)
	n := len(m)
	for layer := 0; layer < n/2; layer++ {
		first, last := layer, n-1-layer
		for i := first; i < last; i++ {
			off := i - first
			c := Cycle{Layer: layer, Cells: [4][2]int{
				{first, i},
				{i, last},
				{last, last - off},
				{last - off, first},
			}}
			if visit != nil {
				visit(c)
			}
			top := m[first][i]
			m[first][i] = m[last-off][first]
			m[last-off][first] = m[last][last-off]
			m[last][last-off] = m[i][last]
			m[i][last] = top
		}
	}
	return m, nil
}

const matrixCell = 1.0

// matrixView is a grid of number texts with a frame around it.
type matrixView struct {
	cells [][]*scene.Object
	pos   [][]scene.Point
	frame *scene.Object
	title *scene.Object
}

func newMatrixView(m [][]int, title string) (*matrixView, error) {
	pos, err := layout.GridPositions(m, matrixCell, scene.Point{Y: 0.3})
	if err != nil {
		return nil, err
	}
	v := &matrixView{pos: pos, cells: make([][]*scene.Object, len(m))}
	all := scene.NewGroup("grid")
	for i, row := range m {
		v.cells[i] = make([]*scene.Object, len(row))
		for j, val := range row {
			t := scene.NewText(fmt.Sprintf("m%d%d", i, j), strconv.Itoa(val), 0.36, scene.White).At(pos[i][j])
			v.cells[i][j] = t
			all.Add(t.Clone())
		}
	}
	v.frame = Surround("frame", all, 0.25, scene.White)
	v.title = scene.NewText("matrix.title", title, BodySize, scene.White).At(layout.Above(v.frame, 0.3))
	return v, nil
}

func (v *matrixView) objects() []*scene.Object {
	out := []*scene.Object{v.title, v.frame}
	for _, row := range v.cells {
		out = append(out, row...)
	}
	return out
}

func (v *matrixView) enter() scene.Step {
	var actions []scene.Action
	for _, o := range v.objects() {
		actions = append(actions, scene.FadeIn(o))
	}
	return scene.Play(actions...).Named("matrix")
}

// highlight outlines cell at at. Steps are built before any of them runs,
// so the grid slot is used instead of the committed cell position.
func highlight(name string, cell *scene.Object, at scene.Point, color scene.Color) *scene.Object {
	return Surround(name, cell, 0.12, color).At(at)
}

// Rotation narrates the transpose-and-reverse rotation of matrix.
func Rotation(matrix [][]int) (RotationResult, []scene.Step, error) {
	v, err := newMatrixView(matrix, "Initial Matrix")
	if err != nil {
		return RotationResult{}, nil, fmt.Errorf("rotate: %w", err)
	}

	var sc Script
	sc.Play(v.enter(), scene.Wait(2))

	stepText := scene.NewText("phase", "Step 1: Transpose the Matrix", 0.4, scene.White).At(scene.Point{Y: -2.5})
	sc.Play(scene.Play(scene.Write(stepText)), scene.Wait(1))

	phase := PhaseTranspose
	res, err := TraceRotation(matrix, func(s Swap) {
		if s.Phase != phase {
			phase = s.Phase
			next := scene.NewText("phase.next", "Step 2: Reverse Each Row", 0.4, scene.White).At(stepText.Position)
			sc.Play(scene.Play(scene.Transform(stepText, next)).Named("reverse rows"), scene.Wait(1))
		}

		a, b := v.cells[s.R1][s.C1], v.cells[s.R2][s.C2]
		color := scene.Yellow
		if s.Phase == PhaseReverse {
			color = scene.Red
		}
		ha := highlight(fmt.Sprintf("hl%d%d", s.R1, s.C1), a, v.pos[s.R1][s.C1], color)
		hb := highlight(fmt.Sprintf("hl%d%d", s.R2, s.C2), b, v.pos[s.R2][s.C2], color)
		sc.Play(
			scene.Play(scene.Create(ha), scene.Create(hb)).Named(fmt.Sprintf("%s %d,%d<->%d,%d", s.Phase, s.R1, s.C1, s.R2, s.C2)),
			scene.Wait(0.5),
			scene.Play(scene.MoveTo(a, v.pos[s.R2][s.C2]), scene.MoveTo(b, v.pos[s.R1][s.C1]), scene.MoveTo(ha, hb.Position), scene.MoveTo(hb, ha.Position)),
			scene.Play(scene.FadeOut(ha), scene.FadeOut(hb)),
			scene.Wait(0.5),
		)
		v.cells[s.R1][s.C1], v.cells[s.R2][s.C2] = b, a
	})
	if err != nil {
		return res, nil, err
	}

	done := scene.NewText("matrix.title.done", "Rotated Matrix", BodySize, scene.Green).At(v.title.Position)
	sc.Play(scene.Play(scene.FadeOut(stepText), scene.Transform(v.title, done)), scene.Wait(2))
	sc.Play(FadeOutAll(1, v.objects()...))
	return res, sc.Steps(), nil
}

// LayerRotation narrates the layer-by-layer rotation of matrix.
func LayerRotation(matrix [][]int) ([][]int, []scene.Step, error) {
	v, err := newMatrixView(matrix, "Rotate layer by layer")
	if err != nil {
		return nil, nil, fmt.Errorf("rotate layers: %w", err)
	}

	var sc Script
	sc.Play(v.enter(), scene.Wait(1.5))

	layerColors := []scene.Color{scene.Yellow, scene.Teal, scene.Purple, scene.Gold}
	rotated, err := TraceLayerRotation(matrix, func(c Cycle) {
		var objs [4]*scene.Object
		var hls []*scene.Object
		var enter, moves, exit []scene.Action
		for k, rc := range c.Cells {
			objs[k] = v.cells[rc[0]][rc[1]]
			hl := highlight(fmt.Sprintf("hl%d%d", rc[0], rc[1]), objs[k], v.pos[rc[0]][rc[1]], layerColors[c.Layer%len(layerColors)])
			hls = append(hls, hl)
			enter = append(enter, scene.Create(hl))
			exit = append(exit, scene.FadeOut(hl))
		}
		for k, o := range objs {
			to := c.Cells[(k+1)%4]
			moves = append(moves, scene.MoveTo(o, v.pos[to[0]][to[1]]))
		}
		sc.Play(
			scene.Play(enter...).For(0.5).Named(fmt.Sprintf("layer %d cycle", c.Layer)),
			scene.Play(moves...).For(1.2),
			scene.Play(exit...).For(0.4),
		)
		for k, o := range objs {
			to := c.Cells[(k+1)%4]
			v.cells[to[0]][to[1]] = o
		}
	})
	if err != nil {
		return nil, nil, err
	}

	sc.Play(scene.Wait(1.5), FadeOutAll(1, v.objects()...))
	return rotated, sc.Steps(), nil
}
