package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// PhasePortrait2D pairs a series (X) with its rate of change (Y).
type PhasePortrait2D struct {
	Points []r2.Vec
}

func NewPhasePortrait(data []float64, dt float64) *PhasePortrait2D {
	rate := Rate(data, dt)
	p := &PhasePortrait2D{Points: make([]r2.Vec, len(rate))}
	for i, v := range rate {
		p.Points[i] = r2.Vec{X: data[i], Y: v}
	}
	return p
}

// Box returns the portrait's extent padded by 10% on each side.
func (p *PhasePortrait2D) Box() r2.Box {
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	pad := func(lo, hi float64) (float64, float64) {
		span := hi - lo
		if span == 0 {
			span = 1
		}
		return lo - span*0.1, hi + span*0.1
	}
	x0, x1 := pad(floats.Min(xs), floats.Max(xs))
	y0, y1 := pad(floats.Min(ys), floats.Max(ys))
	return r2.Box{Min: r2.Vec{X: x0, Y: y0}, Max: r2.Vec{X: x1, Y: y1}}
}

// PhasePortraitToASCII plots the portrait as dots on a width x height
// character grid, with axes drawn where zero is in view.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	box := portrait.Box()
	size := box.Size()
	cell := func(v r2.Vec) (col, row int) {
		col = int((v.X - box.Min.X) / size.X * float64(width-1))
		row = height - 1 - int((v.Y-box.Min.Y)/size.Y*float64(height-1))
		return col, row
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		if col, row := cell(p); row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	// axes never overwrite samples
	origin := r2.Vec{}
	zc, zr := cell(origin)
	if box.Min.X <= 0 && box.Max.X >= 0 && zc >= 0 && zc < width {
		for row := range grid {
			if grid[row][zc] == ' ' {
				grid[row][zc] = '│'
			}
		}
	}
	if box.Min.Y <= 0 && box.Max.Y >= 0 && zr >= 0 && zr < height {
		for col := range grid[zr] {
			if grid[zr][col] == ' ' {
				grid[zr][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
