package analysis

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Displacement is the distance of each sample from rest.
func Displacement(trace []r3.Vec, rest r3.Vec) []float64 {
	out := make([]float64, len(trace))
	for i, p := range trace {
		out[i] = r3.Norm(r3.Sub(p, rest))
	}
	return out
}

// Component extracts one axis of a trace: 0 for X, 1 for Y, 2 for Z.
func Component(trace []r3.Vec, axis int) []float64 {
	out := make([]float64, len(trace))
	for i, p := range trace {
		switch axis {
		case 0:
			out[i] = p.X
		case 1:
			out[i] = p.Y
		default:
			out[i] = p.Z
		}
	}
	return out
}

// Rate is the forward-difference derivative of a uniformly sampled series.
// The result has one fewer sample than the input.
func Rate(data []float64, dt float64) []float64 {
	if len(data) < 2 || dt <= 0 {
		return []float64{}
	}
	out := make([]float64, len(data)-1)
	for i := range out {
		out[i] = (data[i+1] - data[i]) / dt
	}
	return out
}
