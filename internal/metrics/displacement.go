package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
)

// MaxDisplacement tracks the furthest any node has strayed from rest.
type MaxDisplacement struct {
	name    string
	rest    []r3.Vec
	current []float64
	peak    float64
}

func NewMaxDisplacement(rest []r3.Vec) *MaxDisplacement {
	return &MaxDisplacement{
		name:    "max_displacement",
		rest:    rest,
		current: make([]float64, len(rest)),
	}
}

func (m *MaxDisplacement) Name() string { return m.name }

func (m *MaxDisplacement) Observe(f dynamo.Frame) {
	if len(f.Positions) != len(m.rest) || len(m.rest) == 0 {
		return
	}
	for i, p := range f.Positions {
		m.current[i] = r3.Norm(r3.Sub(p, m.rest[i]))
	}
	if d := floats.Max(m.current); d > m.peak {
		m.peak = d
	}
}

// Current is the largest displacement in the latest frame.
func (m *MaxDisplacement) Current() float64 {
	if len(m.current) == 0 {
		return 0
	}
	return floats.Max(m.current)
}

func (m *MaxDisplacement) Value() float64 { return m.peak }

func (m *MaxDisplacement) Reset() {
	m.peak = 0
	for i := range m.current {
		m.current[i] = 0
	}
}
