package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/lattice"
	"github.com/san-kum/massgrid/internal/springs"
)

func restGrid(t *testing.T, dims lattice.Dims) []r3.Vec {
	t.Helper()
	b, err := springs.New(dims, 1.0, r3.Vec{X: 10, Y: 10})
	if err != nil {
		t.Fatalf("buffers: %v", err)
	}
	return b.Snapshot(nil)
}

func TestSpringPotentialAtRest(t *testing.T) {
	dims := lattice.Dims{X: 4, Y: 4, Layers: 4}
	m := NewSpringPotential(dims, 10, 1.0)
	m.Observe(dynamo.Frame{Positions: restGrid(t, dims)})

	if math.Abs(m.Value()) > 1e-12 {
		t.Errorf("expected zero potential at rest, got %g", m.Value())
	}
}

func TestSpringPotentialStretch(t *testing.T) {
	dims := lattice.Dims{X: 2, Y: 1, Layers: 1}
	m := NewSpringPotential(dims, 10, 1.0)

	pos := []r3.Vec{{X: 0}, {X: 1.5}}
	m.Observe(dynamo.Frame{Positions: pos})

	// one link, stretched by 0.5, counted once
	expected := 0.5 * 10 * 0.25
	if math.Abs(m.Value()-expected) > 1e-12 {
		t.Errorf("expected %g, got %g", expected, m.Value())
	}
}

func TestKineticEnergy(t *testing.T) {
	k := NewKineticEnergy(2.0)

	k.Observe(dynamo.Frame{Time: 0, Positions: []r3.Vec{{}, {}}})
	if k.Value() != 0 {
		t.Errorf("first frame should read zero, got %g", k.Value())
	}

	k.Observe(dynamo.Frame{Time: 0.01, Positions: []r3.Vec{{X: 0.1}, {}}})
	// v = 10, KE = 0.5 * 2 * 100
	if math.Abs(k.Value()-100) > 1e-9 {
		t.Errorf("expected 100, got %g", k.Value())
	}

	k.Reset()
	if k.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestMaxDisplacement(t *testing.T) {
	rest := []r3.Vec{{}, {X: 1}}
	m := NewMaxDisplacement(rest)

	m.Observe(dynamo.Frame{Positions: []r3.Vec{{Z: 3}, {X: 1}}})
	m.Observe(dynamo.Frame{Positions: []r3.Vec{{Z: 1}, {X: 1}}})

	if m.Value() != 3 {
		t.Errorf("expected peak 3, got %g", m.Value())
	}
	if m.Current() != 1 {
		t.Errorf("expected current 1, got %g", m.Current())
	}

	m.Reset()
	if m.Value() != 0 || m.Current() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStability(t *testing.T) {
	s := NewStability()
	if s.Value() != 1.0 {
		t.Errorf("empty stability should be 1, got %g", s.Value())
	}

	s.Observe(dynamo.Frame{Positions: []r3.Vec{{X: 1}}})
	s.Observe(dynamo.Frame{Positions: []r3.Vec{{X: math.NaN()}}})

	if s.Value() != 0.5 {
		t.Errorf("expected 0.5, got %g", s.Value())
	}
}

func TestSetAndSeries(t *testing.T) {
	series := NewSeries(NewMaxDisplacement([]r3.Vec{{}}), 2)
	set := NewSet(series, NewStability())

	for i := 1; i <= 3; i++ {
		set.OnFrame(dynamo.Frame{Step: i, Positions: []r3.Vec{{X: float64(i)}}})
	}

	vals := set.Values()
	if vals["max_displacement"] != 3 || vals["stability"] != 1 {
		t.Errorf("unexpected values %v", vals)
	}

	hist := series.Values()
	if len(hist) != 2 || hist[0] != 2 || hist[1] != 3 {
		t.Errorf("expected trimmed history [2 3], got %v", hist)
	}

	set.Reset()
	if len(series.Values()) != 0 {
		t.Error("expected empty history after reset")
	}
}
