package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/lattice"
)

// KineticEnergy is the grid's kinetic energy at the latest frame, with node
// velocity recovered from consecutive positions.
type KineticEnergy struct {
	name    string
	mass    float64
	prev    []r3.Vec
	prevT   float64
	perNode []float64
	value   float64
}

func NewKineticEnergy(mass float64) *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy", mass: mass}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(f dynamo.Frame) {
	if len(k.prev) != len(f.Positions) {
		k.prev = make([]r3.Vec, len(f.Positions))
		k.perNode = make([]float64, len(f.Positions))
		copy(k.prev, f.Positions)
		k.prevT = f.Time
		k.value = 0
		return
	}

	dt := f.Time - k.prevT
	if dt > 0 {
		for i, p := range f.Positions {
			v := r3.Scale(1/dt, r3.Sub(p, k.prev[i]))
			k.perNode[i] = 0.5 * k.mass * r3.Dot(v, v)
		}
		k.value = floats.Sum(k.perNode)
	}
	copy(k.prev, f.Positions)
	k.prevT = f.Time
}

func (k *KineticEnergy) Value() float64 { return k.value }

func (k *KineticEnergy) Reset() {
	k.prev = nil
	k.perNode = nil
	k.value = 0
}

// SpringPotential is the elastic energy stored in every link, each spring
// counted once.
type SpringPotential struct {
	name      string
	stiffness float64
	links     []lattice.Link
	rest      []float64
	perLink   []float64
	value     float64
}

func NewSpringPotential(dims lattice.Dims, stiffness, restLength float64) *SpringPotential {
	links := lattice.BuildNeighborTable(dims)
	rest := make([]float64, len(links))
	for i := range rest {
		rest[i] = restLength * lattice.OffsetLength(i%lattice.NumNeighbors)
	}
	return &SpringPotential{
		name:      "spring_potential",
		stiffness: stiffness,
		links:     links,
		rest:      rest,
		perLink:   make([]float64, len(links)),
	}
}

func (s *SpringPotential) Name() string { return s.name }

func (s *SpringPotential) Observe(f dynamo.Frame) {
	if len(f.Positions)*lattice.NumNeighbors != len(s.links) {
		return
	}
	for l, link := range s.links {
		i := l / lattice.NumNeighbors
		if !link.Exists || link.Index < i {
			s.perLink[l] = 0
			continue
		}
		stretch := r3.Norm(r3.Sub(f.Positions[i], f.Positions[link.Index])) - s.rest[l]
		s.perLink[l] = 0.5 * s.stiffness * stretch * stretch
	}
	s.value = floats.Sum(s.perLink)
}

func (s *SpringPotential) Value() float64 { return s.value }

func (s *SpringPotential) Reset() { s.value = 0 }
