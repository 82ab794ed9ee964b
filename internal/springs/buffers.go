// Package springs owns the per-node state of the mass-spring grid.
package springs

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/lattice"
)

// Buffers holds every per-node array of the grid. All arrays are sized
// together from Dims and are only ever reallocated together.
type Buffers struct {
	Dims       lattice.Dims
	Origin     r3.Vec
	RestLength float64

	Positions  []r3.Vec
	Velocities []r3.Vec
	// VelNext is the write side of the velocity double buffer.
	VelNext []r3.Vec
	Forces  []r3.Vec
	Links   []lattice.Link
	// Rest holds the resting length of each link, aligned with Links.
	Rest   []float64
	Pinned []bool

	released bool
}

// New allocates buffers for dims and resets them to the resting grid.
func New(dims lattice.Dims, restLength float64, origin r3.Vec) (*Buffers, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if !(restLength > 0) {
		return nil, fmt.Errorf("rest length must be positive, got %g: %w", restLength, dynamo.ErrInvalidConfig)
	}

	n := dims.Count()
	b := &Buffers{
		Dims:       dims,
		Origin:     origin,
		Positions:  make([]r3.Vec, n),
		Velocities: make([]r3.Vec, n),
		VelNext:    make([]r3.Vec, n),
		Forces:     make([]r3.Vec, n),
		Links:      make([]lattice.Link, n*lattice.NumNeighbors),
		Rest:       make([]float64, n*lattice.NumNeighbors),
		Pinned:     make([]bool, n),
	}
	b.Reset(restLength)
	return b, nil
}

// Len is the number of nodes, zero once released.
func (b *Buffers) Len() int { return len(b.Positions) }

// Released reports whether Release has been called.
func (b *Buffers) Released() bool { return b == nil || b.released }

// Reset lays the nodes out as a resting grid with spacing restLength,
// zeroes velocity and force, and rebuilds the neighbour table.
func (b *Buffers) Reset(restLength float64) {
	if b.Released() {
		return
	}
	b.RestLength = restLength

	d := b.Dims
	for i := range b.Positions {
		b.Positions[i] = b.RestPosition(i)
		b.Velocities[i] = r3.Vec{}
		b.VelNext[i] = r3.Vec{}
		b.Forces[i] = r3.Vec{}
		b.Pinned[i] = d.IsBoundary(i)
	}

	copy(b.Links, lattice.BuildNeighborTable(d))
	b.SetRestLength(restLength)
}

// SetRestLength rescales every link's resting length in place. Positions
// are untouched, so the grid relaxes toward the new spacing over time.
// Existing links take the distance measured between their rest positions,
// so a grid at rest feels exactly zero spring force.
func (b *Buffers) SetRestLength(restLength float64) {
	if b.Released() {
		return
	}
	b.RestLength = restLength
	for i := range b.Rest {
		l := b.Links[i]
		if !l.Exists {
			b.Rest[i] = restLength * lattice.OffsetLength(i%lattice.NumNeighbors)
			continue
		}
		node := i / lattice.NumNeighbors
		b.Rest[i] = r3.Norm(r3.Sub(b.RestPosition(node), b.RestPosition(l.Index)))
	}
}

// WorldSideLengthX is the grid extent along X at rest.
func (b *Buffers) WorldSideLengthX() float64 { return float64(b.Dims.X) * b.RestLength }

// WorldSideLengthY is the grid extent along Y at rest.
func (b *Buffers) WorldSideLengthY() float64 { return float64(b.Dims.Y) * b.RestLength }

// RestPosition is where node i sits in the resting grid: centred on Origin
// in the X/Y plane across WorldSideLength, one rest length per layer in Z.
func (b *Buffers) RestPosition(i int) r3.Vec {
	d := b.Dims
	x, y, z := d.Coord(i)
	return r3.Add(b.Origin, r3.Vec{
		X: (float64(x) - float64(d.X)/2) * b.RestLength,
		Y: (float64(y) - float64(d.Y)/2) * b.RestLength,
		Z: float64(z) * b.RestLength,
	})
}

// SwapVelocities publishes VelNext as the current velocities.
func (b *Buffers) SwapVelocities() {
	b.Velocities, b.VelNext = b.VelNext, b.Velocities
}

// ClearForces zeroes the external force array.
func (b *Buffers) ClearForces() {
	for i := range b.Forces {
		b.Forces[i] = r3.Vec{}
	}
}

// Check verifies that every array is sized for Dims.
func (b *Buffers) Check() error {
	if b.Released() {
		return nil
	}
	n := b.Dims.Count()
	sizes := map[string]int{
		"positions":  len(b.Positions),
		"velocities": len(b.Velocities),
		"vel_next":   len(b.VelNext),
		"forces":     len(b.Forces),
		"pinned":     len(b.Pinned),
	}
	for name, got := range sizes {
		if got != n {
			return fmt.Errorf("%s has %d entries, want %d: %w", name, got, n, dynamo.ErrBufferMismatch)
		}
	}
	if len(b.Links) != n*lattice.NumNeighbors || len(b.Rest) != len(b.Links) {
		return fmt.Errorf("neighbour table has %d/%d entries, want %d: %w",
			len(b.Links), len(b.Rest), n*lattice.NumNeighbors, dynamo.ErrBufferMismatch)
	}
	return nil
}

// Snapshot copies the current positions into dst, growing it if needed.
func (b *Buffers) Snapshot(dst []r3.Vec) []r3.Vec {
	if cap(dst) < len(b.Positions) {
		dst = make([]r3.Vec, len(b.Positions))
	}
	dst = dst[:len(b.Positions)]
	copy(dst, b.Positions)
	return dst
}

// Release drops every array. Calling it more than once is a no-op.
func (b *Buffers) Release() {
	if b == nil || b.released {
		return
	}
	b.Positions = nil
	b.Velocities = nil
	b.VelNext = nil
	b.Forces = nil
	b.Links = nil
	b.Rest = nil
	b.Pinned = nil
	b.released = true
}
