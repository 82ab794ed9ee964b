package compute

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/lattice"
	"github.com/san-kum/massgrid/internal/springs"
)

// minChunk keeps tiny grids on the calling goroutine.
const minChunk = 64

type CPUBackend struct {
	workers int
}

// NewCPUBackend fans passes out over workers goroutines; workers <= 0 uses
// one per CPU.
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = dynamo.DefaultWorkers
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}
func (c *CPUBackend) Workers() int    { return c.workers }

// VelocityPass writes b.VelNext from b.Positions, b.Velocities and b.Forces.
// Neighbour slots are summed in ascending order so results do not depend on
// the worker count.
func (c *CPUBackend) VelocityPass(b *springs.Buffers, p dynamo.Params, dt float64) {
	pos, vel, ext := b.Positions, b.Velocities, b.Forces
	links, rest, out := b.Links, b.Rest, b.VelNext
	invMass := 1.0 / p.Mass

	dynamo.ParallelFor(len(pos), minChunk, c.workers, func(start, end int) {
		for i := start; i < end; i++ {
			pi := pos[i]
			var f r3.Vec

			base := i * lattice.NumNeighbors
			for s := 0; s < lattice.NumNeighbors; s++ {
				l := links[base+s]
				if !l.Exists {
					continue
				}
				d := r3.Sub(pi, pos[l.Index])
				dist := r3.Norm(d)
				if dist == 0 || math.IsNaN(dist) {
					continue
				}
				stretch := p.Stiffness * (rest[base+s] - dist)
				f = r3.Add(f, r3.Scale(stretch/dist, d))
			}

			f = r3.Add(f, r3.Scale(-p.Damping, vel[i]))
			f = r3.Add(f, ext[i])

			out[i] = r3.Add(vel[i], r3.Scale(invMass*dt, f))
		}
	})
}

// PositionPass integrates positions from the current velocities. Pinned
// nodes keep their position.
func (c *CPUBackend) PositionPass(b *springs.Buffers, dt float64) {
	pos, vel, pinned := b.Positions, b.Velocities, b.Pinned

	dynamo.ParallelFor(len(pos), minChunk, c.workers, func(start, end int) {
		for i := start; i < end; i++ {
			if pinned[i] {
				continue
			}
			pos[i] = r3.Add(pos[i], r3.Scale(dt, vel[i]))
		}
	})
}
