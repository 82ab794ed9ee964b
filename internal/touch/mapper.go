package touch

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/lattice"
)

// spreadSlots receive half pressure around the touched node.
var spreadSlots = [...]int{
	lattice.SlotNorth,
	lattice.SlotEast,
	lattice.SlotSouth,
	lattice.SlotWest,
	lattice.SlotUp,
	lattice.SlotDown,
}

// Mapper writes touch events into an external force array.
type Mapper struct {
	Dims     lattice.Dims
	MaxForce float64
	Logger   *slog.Logger
}

func NewMapper(dims lattice.Dims, maxForce float64, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{Dims: dims, MaxForce: maxForce, Logger: logger}
}

// Remap converts input-space pressure into a grid force: the input depth
// axis drives grid Y, and pressing in pushes the grid away.
func Remap(pressure r3.Vec, maxForce float64) r3.Vec {
	return r3.Scale(-maxForce, r3.Vec{X: pressure.X, Y: pressure.Z, Z: pressure.Y})
}

// Apply zeroes forces and then applies every event in order. Each event
// overwrites the touched node with full pressure and its six spread
// neighbours with half pressure. It returns the number of events applied.
func (m *Mapper) Apply(forces []r3.Vec, events []Event) int {
	for i := range forces {
		forces[i] = r3.Vec{}
	}

	applied := 0
	for _, e := range events {
		if !m.Dims.Contains(e.Node) || e.Node >= len(forces) {
			m.Logger.Warn("touch out of bounds",
				slog.Int("node", e.Node),
				slog.Int("vert_count", m.Dims.Count()))
			continue
		}

		forces[e.Node] = Remap(e.Pressure, m.MaxForce)

		half := r3.Scale(0.5, e.Pressure)
		for _, slot := range spreadSlots {
			n := m.Dims.NeighborIndex(e.Node, slot)
			if n == lattice.Sentinel {
				continue
			}
			forces[n] = Remap(half, m.MaxForce)
		}
		applied++
	}
	return applied
}
