// Package lattice derives the fixed neighbour topology of a regular 3D grid.
package lattice

import (
	"fmt"
	"math"

	"github.com/san-kum/massgrid/internal/dynamo"
)

// NumNeighbors is the number of neighbour slots per node.
const NumNeighbors = 24

// Sentinel marks a neighbour slot that falls outside the grid.
const Sentinel = -1

// Delta is an integer lattice offset.
type Delta struct{ X, Y, Z int }

// offsets lists the neighbour slots in canonical order: in-plane compass
// points, in-plane bend links, then the layer above and the layer below.
// Slot order is part of the wire contract with touch mapping; do not reorder.
var offsets = [NumNeighbors]Delta{
	{0, 1, 0},   // 0  N
	{1, 1, 0},   // 1  NE
	{1, 0, 0},   // 2  E
	{1, -1, 0},  // 3  SE
	{0, -1, 0},  // 4  S
	{-1, -1, 0}, // 5  SW
	{-1, 0, 0},  // 6  W
	{-1, 1, 0},  // 7  NW
	{0, 2, 0},   // 8  N bend
	{2, 0, 0},   // 9  E bend
	{0, -2, 0},  // 10 S bend
	{-2, 0, 0},  // 11 W bend
	{0, 0, 1},   // 12 up
	{0, 1, 1},   // 13
	{1, 0, 1},   // 14
	{0, -1, 1},  // 15
	{-1, 0, 1},  // 16
	{0, 0, 2},   // 17 up bend
	{0, 0, -1},  // 18 down
	{0, 1, -1},  // 19
	{1, 0, -1},  // 20
	{0, -1, -1}, // 21
	{-1, 0, -1}, // 22
	{0, 0, -2},  // 23 down bend
}

// Named slots used by touch propagation.
const (
	SlotNorth = 0
	SlotEast  = 2
	SlotSouth = 4
	SlotWest  = 6
	SlotUp    = 12
	SlotDown  = 18
)

// Offset returns the lattice delta of neighbour slot n.
func Offset(n int) Delta { return offsets[n] }

// OffsetLength is the Euclidean length of slot n in lattice units.
func OffsetLength(n int) float64 {
	d := offsets[n]
	return math.Sqrt(float64(d.X*d.X + d.Y*d.Y + d.Z*d.Z))
}

// Dims are the grid resolution along each axis.
type Dims struct {
	X, Y, Layers int
}

func (d Dims) Count() int { return d.X * d.Y * d.Layers }

func (d Dims) Validate() error {
	if d.X <= 0 || d.Y <= 0 || d.Layers <= 0 {
		return fmt.Errorf("grid dims %dx%dx%d must be positive: %w", d.X, d.Y, d.Layers, dynamo.ErrInvalidConfig)
	}
	return nil
}

func (d Dims) String() string { return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Layers) }

// Contains reports whether idx addresses a node of the grid.
func (d Dims) Contains(idx int) bool { return idx >= 0 && idx < d.Count() }

// Coord decomposes a node index into lattice coordinates.
func (d Dims) Coord(idx int) (x, y, z int) {
	x = idx % d.X
	y = (idx / d.X) % d.Y
	z = idx / (d.X * d.Y)
	return
}

// Index is the inverse of Coord. It does not bounds-check.
func (d Dims) Index(x, y, z int) int {
	return x + y*d.X + z*d.X*d.Y
}

func (d Dims) inBounds(x, y, z int) bool {
	return x >= 0 && x < d.X && y >= 0 && y < d.Y && z >= 0 && z < d.Layers
}

// NeighborIndex returns the node in slot n of idx, or Sentinel when the
// neighbour lies outside the grid on any axis.
func (d Dims) NeighborIndex(idx, n int) int {
	x, y, z := d.Coord(idx)
	o := offsets[n]
	nx, ny, nz := x+o.X, y+o.Y, z+o.Z
	if !d.inBounds(nx, ny, nz) {
		return Sentinel
	}
	return d.Index(nx, ny, nz)
}

// IsBoundary reports whether idx sits on an extreme of any axis.
func (d Dims) IsBoundary(idx int) bool {
	x, y, z := d.Coord(idx)
	return x == 0 || x == d.X-1 || y == 0 || y == d.Y-1 || z == 0 || z == d.Layers-1
}

// Link is one neighbour-table entry.
type Link struct {
	Index  int
	Exists bool
}

// BuildNeighborTable computes all Count()*NumNeighbors links, slot-major per node.
func BuildNeighborTable(d Dims) []Link {
	n := d.Count()
	table := make([]Link, n*NumNeighbors)
	for i := 0; i < n; i++ {
		row := table[i*NumNeighbors : (i+1)*NumNeighbors]
		for s := range row {
			j := d.NeighborIndex(i, s)
			row[s] = Link{Index: j, Exists: j != Sentinel}
		}
	}
	return table
}
