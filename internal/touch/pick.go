package touch

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Pick returns the node whose sphere of the given radius is hit first by the
// ray from origin along dir, or -1 when the ray misses every node.
func Pick(origin, dir r3.Vec, nodes []r3.Vec, radius float64) int {
	if r3.Norm(dir) == 0 {
		return -1
	}
	dir = r3.Unit(dir)

	best, bestT := -1, math.Inf(1)
	r2 := radius * radius
	for i, c := range nodes {
		oc := r3.Sub(c, origin)
		along := r3.Dot(oc, dir)
		perp2 := r3.Dot(oc, oc) - along*along
		if perp2 > r2 {
			continue
		}
		t := along - math.Sqrt(r2-perp2)
		if t < 0 {
			// origin inside the sphere
			t = along + math.Sqrt(r2-perp2)
		}
		if t >= 0 && t < bestT {
			best, bestT = i, t
		}
	}
	return best
}
