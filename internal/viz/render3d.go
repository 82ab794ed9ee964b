package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/lattice"
)

// Camera orbits the origin and projects onto the canvas.
type Camera struct {
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	// Tilted so the layers read as depth rather than stacking flat.
	return &Camera{Distance: 50, Near: 0.1, RotX: -1.0, RotZ: 0.6, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint applies the camera's Z, Y then X rotations.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project converts a point in unit scene space to sub-pixel coordinates.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom, c.RotatePoint(p))
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := math.Min(float64(sw), float64(sh)) / 2.5
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End r3.Vec
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe           { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e r3.Vec) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) Clear()              { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	X1, Y1, X2, Y2 int
	Depth          float64
}

// Render3D draws the wireframe to the canvas back to front.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.PixelSize()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].Depth < proj[j].Depth })
	for _, e := range proj {
		if e.X1 == e.X2 && e.Y1 == e.Y2 {
			c.Set(e.X1, e.Y1)
		} else {
			c.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		}
	}
}

// directSlots are the links drawn for the grid: one per axis, so each
// structural edge appears once.
var directSlots = [...]int{lattice.SlotEast, lattice.SlotNorth, lattice.SlotUp}

// GridWireframe fills w with the structural links of the grid, centred on
// its rest centroid and scaled into the unit cube.
func GridWireframe(w *Wireframe, pos, rest []r3.Vec, dims lattice.Dims) {
	w.Clear()
	if len(pos) == 0 || len(pos) != dims.Count() {
		return
	}

	var centre r3.Vec
	for _, p := range rest {
		centre = r3.Add(centre, p)
	}
	centre = r3.Scale(1/float64(len(rest)), centre)

	extent := 0.0
	for _, p := range rest {
		extent = math.Max(extent, r3.Norm(r3.Sub(p, centre)))
	}
	if extent == 0 {
		extent = 1
	}

	local := func(p r3.Vec) r3.Vec { return r3.Scale(1/extent, r3.Sub(p, centre)) }
	for i := range pos {
		for _, s := range directSlots {
			j := dims.NeighborIndex(i, s)
			if j == lattice.Sentinel {
				continue
			}
			w.AddEdge(local(pos[i]), local(pos[j]))
		}
	}
}
