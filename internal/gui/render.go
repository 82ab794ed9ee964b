package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/lattice"
)

var linkSlots = [...]int{lattice.SlotEast, lattice.SlotNorth, lattice.SlotUp}

// RenderLinks draws one line per structural spring.
func (a *App) RenderLinks() {
	dims := a.Sim.Dims()
	for i := range a.Pos {
		from := a.ToWorld(a.Pos[i])
		for _, s := range linkSlots {
			j := dims.NeighborIndex(i, s)
			if j == lattice.Sentinel {
				continue
			}
			rl.DrawLine3D(from, a.ToWorld(a.Pos[j]), ColLink)
		}
	}
}

// RenderNodes draws every mass, warming from white to red with displacement.
func (a *App) RenderNodes() {
	dims := a.Sim.Dims()
	scale := a.Sim.Params().RestLength * 0.5
	for i, p := range a.Pos {
		pos := a.ToWorld(p)
		switch {
		case i == a.Hover:
			rl.DrawSphere(pos, nodeRadius*1.6, rl.Yellow)
		case dims.IsBoundary(i):
			rl.DrawSphere(pos, nodeRadius*0.7, ColPinned)
		default:
			d := math.Min(r3.Norm(r3.Sub(p, a.Rest[i]))/scale, 1)
			fade := uint8(255 * (1 - d))
			rl.DrawSphere(pos, nodeRadius, rl.NewColor(255, fade, fade, 255))
		}
	}
}
