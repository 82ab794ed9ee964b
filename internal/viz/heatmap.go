package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/lattice"
)

// Heatmap draws one layer of the grid as displacement from rest, north up.
// Each node is three cells wide; the cursor node is bracketed. Displacement
// is shaded against scale; pinned nodes show as a muted dot.
func Heatmap(pos, rest []r3.Vec, dims lattice.Dims, layer, cursor int, scale float64) string {
	if len(pos) != dims.Count() || len(rest) != len(pos) || layer < 0 || layer >= dims.Layers {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}

	var b strings.Builder
	for y := dims.Y - 1; y >= 0; y-- {
		for x := 0; x < dims.X; x++ {
			i := dims.Index(x, y, layer)
			d := r3.Norm(r3.Sub(pos[i], rest[i]))
			level := int(math.Min(d/scale, 1) * float64(len(heatRunes)-1))
			ch := string(heatRunes[level])

			switch {
			case i == cursor:
				b.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Cursor).Bold(true).Render("[" + ch + "]"))
			case dims.IsBoundary(i):
				b.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Pinned).Render(" · "))
			default:
				ramp := CurrentTheme.Ramp
				c := ramp[level*(len(ramp)-1)/(len(heatRunes)-1)]
				b.WriteString(lipgloss.NewStyle().Foreground(c).Render(" " + ch + " "))
			}
		}
		if y > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
