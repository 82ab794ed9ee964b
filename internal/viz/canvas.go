package viz

import "strings"

const brailleBase = 0x2800

// dotBits maps a sub-pixel inside a 2x4 Braille cell to its dot bit,
// indexed [row][col].
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a Width x Height grid of Braille cells. Drawing happens in
// sub-pixels, two across and four down per cell.
type Canvas struct {
	Width, Height int
	cells         []uint8
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{Width: w, Height: h, cells: make([]uint8, w*h)}
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (idx int, bit uint8, ok bool) {
	pw, ph := c.PixelSize()
	if x < 0 || y < 0 || x >= pw || y >= ph {
		return 0, 0, false
	}
	return (y/4)*c.Width + x/2, dotBits[y%4][x%2], true
}

// Set lights the sub-pixel at (x, y). Out of range points are ignored.
func (c *Canvas) Set(x, y int) {
	if i, bit, ok := c.cell(x, y); ok {
		c.cells[i] |= bit
	}
}

// Lit reports whether the sub-pixel at (x, y) is on.
func (c *Canvas) Lit(x, y int) bool {
	i, bit, ok := c.cell(x, y)
	return ok && c.cells[i]&bit != 0
}

func (c *Canvas) Clear() { clear(c.cells) }

// DrawLine lights every sub-pixel on the segment, endpoints included.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := x1-x0, y1-y0
	steps := max(absInt(dx), absInt(dy))
	if steps == 0 {
		c.Set(x0, y0)
		return
	}
	for i := 0; i <= steps; i++ {
		// round half away from zero so both endpoints land exactly
		x := x0 + divRound(dx*i, steps)
		y := y0 + divRound(dy*i, steps)
		c.Set(x, y)
	}
}

// String renders the rows joined by newlines, with no trailing newline.
func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Width*c.Height*3 + c.Height)
	for row := 0; row < c.Height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for _, bits := range c.cells[row*c.Width : (row+1)*c.Width] {
			b.WriteRune(rune(brailleBase + int(bits)))
		}
	}
	return b.String()
}

func divRound(n, d int) int {
	if n < 0 {
		return -((-n + d/2) / d)
	}
	return (n + d/2) / d
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
