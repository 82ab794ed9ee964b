package gui

import (
	"fmt"

	"github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// sliderRanges bound the on-screen sliders; SetParam still has the last word.
var sliderRanges = map[string][2]float32{
	"damping":         {0.01, 0.99},
	"mass":            {0.1, 10},
	"max_touch_force": {0, 1000},
	"rest_length":     {0.2, 3},
	"stiffness":       {1, 200},
}

var panelRect = rl.Rectangle{X: 1000, Y: 60, Width: 260, Height: 330}

// DrawPanel draws the tuning sliders and buttons and applies any change
// the user made this frame.
func (a *App) DrawPanel() {
	x, y := panelRect.X+10, panelRect.Y+10
	width := panelRect.Width - 80

	params := a.Sim.GetParams()
	for i, k := range a.ParamKeys {
		r, ok := sliderRanges[k]
		if !ok {
			continue
		}
		c := ColText
		if i == a.ParamSel {
			c = ColSelect
		}
		rl.DrawText(k, int32(x), int32(y), 14, c)
		y += 18

		cur := float32(params[k])
		next := raygui.SliderBar(rl.Rectangle{X: x, Y: y, Width: width, Height: 18}, "", "", cur, r[0], r[1])
		rl.DrawText(fmt.Sprintf("%.3f", params[k]), int32(x+width+8), int32(y+2), 14, ColAccent)
		// SliderBar clamps to its range, so only trust it while dragged.
		if next != cur && rl.IsMouseButtonDown(rl.MouseLeftButton) && overPanel() {
			a.ParamSel = i
			a.setParam(k, float64(next))
		}
		y += 32
	}

	y += 6
	if raygui.Button(rl.Rectangle{X: x, Y: y, Width: 115, Height: 28}, toggleText(a.Running, "Pause", "Resume")) {
		a.Running = !a.Running
	}
	if raygui.Button(rl.Rectangle{X: x + 125, Y: y, Width: 115, Height: 28}, "Reset") {
		a.reset()
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

func overPanel() bool {
	return rl.CheckCollisionPointRec(rl.GetMousePosition(), panelRect)
}
