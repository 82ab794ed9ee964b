// Package gui is the raylib window onto a running grid.
package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/metrics"
	"github.com/san-kum/massgrid/internal/sim"
	"github.com/san-kum/massgrid/internal/touch"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColPinned  = rl.NewColor(70, 70, 80, 255)
	ColLink    = rl.NewColor(40, 40, 48, 255)
)

const (
	nodeRadius = 0.18
	maxHistory = 240
)

type App struct {
	Sim   *sim.Simulator
	Queue *touch.Queue
	Dt    float64
	Name  string

	Camera  rl.Camera3D
	Running bool
	Quit    bool

	Rest   []r3.Vec
	Pos    []r3.Vec
	Centre r3.Vec
	Hover  int

	ParamKeys []string
	ParamSel  int
	Telemetry *metrics.Series
	Err       error
}

func initWindow(name string) {
	rl.InitWindow(1280, 720, "massgrid :: "+name)
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp wraps an initialized simulator. Clicks push touches onto q.
func NewApp(s *sim.Simulator, q *touch.Queue, dt float64, name string) (*App, error) {
	rest, err := s.RestPositions()
	if err != nil {
		return nil, err
	}

	dims := s.Dims()
	span := float32(max(dims.X, dims.Y, dims.Layers)) * float32(s.Params().RestLength)

	return &App{
		Sim:   s,
		Queue: q,
		Dt:    dt,
		Name:  name,
		Camera: rl.NewCamera3D(
			rl.NewVector3(span*1.4, span*1.1, span*1.6),
			rl.NewVector3(0, 0, 0),
			rl.NewVector3(0, 1, 0),
			45.0,
			rl.CameraPerspective,
		),
		Running:   true,
		Rest:      rest,
		Pos:       append([]r3.Vec(nil), rest...),
		Centre:    centroid(rest),
		Hover:     -1,
		ParamKeys: s.Params().ParamNames(),
		Telemetry: metrics.NewSeries(metrics.NewKineticEnergy(s.Params().Mass), maxHistory),
	}, nil
}

func centroid(ps []r3.Vec) r3.Vec {
	var c r3.Vec
	for _, p := range ps {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(ps)), c)
}

// refreshRest reloads the resting layout after the rest length changed.
func (a *App) refreshRest() error {
	rest, err := a.Sim.RestPositions()
	if err != nil {
		return err
	}
	a.Rest = rest
	a.Centre = centroid(rest)
	return nil
}

// Run opens the window and blocks until it is closed.
func Run(s *sim.Simulator, q *touch.Queue, dt float64, name string) error {
	app, err := NewApp(s, q, dt, name)
	if err != nil {
		return err
	}
	initWindow(name)
	defer rl.CloseWindow()
	app.RunLoop()
	return app.Err
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() && !a.Quit {
		a.Update()
		a.Draw()
	}
}

// ToWorld maps grid space to the window's Y-up world, centred on the grid.
func (a *App) ToWorld(p r3.Vec) rl.Vector3 {
	d := r3.Sub(p, a.Centre)
	return rl.NewVector3(float32(d.X), float32(d.Z), float32(d.Y))
}

func (a *App) fromWorld(v rl.Vector3) r3.Vec {
	return r3.Add(a.Centre, r3.Vec{X: float64(v.X), Y: float64(v.Z), Z: float64(v.Y)})
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeyQ) {
		a.Quit = true
		return
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.reset()
	}
	if rl.IsKeyPressed(rl.KeyTab) && len(a.ParamKeys) > 0 {
		a.ParamSel = (a.ParamSel + 1) % len(a.ParamKeys)
	}
	if rl.IsKeyPressed(rl.KeyUp) {
		a.tune(1.05)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		a.tune(0.95)
	}
	if rl.IsMouseButtonDown(rl.MouseMiddleButton) || rl.IsKeyDown(rl.KeyLeftAlt) {
		rl.UpdateCamera(&a.Camera, rl.CameraOrbital)
	}

	ray := rl.GetMouseRay(rl.GetMousePosition(), a.Camera)
	origin := a.fromWorld(ray.Position)
	dir := r3.Sub(a.fromWorld(rl.Vector3Add(ray.Position, ray.Direction)), origin)
	a.Hover = -1
	if !overPanel() {
		a.Hover = touch.Pick(origin, dir, a.Pos, nodeRadius*2)
	}

	if a.Hover >= 0 {
		// Pressure Y maps to a force along grid -Z, straight down in the window.
		switch {
		case rl.IsMouseButtonDown(rl.MouseLeftButton):
			a.Queue.Push(touch.Event{Node: a.Hover, Pressure: r3.Vec{Y: 1}})
		case rl.IsMouseButtonDown(rl.MouseRightButton):
			a.Queue.Push(touch.Event{Node: a.Hover, Pressure: r3.Vec{Y: -1}})
		}
	}

	if !a.Running {
		return
	}
	if err := a.Sim.Tick(a.Dt, a.Queue); err != nil {
		a.Err = err
		a.Running = false
		return
	}
	pos, err := a.Sim.Positions()
	if err != nil {
		a.Err = err
		a.Running = false
		return
	}
	a.Pos = pos
	a.Telemetry.Observe(dynamo.Frame{Step: a.Sim.StepCount(), Time: a.Sim.Time(), Positions: pos})
}

func (a *App) tune(factor float64) {
	if len(a.ParamKeys) == 0 {
		return
	}
	key := a.ParamKeys[a.ParamSel]
	a.setParam(key, a.Sim.GetParams()[key]*factor)
}

// setParam applies a tuned value; out-of-range values are dropped.
func (a *App) setParam(key string, value float64) {
	if err := a.Sim.SetParam(key, value); err != nil {
		return
	}
	switch key {
	case "mass":
		a.Telemetry = metrics.NewSeries(metrics.NewKineticEnergy(a.Sim.Params().Mass), maxHistory)
	case "rest_length":
		if err := a.refreshRest(); err != nil {
			a.Err = err
		}
	}
}

func (a *App) reset() {
	if err := a.Sim.Reset(); err != nil {
		a.Err = err
		return
	}
	a.Queue.Drain()
	a.Err = nil
	if err := a.refreshRest(); err != nil {
		a.Err = err
		return
	}
	a.Pos = append(a.Pos[:0], a.Rest...)
	a.Telemetry.Reset()
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	rl.BeginMode3D(a.Camera)
	a.RenderLinks()
	a.RenderNodes()
	rl.EndMode3D()

	a.DrawHUD()
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	rl.DrawText("massgrid", 30, 30, 24, ColSelect)
	rl.DrawText(fmt.Sprintf(":: %s  %s", a.Name, a.Sim.Dims()), 150, 36, 16, ColText)

	status, col := "RUNNING", ColSelect
	if a.Err != nil {
		status, col = "STOPPED: "+a.Err.Error(), rl.Red
	} else if !a.Running {
		status, col = "PAUSED", ColTextDim
	}
	rl.DrawText(status, int32(panelRect.X)+10, 30, 16, col)

	rl.DrawText(fmt.Sprintf("t=%.2fs  step=%d  backend=%s", a.Sim.Time(), a.Sim.StepCount(), a.Sim.Backend().Name()), 30, 70, 14, ColText)
	if a.Hover >= 0 {
		rl.DrawText(fmt.Sprintf("node #%d", a.Hover), 30, 90, 14, ColAccent)
	}

	a.DrawPanel()
	a.DrawTelemetry()
	rl.DrawText("[LMB] PUSH  [RMB] PULL  [SPACE] PAUSE  [R] RESET  [TAB/UP/DOWN] TUNE  [ALT] ORBIT  [Q] QUIT", 380, 690, 14, ColTextDim)
	rl.DrawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 690, 14, ColTextDim)
}

// DrawTelemetry plots the kinetic energy history.
func (a *App) DrawTelemetry() {
	vals := a.Telemetry.Values()
	if len(vals) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := vals[0], vals[0]
	for _, v := range vals {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(vals))
	for i, val := range vals {
		px := float32(rectX) + (float32(i)/float32(len(vals)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	rl.DrawText(fmt.Sprintf("KE: %.2e", vals[len(vals)-1]), int32(rectX+width+10), int32(rectY+height-10), 14, ColText)
}
