package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/metrics"
	"github.com/san-kum/massgrid/internal/sim"
	"github.com/san-kum/massgrid/internal/touch"
)

const (
	canvasWidth     = 48
	canvasHeight    = 20
	historyCapacity = 300
	fps             = 60
)

type TickMsg time.Time

// Model drives a simulator from Bubble Tea ticks and renders it.
type Model struct {
	sim   *sim.Simulator
	queue *touch.Queue
	dt    float64
	name  string

	pos  []r3.Vec
	rest []r3.Vec

	running  bool
	layer    int
	cx, cy   int
	poke     r3.Vec
	wireView bool
	showHelp bool
	err      error

	paramKeys     []string
	initialParams map[string]float64
	selected      int

	kinetic   *metrics.Series
	potential *metrics.Series
	maxDisp   *metrics.MaxDisplacement

	canvas  *Canvas
	camera  *Camera
	rig     *CameraRig
	wire    *Wireframe
	dispBar progress.Model
}

// NewModel wraps an initialized simulator. Touches pushed onto q, by the
// model or anyone else, are applied on the next tick.
func NewModel(s *sim.Simulator, q *touch.Queue, dt float64, name string) (Model, error) {
	rest, err := s.RestPositions()
	if err != nil {
		return Model{}, err
	}
	pos, err := s.Positions()
	if err != nil {
		return Model{}, err
	}

	params := s.GetParams()
	keys := s.Params().ParamNames()
	initial := make(map[string]float64, len(params))
	for k, v := range params {
		initial[k] = v
	}

	dims := s.Dims()
	cam := NewCamera()
	m := Model{
		sim:           s,
		queue:         q,
		dt:            dt,
		name:          name,
		pos:           pos,
		rest:          rest,
		running:       true,
		layer:         dims.Layers / 2,
		cx:            dims.X / 2,
		cy:            dims.Y / 2,
		poke:          r3.Vec{Z: 1},
		paramKeys:     keys,
		initialParams: initial,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		camera:        cam,
		rig:           NewCameraRig(cam, fps),
		wire:          NewWireframe(),
		dispBar: progress.New(
			progress.WithScaledGradient("#00FF9F", "#FF2A6D"),
			progress.WithoutPercentage(),
			progress.WithWidth(20),
		),
	}
	if err := m.resetMetrics(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.running {
			m.step()
		}
		m.rig.Step(m.camera)
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	dims := m.sim.Dims()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left":
		m.cx = max(m.cx-1, 0)
	case "right":
		m.cx = min(m.cx+1, dims.X-1)
	case "up":
		m.cy = min(m.cy+1, dims.Y-1)
	case "down":
		m.cy = max(m.cy-1, 0)
	case ",":
		m.layer = max(m.layer-1, 0)
	case ".":
		m.layer = min(m.layer+1, dims.Layers-1)
	case " ":
		m.queue.Push(touch.Event{Node: m.Cursor(), Pressure: m.poke})
	case "p":
		m.running = !m.running
	case "r":
		m.reset()
	case "tab":
		m.cycleParam()
	case "k":
		m.adjustParam(1.05)
	case "j":
		m.adjustParam(0.95)
	case "m":
		m.wireView = !m.wireView
	case "x":
		m.rig.Target().RotateX(0.1)
	case "X":
		m.rig.Target().RotateX(-0.1)
	case "y":
		m.rig.Target().RotateY(0.1)
	case "Y":
		m.rig.Target().RotateY(-0.1)
	case "z":
		m.rig.Target().RotateZ(0.1)
	case "Z":
		m.rig.Target().RotateZ(-0.1)
	case "+", "=":
		m.rig.Target().ZoomIn()
	case "-", "_":
		m.rig.Target().ZoomOut()
	case "t":
		NextTheme()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// Cursor is the node index under the heatmap cursor.
func (m Model) Cursor() int {
	return m.sim.Dims().Index(m.cx, m.cy, m.layer)
}

// Err is the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m *Model) step() {
	if err := m.sim.Tick(m.dt, m.queue); err != nil {
		m.err = err
		m.running = false
		return
	}
	pos, err := m.sim.Positions()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.pos = pos
	f := dynamo.Frame{Step: m.sim.StepCount(), Time: m.sim.Time(), Positions: pos}
	m.kinetic.Observe(f)
	m.potential.Observe(f)
	m.maxDisp.Observe(f)
}

// resetMetrics rebuilds the metrics from the current parameters and
// resting layout, which moves whenever the rest length is tuned.
func (m *Model) resetMetrics() error {
	rest, err := m.sim.RestPositions()
	if err != nil {
		return err
	}
	m.rest = rest
	p := m.sim.Params()
	m.kinetic = metrics.NewSeries(metrics.NewKineticEnergy(p.Mass), historyCapacity)
	m.potential = metrics.NewSeries(metrics.NewSpringPotential(m.sim.Dims(), p.Stiffness, p.RestLength), historyCapacity)
	m.maxDisp = metrics.NewMaxDisplacement(rest)
	return nil
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	if err := m.sim.SetParam(key, m.sim.GetParams()[key]*factor); err != nil {
		// Out-of-range values are refused and the old one stays.
		return
	}
	if err := m.resetMetrics(); err != nil {
		m.err = err
		m.running = false
	}
}

func (m *Model) reset() {
	for _, k := range m.paramKeys {
		v, ok := m.initialParams[k]
		if !ok {
			continue
		}
		if err := m.sim.SetParam(k, v); err != nil {
			m.err = err
			return
		}
	}
	if err := m.sim.Reset(); err != nil {
		m.err = err
		return
	}
	m.queue.Drain()
	m.err = nil
	if pos, err := m.sim.Positions(); err == nil {
		m.pos = pos
	}
	if err := m.resetMetrics(); err != nil {
		m.err = err
	}
}

func (m Model) View() string {
	dims := m.sim.Dims()
	params := m.sim.Params()

	var left string
	if m.wireView {
		m.canvas.Clear()
		GridWireframe(m.wire, m.pos, m.rest, dims)
		Render3D(m.canvas, m.wire, m.camera)
		left = panelStyle.Render(m.canvas.String())
	} else {
		title := headerStyle.Render(fmt.Sprintf("LAYER %d/%d", m.layer+1, dims.Layers))
		left = panelStyle.Render(title + "\n" + Heatmap(m.pos, m.rest, dims, m.layer, m.Cursor(), params.RestLength*0.5))
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	status := "RUNNING"
	if m.err != nil {
		status = errorStyle.Render("STOPPED: " + m.err.Error())
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	ke, pe := m.kinetic.Values(), m.potential.Values()
	if len(ke) > 1 && len(pe) > 1 {
		chart := asciigraph.PlotMany([][]float64{ke, pe}, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic / Spring"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.sim.Time()))
	row("Step", fmt.Sprintf("%d", m.sim.StepCount()))
	row("Grid", fmt.Sprintf("%s (%d nodes)", dims, dims.Count()))
	row("Cursor", fmt.Sprintf("#%d (%d,%d,%d)", m.Cursor(), m.cx, m.cy, m.layer))
	row("Max disp", fmt.Sprintf("%.3f %s", m.maxDisp.Current(),
		m.dispBar.ViewAs(min(m.maxDisp.Current()/params.RestLength, 1))))
	row("Peak disp", fmt.Sprintf("%.3f", m.maxDisp.Value()))
	row("Backend", m.sim.Backend().Name())

	s.WriteString("\nPARAMETERS\n")
	current := m.sim.GetParams()
	for i, k := range m.paramKeys {
		val := current[k]
		line := fmt.Sprintf("%-15s %s %.3f", k, ParamBar(val, m.initialParams[k], 10), val)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("\n" + Separator(30) + "\nSP:Poke P:Pause R:Reset Q:Quit\n←↑↓→:Cursor ,.:Layer M:View\nTab:Param K/J:Tune ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, left, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Arrows   - Move cursor              ║
║  , .      - Previous/next layer      ║
║  Space    - Poke node under cursor   ║
║  P        - Pause/Resume             ║
║  R        - Reset to rest            ║
║  Tab      - Cycle parameters         ║
║  K / J    - Tune parameter (+/-5%)   ║
║  M        - Heatmap / wireframe      ║
║  X Y Z    - Rotate wireframe         ║
║  + / -    - Zoom wireframe           ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run shows the live view until the user quits.
func Run(s *sim.Simulator, q *touch.Queue, dt float64, name string) error {
	m, err := NewModel(s, q, dt, name)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
