package viz

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/compute"
	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/lattice"
	"github.com/san-kum/massgrid/internal/sim"
	"github.com/san-kum/massgrid/internal/touch"
)

func newTestModel(t *testing.T) (Model, *touch.Queue) {
	t.Helper()
	s := sim.New(sim.DefaultConfig(), sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := s.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(s.Release)

	q := touch.NewQueue()
	m, err := NewModel(s, q, 0.016, "cube")
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m, q
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_CursorStartsCentred(t *testing.T) {
	m, _ := newTestModel(t)
	// 4x4x4 grid: (2,2,2)
	if got := m.Cursor(); got != 2+2*4+2*16 {
		t.Errorf("expected centre node 42, got %d", got)
	}
}

func TestModel_CursorMovesAndClamps(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < 10; i++ {
		m = update(m, key("left"))
	}
	m = update(m, key("up"))
	m = update(m, key(","))

	if m.cx != 0 || m.cy != 3 || m.layer != 1 {
		t.Errorf("cursor at (%d,%d,%d)", m.cx, m.cy, m.layer)
	}
}

func TestModel_PokeQueuesTouch(t *testing.T) {
	m, q := newTestModel(t)
	m = update(m, key(" "))

	events := q.Drain()
	if len(events) != 1 || events[0].Node != m.Cursor() || events[0].Pressure != (r3.Vec{Z: 1}) {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestModel_TickStepsAndPauses(t *testing.T) {
	m, q := newTestModel(t)
	q.Push(touch.Event{Node: 21, Pressure: r3.Vec{Z: 1}})

	m = update(m, TickMsg(time.Now()))
	if m.sim.StepCount() != 1 {
		t.Fatalf("expected 1 step, got %d", m.sim.StepCount())
	}
	if m.maxDisp.Value() == 0 {
		t.Error("poked grid should be displaced")
	}

	m = update(m, key("p"))
	m = update(m, TickMsg(time.Now()))
	if m.sim.StepCount() != 1 {
		t.Errorf("paused model should not step, got %d", m.sim.StepCount())
	}
}

func TestModel_TuneAndReset(t *testing.T) {
	m, _ := newTestModel(t)
	key0 := m.paramKeys[m.selected]
	before := m.sim.GetParams()[key0]

	m = update(m, key("k"))
	if got := m.sim.GetParams()[key0]; got <= before {
		t.Errorf("%s should increase, %g -> %g", key0, before, got)
	}

	m = update(m, TickMsg(time.Now()))
	m = update(m, key("r"))
	if m.sim.StepCount() != 0 || m.sim.GetParams()[key0] != before {
		t.Error("reset should restore rest state and parameters")
	}
}

func TestModel_ViewRenders(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(m, TickMsg(time.Now()))
	m = update(m, TickMsg(time.Now()))

	v := m.View()
	for _, want := range []string{"CUBE", "LAYER 3/4", "PARAMETERS", "stiffness"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(m, key("m"))
	if strings.Contains(m.View(), "LAYER") {
		t.Error("wireframe view should replace the heatmap")
	}
}

func TestHeatmap(t *testing.T) {
	dims := lattice.Dims{X: 3, Y: 3, Layers: 3}
	rest := make([]r3.Vec, dims.Count())
	pos := make([]r3.Vec, dims.Count())
	centre := dims.Index(1, 1, 1)
	pos[centre] = r3.Vec{Z: 1}

	out := Heatmap(pos, rest, dims, 1, -1, 1)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "@") {
		t.Errorf("fully displaced centre should be '@': %q", lines[1])
	}
	if !strings.Contains(lines[0], "·") {
		t.Errorf("pinned row should show dots: %q", lines[0])
	}

	withCursor := Heatmap(pos, rest, dims, 1, centre, 1)
	if !strings.Contains(withCursor, "[@]") {
		t.Errorf("cursor should be bracketed:\n%s", withCursor)
	}

	if Heatmap(pos, rest, dims, 5, -1, 1) != "" {
		t.Error("out of range layer should render nothing")
	}
}

func TestGridWireframe(t *testing.T) {
	dims := lattice.Dims{X: 2, Y: 2, Layers: 2}
	rest := make([]r3.Vec, dims.Count())
	for i := range rest {
		x, y, z := dims.Coord(i)
		rest[i] = r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)}
	}

	w := NewWireframe()
	GridWireframe(w, rest, rest, dims)
	// 12 edges of a cube
	if len(w.Edges) != 12 {
		t.Errorf("expected 12 edges, got %d", len(w.Edges))
	}

	c := NewCanvas(20, 10)
	Render3D(c, w, NewCamera())
	if !strings.ContainsFunc(c.String(), func(r rune) bool { return r > 0x2800 && r <= 0x28ff }) {
		t.Error("expected lit pixels on the canvas")
	}
}

func TestPicker(t *testing.T) {
	p := NewPicker([]string{"cube", "slab"}, map[string]string{"cube": "4x4x4"})
	next, _ := p.Update(key("j"))
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if next.(Picker).Selected() != "slab" {
		t.Errorf("expected slab, got %q", next.(Picker).Selected())
	}
	if cmd == nil {
		t.Error("selecting should quit")
	}
	if !strings.Contains(p.View(), "cube") {
		t.Error("view should list names")
	}
}

func TestNextThemeCycles(t *testing.T) {
	start := CurrentTheme.Name
	for range Themes {
		NextTheme()
	}
	if CurrentTheme.Name != start {
		t.Errorf("expected to cycle back to %s, got %s", start, CurrentTheme.Name)
	}
}

func TestCameraRigEasesToTarget(t *testing.T) {
	cam := NewCamera()
	rig := NewCameraRig(cam, 60)
	start := cam.RotX

	rig.Target().RotateX(0.5)
	rig.Target().ZoomIn()

	rig.Step(cam)
	if cam.RotX == start || cam.RotX >= start+0.5 {
		t.Errorf("first step should move part way, RotX=%g", cam.RotX)
	}
	for i := 0; i < 300; i++ {
		rig.Step(cam)
	}
	if d := cam.RotX - (start + 0.5); d > 1e-3 || d < -1e-3 {
		t.Errorf("RotX did not settle: %g", cam.RotX)
	}
	if d := cam.Zoom - 1.2; d > 1e-3 || d < -1e-3 {
		t.Errorf("Zoom did not settle: %g", cam.Zoom)
	}

	rig.Target().RotateZ(1)
	rig.Snap(cam)
	if cam.RotZ != rig.Target().RotZ {
		t.Error("Snap should jump to target")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.Lit(i, i) {
			t.Errorf("diagonal pixel (%d,%d) not lit", i, i)
		}
	}
	if c.Lit(7, 0) || c.Lit(-1, 0) || c.Lit(8, 8) {
		t.Error("unexpected lit pixel")
	}
	if got := strings.Count(c.String(), "\n"); got != 1 {
		t.Errorf("expected 1 row break, got %d", got)
	}

	c.Clear()
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != 0x2800 && r != '\n' }) {
		t.Error("clear left pixels lit")
	}
}

func TestModel_RestFollowsRestLength(t *testing.T) {
	m, _ := newTestModel(t)
	for m.paramKeys[m.selected] != "rest_length" {
		m.cycleParam()
	}
	m.adjustParam(1.5)

	want, err := m.sim.RestPositions()
	if err != nil {
		t.Fatal(err)
	}
	if m.rest[21] != want[21] {
		t.Errorf("rest after tuning = %v, want %v", m.rest[21], want[21])
	}

	m.reset()
	want, _ = m.sim.RestPositions()
	if m.rest[21] != want[21] || m.pos[21] != want[21] {
		t.Errorf("after reset rest %v pos %v, want %v", m.rest[21], m.pos[21], want[21])
	}
	if m.maxDisp.Value() != 0 {
		t.Errorf("peak displacement should restart at zero, got %g", m.maxDisp.Value())
	}
}

func TestModel_ResetReportsRejectedParam(t *testing.T) {
	m, _ := newTestModel(t)
	m.initialParams["damping"] = 2

	m.reset()
	if !errors.Is(m.err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", m.err)
	}
}

func TestModel_ShowsSimulatorBackend(t *testing.T) {
	s := sim.New(sim.DefaultConfig(),
		sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		sim.WithBackend(namedBackend{compute.NewCPUBackend(1)}))
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	defer s.Release()

	m, err := NewModel(s, touch.NewQueue(), 0.016, "cube")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(m.View(), "cpu-test") {
		t.Error("view should name the simulator's own backend")
	}
}

type namedBackend struct{ *compute.CPUBackend }

func (namedBackend) Name() string { return "cpu-test" }
