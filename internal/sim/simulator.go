package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/compute"
	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/lattice"
	"github.com/san-kum/massgrid/internal/springs"
	"github.com/san-kum/massgrid/internal/touch"
)

// EventSource yields the touch events for the next frame.
type EventSource interface {
	Drain() []touch.Event
}

// Simulator sequences frames of the mass-spring grid: touches, velocity
// pass, position pass, publish.
type Simulator struct {
	mu        sync.Mutex
	cfg       Config
	params    dynamo.Params
	status    Status
	buf       *springs.Buffers
	backend   compute.Backend
	mapper    *touch.Mapper
	observers []Observer
	frames    *FramePool
	logger    *slog.Logger
	validate  bool

	step int
	t    float64
}

type Option func(*Simulator)

func WithBackend(b compute.Backend) Option { return func(s *Simulator) { s.backend = b } }

func WithLogger(l *slog.Logger) Option { return func(s *Simulator) { s.logger = l } }

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

// WithValidation makes Step fail once any position turns NaN or Inf.
func WithValidation(on bool) Option { return func(s *Simulator) { s.validate = on } }

func New(cfg Config, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:       cfg,
		params:    cfg.Params,
		observers: make([]Observer, 0),
		logger:    slog.Default(),
		validate:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Initialize validates the configuration, allocates the grid buffers in
// their resting layout and builds the neighbour topology.
func (s *Simulator) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case Initialized:
		return nil
	case Released:
		return dynamo.ErrReleased
	}

	if err := s.cfg.Validate(); err != nil {
		return err
	}

	dims := s.cfg.Dims()
	buf, err := springs.New(dims, s.params.RestLength, s.cfg.Origin)
	if err != nil {
		return err
	}

	if s.backend == nil {
		if s.cfg.Workers > 0 {
			s.backend = compute.NewCPUBackend(s.cfg.Workers)
		} else {
			s.backend = compute.GetBackend()
		}
	}

	s.buf = buf
	s.mapper = touch.NewMapper(dims, s.params.MaxTouchForce, s.logger)
	s.frames = NewFramePool(dims.Count())
	s.status = Initialized

	s.logger.Info("grid initialized",
		slog.String("dims", dims.String()),
		slog.Int("nodes", dims.Count()),
		slog.String("backend", s.backend.Name()))
	return nil
}

func (s *Simulator) ready() error {
	switch s.status {
	case Uninitialized:
		return dynamo.ErrNotInitialized
	case Released:
		return dynamo.ErrReleased
	}
	return nil
}

// Step advances one frame of length dt with the given touch events. With
// validation on, a frame that turns any position NaN or Inf is handed to
// observers and then reported as ErrInvalidState.
func (s *Simulator) Step(dt float64, events []touch.Event) error {
	s.mu.Lock()

	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !(dt > 0) {
		s.mu.Unlock()
		return fmt.Errorf("dt must be positive, got %g: %w", dt, dynamo.ErrParameterBounds)
	}
	if err := s.buf.Check(); err != nil {
		s.mu.Unlock()
		return &dynamo.SimulationError{Step: s.step, Time: s.t, Wrapped: err}
	}

	s.mapper.MaxForce = s.params.MaxTouchForce
	s.mapper.Apply(s.buf.Forces, events)

	compute.Step(s.backend, s.buf, s.params, dt)

	s.step++
	s.t += dt

	// a diverged frame is still published so observers can count it
	var stepErr error
	if s.validate && !dynamo.IsValid(s.buf.Positions) {
		stepErr = &dynamo.SimulationError{Step: s.step, Time: s.t, Wrapped: dynamo.ErrInvalidState}
	}

	frame := dynamo.Frame{Step: s.step, Time: s.t, Positions: s.buf.Snapshot(s.frames.Get())}
	observers := s.observers
	pool := s.frames
	s.mu.Unlock()

	for _, o := range observers {
		o.OnFrame(frame)
	}
	pool.Put(frame.Positions)
	return stepErr
}

// Tick steps once with everything queued on src.
func (s *Simulator) Tick(dt float64, src EventSource) error {
	var events []touch.Event
	if src != nil {
		events = src.Drain()
	}
	return s.Step(dt, events)
}

// Run steps frames times, stopping early on the first error or when ctx
// is cancelled between frames.
func (s *Simulator) Run(ctx context.Context, frames int, dt float64, src EventSource) error {
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Tick(dt, src); err != nil {
			return err
		}
	}
	return nil
}

// Reset returns the grid to rest without reallocating.
func (s *Simulator) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	s.buf.Reset(s.params.RestLength)
	s.step, s.t = 0, 0
	return nil
}

// Release frees the grid buffers. It is safe to call more than once and
// on a simulator that was never initialized.
func (s *Simulator) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Released {
		return
	}
	s.buf.Release()
	s.buf = nil
	s.status = Released
}

func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Simulator) Dims() lattice.Dims { return s.cfg.Dims() }

// Backend is the backend stepping this grid; nil until Initialize.
func (s *Simulator) Backend() compute.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

func (s *Simulator) StepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Simulator) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

// Positions returns a copy of the current node positions.
func (s *Simulator) Positions() ([]r3.Vec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.buf.Snapshot(nil), nil
}

// Velocities returns a copy of the current node velocities.
func (s *Simulator) Velocities() ([]r3.Vec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]r3.Vec, len(s.buf.Velocities))
	copy(out, s.buf.Velocities)
	return out, nil
}

// RestPositions returns where every node sits at rest.
func (s *Simulator) RestPositions() ([]r3.Vec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make([]r3.Vec, s.buf.Len())
	for i := range out {
		out[i] = s.buf.RestPosition(i)
	}
	return out, nil
}

func (s *Simulator) Params() dynamo.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Simulator) GetParams() map[string]float64 {
	return s.Params().GetParams()
}

// SetParam tunes one physical constant between steps. Changing the rest
// length rescales every spring without moving the nodes.
func (s *Simulator) SetParam(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.params.SetParam(name, value); err != nil {
		return err
	}
	if name == "rest_length" && s.status == Initialized {
		s.buf.SetRestLength(value)
	}
	s.logger.Debug("param set", slog.String("name", name), slog.Float64("value", value))
	return nil
}
