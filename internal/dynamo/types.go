package dynamo

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultMass          = 1.0
	DefaultDamping       = 0.1
	DefaultStiffness     = 10.0
	DefaultRestLength    = 1.0
	DefaultMaxTouchForce = 100.0
)

// Params are the physical constants read by the kernel every frame.
type Params struct {
	Mass          float64
	Damping       float64
	Stiffness     float64
	RestLength    float64
	MaxTouchForce float64
}

func DefaultParams() Params {
	return Params{
		Mass:          DefaultMass,
		Damping:       DefaultDamping,
		Stiffness:     DefaultStiffness,
		RestLength:    DefaultRestLength,
		MaxTouchForce: DefaultMaxTouchForce,
	}
}

// Validate reports the first parameter outside its recognized range.
func (p Params) Validate() error {
	switch {
	case !(p.Mass > 0):
		return fmt.Errorf("mass must be positive, got %g: %w", p.Mass, ErrParameterBounds)
	case !(p.Damping > 0 && p.Damping < 1):
		return fmt.Errorf("damping must be in (0,1), got %g: %w", p.Damping, ErrParameterBounds)
	case !(p.Stiffness > 0):
		return fmt.Errorf("stiffness must be positive, got %g: %w", p.Stiffness, ErrParameterBounds)
	case !(p.RestLength > 0):
		return fmt.Errorf("rest length must be positive, got %g: %w", p.RestLength, ErrParameterBounds)
	case !(p.MaxTouchForce >= 0) || math.IsInf(p.MaxTouchForce, 0):
		return fmt.Errorf("max touch force must be >= 0, got %g: %w", p.MaxTouchForce, ErrParameterBounds)
	}
	return nil
}

// GetParams exposes the tunable values by name for tuning surfaces.
func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":            p.Mass,
		"damping":         p.Damping,
		"stiffness":       p.Stiffness,
		"rest_length":     p.RestLength,
		"max_touch_force": p.MaxTouchForce,
	}
}

// ParamNames returns the tunable names in stable order.
func (p Params) ParamNames() []string {
	m := p.GetParams()
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetParam updates one named value, rejecting it if the result is out of range.
func (p *Params) SetParam(name string, value float64) error {
	next := *p
	switch name {
	case "mass":
		next.Mass = value
	case "damping":
		next.Damping = value
	case "stiffness":
		next.Stiffness = value
	case "rest_length":
		next.RestLength = value
	case "max_touch_force":
		next.MaxTouchForce = value
	default:
		return fmt.Errorf("unknown parameter %q: %w", name, ErrParameterBounds)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// Configurable is implemented by anything exposing named tunables.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Frame is the per-step snapshot published to presentation layers.
// Positions must be treated as read-only by receivers.
type Frame struct {
	Step      int
	Time      float64
	Positions []r3.Vec
}

// IsValid reports whether every vector in vs is finite.
func IsValid(vs []r3.Vec) bool {
	for _, v := range vs {
		if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
			return false
		}
	}
	return true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
