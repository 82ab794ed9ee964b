package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/sim"
	"github.com/san-kum/massgrid/internal/touch"
)

const (
	DefaultDt         = 0.016
	DefaultFrames     = 600
	DefaultBlockSize  = 4
	DefaultBlocks     = 1
	DefaultLayers     = 4
	DefaultOriginXY   = 10.0
	DefaultSampleRate = 1
)

type Config struct {
	Grid       GridConfig    `yaml:"grid"`
	Physics    PhysicsConfig `yaml:"physics"`
	Origin     VecConfig     `yaml:"origin"`
	Dt         float64       `yaml:"dt"`
	Frames     int           `yaml:"frames"`
	Workers    int           `yaml:"workers"`
	SampleRate int           `yaml:"sample_rate"`
	Touches    []TouchConfig `yaml:"touches"`
}

type GridConfig struct {
	BlockSizeX int `yaml:"block_size_x"`
	BlockSizeY int `yaml:"block_size_y"`
	BlocksX    int `yaml:"blocks_x"`
	BlocksY    int `yaml:"blocks_y"`
	Layers     int `yaml:"layers"`
}

type PhysicsConfig struct {
	Mass          float64 `yaml:"mass"`
	Damping       float64 `yaml:"damping"`
	Stiffness     float64 `yaml:"stiffness"`
	RestLength    float64 `yaml:"rest_length"`
	MaxTouchForce float64 `yaml:"max_touch_force"`
}

type VecConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// TouchConfig schedules one press for replay in headless runs.
type TouchConfig struct {
	Frame    int       `yaml:"frame"`
	Node     int       `yaml:"node"`
	Pressure VecConfig `yaml:"pressure"`
	// Hold repeats the press for this many frames; zero means one frame.
	Hold int `yaml:"hold"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			BlockSizeX: DefaultBlockSize,
			BlockSizeY: DefaultBlockSize,
			BlocksX:    DefaultBlocks,
			BlocksY:    DefaultBlocks,
			Layers:     DefaultLayers,
		},
		Physics: PhysicsConfig{
			Mass:          dynamo.DefaultMass,
			Damping:       dynamo.DefaultDamping,
			Stiffness:     dynamo.DefaultStiffness,
			RestLength:    dynamo.DefaultRestLength,
			MaxTouchForce: dynamo.DefaultMaxTouchForce,
		},
		Origin:     VecConfig{X: DefaultOriginXY, Y: DefaultOriginXY},
		Dt:         DefaultDt,
		Frames:     DefaultFrames,
		SampleRate: DefaultSampleRate,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g: %w", c.Dt, dynamo.ErrInvalidConfig)
	}
	if c.Frames < 0 {
		return fmt.Errorf("frames must be >= 0, got %d: %w", c.Frames, dynamo.ErrInvalidConfig)
	}
	if c.SampleRate < 1 {
		return fmt.Errorf("sample rate must be >= 1, got %d: %w", c.SampleRate, dynamo.ErrInvalidConfig)
	}
	simCfg := c.SimConfig()
	if err := simCfg.Validate(); err != nil {
		return err
	}
	n := simCfg.Dims().Count()
	for i, t := range c.Touches {
		if t.Node < 0 || t.Node >= n {
			return fmt.Errorf("touch %d targets node %d outside 0..%d: %w", i, t.Node, n-1, dynamo.ErrInvalidConfig)
		}
		if t.Frame < 0 || t.Hold < 0 {
			return fmt.Errorf("touch %d has negative frame or hold: %w", i, dynamo.ErrInvalidConfig)
		}
	}
	return nil
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params{
		Mass:          c.Physics.Mass,
		Damping:       c.Physics.Damping,
		Stiffness:     c.Physics.Stiffness,
		RestLength:    c.Physics.RestLength,
		MaxTouchForce: c.Physics.MaxTouchForce,
	}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		BlockSizeX: c.Grid.BlockSizeX,
		BlockSizeY: c.Grid.BlockSizeY,
		BlocksX:    c.Grid.BlocksX,
		BlocksY:    c.Grid.BlocksY,
		Layers:     c.Grid.Layers,
		Origin:     c.Origin.Vec(),
		Workers:    c.Workers,
		Params:     c.Params(),
	}
}

// Script expands the configured touches into a per-frame replay.
func (c *Config) Script() *touch.Script {
	s := touch.NewScript()
	for _, t := range c.Touches {
		hold := t.Hold
		if hold < 1 {
			hold = 1
		}
		for f := 0; f < hold; f++ {
			s.At(t.Frame+f, touch.Event{Node: t.Node, Pressure: t.Pressure.Vec()})
		}
	}
	return s
}

func (v VecConfig) Vec() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
