package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/lattice"
)

// Status is the simulator lifecycle state.
type Status int

const (
	Uninitialized Status = iota
	Initialized
	Released
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Released:
		return "released"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Observer receives a frame after every completed step. The frame's
// positions are only valid for the duration of the call; observers that
// keep them must copy.
type Observer interface {
	OnFrame(f dynamo.Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f dynamo.Frame)

func (fn ObserverFunc) OnFrame(f dynamo.Frame) { fn(f) }

// Config is everything Initialize needs to build a grid.
type Config struct {
	BlockSizeX int
	BlockSizeY int
	BlocksX    int
	BlocksY    int
	Layers     int
	Origin     r3.Vec
	Workers    int
	Params     dynamo.Params
}

func DefaultConfig() Config {
	return Config{
		BlockSizeX: 4,
		BlockSizeY: 4,
		BlocksX:    1,
		BlocksY:    1,
		Layers:     4,
		Origin:     r3.Vec{X: 10, Y: 10},
		Params:     dynamo.DefaultParams(),
	}
}

// Dims derives the grid resolution from the block layout.
func (c Config) Dims() lattice.Dims {
	return lattice.Dims{
		X:      c.BlockSizeX * c.BlocksX,
		Y:      c.BlockSizeY * c.BlocksY,
		Layers: c.Layers,
	}
}

func (c Config) Validate() error {
	if c.BlockSizeX <= 0 || c.BlockSizeY <= 0 || c.BlocksX <= 0 || c.BlocksY <= 0 || c.Layers <= 0 {
		return fmt.Errorf("block size %dx%d, blocks %dx%d and layers %d must be positive: %w",
			c.BlockSizeX, c.BlockSizeY, c.BlocksX, c.BlocksY, c.Layers, dynamo.ErrInvalidConfig)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
	}
	return nil
}
