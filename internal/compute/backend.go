package compute

import (
	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/springs"
)

// Backend advances grid buffers by one pass. Implementations must read only
// the previous frame's state during VelocityPass and must not return until
// every node has been written.
type Backend interface {
	Name() string
	Available() bool
	VelocityPass(b *springs.Buffers, p dynamo.Params, dt float64)
	PositionPass(b *springs.Buffers, dt float64)
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend returns the best backend this build supports.
func AutoSelectBackend() Backend {
	return NewCPUBackend(0)
}

// Step runs one full integration step: velocity pass, swap, position pass.
func Step(be Backend, b *springs.Buffers, p dynamo.Params, dt float64) {
	be.VelocityPass(b, p, dt)
	b.SwapVelocities()
	be.PositionPass(b, dt)
}
