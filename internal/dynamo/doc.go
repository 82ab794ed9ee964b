// Package dynamo provides core primitives shared by the mass-spring grid.
//
// The package defines the types every other layer agrees on:
//
//   - [Params]: the tunable physical constants read by the kernel each frame
//   - [Frame]: a read-only position snapshot handed to presentation layers
//   - [ParallelFor]: the data-parallel fan-out used by the compute kernels
//   - the domain errors returned by the simulator and its buffers
//
// # Example
//
//	p := dynamo.DefaultParams()
//	if err := p.SetParam("stiffness", 25); err != nil {
//		return err
//	}
//
// # Thread Safety
//
// Params is a value type. ParallelFor blocks until every chunk has returned,
// which is the barrier the integration passes rely on.
package dynamo
