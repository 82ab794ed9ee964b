// Package compute provides the integration kernels for the mass-spring grid.
//
// A [Backend] runs two data-parallel passes per step:
//
//   - VelocityPass: spring, damping and external forces → next velocities
//   - PositionPass: next velocities → positions, skipping pinned nodes
//
// The velocity pass reads only the previous frame's positions and velocities
// and writes into a separate buffer; [Step] swaps the buffers between passes,
// so no node ever observes a neighbour that has already advanced.
//
//	backend := compute.GetBackend()
//	compute.Step(backend, buffers, params, 1.0/60)
//
// The CPU backend splits the node range across one goroutine per core and
// waits for all of them before returning, which is the barrier between passes.
package compute
